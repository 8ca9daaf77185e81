package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"dispatch-service/internal/model"
	"dispatch-service/internal/repository"
	"dispatch-service/internal/rowstore"
)

// LedgerService maintains the per-job financial rollup. Every mutation is
// idempotent under retry: a ticket already in the job's ticket set contributes
// nothing on re-application, and materialProfit is always recomputed from the
// two totals it derives from.
type LedgerService struct {
	jobRepo    *repository.JobRepository
	ticketRepo *repository.TicketRepository
	locks      *jobLocks
	log        zerolog.Logger
}

func NewLedgerService(jobRepo *repository.JobRepository, ticketRepo *repository.TicketRepository, log zerolog.Logger) *LedgerService {
	return &LedgerService{
		jobRepo:    jobRepo,
		ticketRepo: ticketRepo,
		locks:      newJobLocks(),
		log:        log,
	}
}

// LedgerUpdate is the ticket-derived payload rolled into a job.
type LedgerUpdate struct {
	TicketID       string
	TicketType     model.TicketType
	MaterialCost   float64
	MaterialCharge float64
	PhotoIDs       []string
	BillingID      string
}

// UpdateJobFromTicket rolls one ticket into its job's running totals, lazily
// creating a zeroed job record on first touch.
func (s *LedgerService) UpdateJobFromTicket(ctx context.Context, jobID string, upd LedgerUpdate) (*model.Job, error) {
	if jobID == "" {
		return nil, fmt.Errorf("%w: job_id is required", ErrValidation)
	}
	if upd.TicketID == "" {
		return nil, fmt.Errorf("%w: ticket_id is required", ErrValidation)
	}

	unlock := s.locks.acquire(jobID)
	defer unlock()

	if err := s.ensureJob(ctx, jobID); err != nil {
		return nil, err
	}

	job, err := s.jobRepo.Mutate(ctx, jobID, func(j *model.Job) error {
		applyLedgerUpdate(j, upd)
		return nil
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return job, nil
}

func applyLedgerUpdate(j *model.Job, upd LedgerUpdate) {
	// Set membership gates the counter updates: a retried call for a ticket
	// already rolled in must not double-count.
	applied := j.HasTicket(upd.TicketID)

	j.AddTicketID(upd.TicketID)
	j.AddBillingID(upd.BillingID)
	for _, id := range upd.PhotoIDs {
		j.AddPhotoID(id)
	}

	if !applied {
		switch upd.TicketType {
		case model.TicketTypeDelivery:
			j.TotalDeliveries++
			j.TotalMaterialCost += upd.MaterialCost
			j.TotalMaterialCharged += upd.MaterialCharge
		case model.TicketTypePickup:
			j.TotalPickups++
		case model.TicketTypeReturn:
			// A return reduces what the customer is billed but does not
			// reverse the already-incurred cost.
			j.TotalReturns++
			j.TotalMaterialCharged -= upd.MaterialCharge
		}
	}

	j.MaterialProfit = j.TotalMaterialCharged - j.TotalMaterialCost
	j.UpdatedAt = time.Now().UTC()
}

// ensureJob creates the default-zero job row if this is the ledger's first
// touchpoint for the job. The per-job lock keeps this process from appending
// the row twice.
func (s *LedgerService) ensureJob(ctx context.Context, jobID string) error {
	_, err := s.jobRepo.GetByID(ctx, jobID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, rowstore.ErrRowNotFound) {
		return err
	}

	now := time.Now().UTC()
	return s.jobRepo.Create(ctx, &model.Job{
		ID:        jobID,
		Status:    model.JobStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *LedgerService) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return job, nil
}

// RebuildJob recomputes the rollup from a full scan of the job's tickets.
// This is the bulk export/reporting path; the incremental path above never
// re-scans.
func (s *LedgerService) RebuildJob(ctx context.Context, jobID string) (*model.Job, error) {
	if jobID == "" {
		return nil, fmt.Errorf("%w: job_id is required", ErrValidation)
	}

	unlock := s.locks.acquire(jobID)
	defer unlock()

	tickets, err := s.ticketRepo.ListByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if err := s.ensureJob(ctx, jobID); err != nil {
		return nil, err
	}

	job, err := s.jobRepo.Mutate(ctx, jobID, func(j *model.Job) error {
		j.TotalDeliveries = 0
		j.TotalPickups = 0
		j.TotalReturns = 0
		j.TotalMaterialCost = 0
		j.TotalMaterialCharged = 0
		j.TicketIDs = nil

		for i := range tickets {
			t := &tickets[i]
			if !ledgerEligible(t) {
				continue
			}
			upd := LedgerUpdate{
				TicketID:   t.ID,
				TicketType: t.TicketType,
				PhotoIDs:   t.PhotoIDs,
				BillingID:  t.BillingID,
			}
			switch t.TicketType {
			case model.TicketTypeDelivery:
				upd.MaterialCost = model.TotalCost(t.Materials)
				upd.MaterialCharge = model.TotalCharge(t.Materials)
			case model.TicketTypeReturn:
				upd.MaterialCharge = model.TotalCharge(t.ReturnedMaterials)
			}
			applyLedgerUpdate(j, upd)
		}

		j.MaterialProfit = j.TotalMaterialCharged - j.TotalMaterialCost
		j.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return job, nil
}

// ledgerEligible reports whether a ticket has reached the transition that
// feeds the rollup: delivered (or later) for deliveries, completed for
// pickups and returns.
func ledgerEligible(t *model.Ticket) bool {
	switch t.TicketType {
	case model.TicketTypeDelivery:
		return t.Status == model.TicketStatusDelivered || t.Status == model.TicketStatusCompleted
	case model.TicketTypePickup, model.TicketTypeReturn:
		return t.Status == model.TicketStatusCompleted
	}
	return false
}
