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
	"dispatch-service/internal/utils"
)

// Notifier is the boundary to the external SMS/email provider. Delivery is
// best-effort and never blocks a transition.
type Notifier interface {
	SendSMS(ctx context.Context, to, message string) bool
	SendEmail(ctx context.Context, to, subject, body string) bool
}

type TicketService struct {
	ticketRepo     *repository.TicketRepository
	adjustmentRepo *repository.AdjustmentRepository
	ledger         *LedgerService
	notify         Notifier
	log            zerolog.Logger
}

func NewTicketService(
	ticketRepo *repository.TicketRepository,
	adjustmentRepo *repository.AdjustmentRepository,
	ledger *LedgerService,
	notify Notifier,
	log zerolog.Logger,
) *TicketService {
	return &TicketService{
		ticketRepo:     ticketRepo,
		adjustmentRepo: adjustmentRepo,
		ledger:         ledger,
		notify:         notify,
		log:            log,
	}
}

func invalidTransition(op TicketOperation, t *model.Ticket) error {
	return fmt.Errorf("%w: %s not allowed for %s ticket in status %s",
		ErrInvalidTransition, op, t.TicketType, t.Status)
}

func mapRepoErr(err error) error {
	if errors.Is(err, rowstore.ErrRowNotFound) {
		return ErrNotFound
	}
	return err
}

type CreateTicketInput struct {
	TicketType          string
	JobID               string
	JobName             string
	JobAddress          string
	City                string
	State               string
	Zip                 string
	CustomerName        string
	CustomerPhone       string
	CustomerEmail       string
	ProjectManager      string
	Materials           []model.MaterialItem
	RequestedDate       string
	RequestedTime       string
	Priority            string
	SpecialInstructions string
	ReturnReason        string
	PickupReason        string
	RelatedTicketID     string
	BillingID           string
}

func (s *TicketService) CreateTicket(ctx context.Context, principal model.Principal, input CreateTicketInput) (*model.Ticket, error) {
	if !principal.CanManageTickets() {
		return nil, ErrPermissionDenied
	}

	ticketType := model.TicketTypeDelivery
	if input.TicketType != "" {
		parsed, ok := model.ParseTicketType(input.TicketType)
		if !ok {
			return nil, fmt.Errorf("%w: unknown ticket type %q", ErrValidation, input.TicketType)
		}
		ticketType = parsed
	}

	if input.JobID == "" {
		return nil, fmt.Errorf("%w: job_id is required", ErrValidation)
	}
	if ticketType != model.TicketTypeReturn && len(input.Materials) == 0 {
		return nil, fmt.Errorf("%w: at least one material line is required", ErrValidation)
	}

	// A return must reference the delivery or pickup it reverses.
	if ticketType == model.TicketTypeReturn {
		if input.RelatedTicketID == "" {
			return nil, fmt.Errorf("%w: related_ticket_id is required for returns", ErrValidation)
		}
		related, err := s.ticketRepo.GetByID(ctx, input.RelatedTicketID)
		if err != nil {
			if errors.Is(err, rowstore.ErrRowNotFound) {
				return nil, fmt.Errorf("%w: related ticket %s does not exist", ErrValidation, input.RelatedTicketID)
			}
			return nil, err
		}
		if related.TicketType == model.TicketTypeReturn {
			return nil, fmt.Errorf("%w: related ticket %s is itself a return", ErrValidation, input.RelatedTicketID)
		}
	}

	now := time.Now().UTC()
	ticket := &model.Ticket{
		ID:                  model.NewTicketID(),
		TicketType:          ticketType,
		Status:              model.TicketStatusCreated,
		CreatedBy:           principal.Name,
		CreatedByRole:       string(principal.Role),
		JobID:               input.JobID,
		JobName:             input.JobName,
		JobAddress:          input.JobAddress,
		City:                input.City,
		State:               input.State,
		Zip:                 input.Zip,
		CustomerName:        input.CustomerName,
		CustomerPhone:       input.CustomerPhone,
		CustomerEmail:       input.CustomerEmail,
		ProjectManager:      input.ProjectManager,
		Materials:           input.Materials,
		RequestedDate:       input.RequestedDate,
		RequestedTime:       input.RequestedTime,
		Priority:            input.Priority,
		SpecialInstructions: input.SpecialInstructions,
		ReturnReason:        input.ReturnReason,
		PickupReason:        input.PickupReason,
		RelatedTicketID:     input.RelatedTicketID,
		BillingID:           input.BillingID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.ticketRepo.Create(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

type AssignDriverInput struct {
	TicketID      string
	DriverID      string
	DriverName    string
	DriverPhone   string
	Vehicle       string
	ScheduledDate string
	ScheduledTime string
	GPS           *model.GPSLocation
}

func (s *TicketService) AssignDriver(ctx context.Context, principal model.Principal, input AssignDriverInput) (*model.Ticket, error) {
	if !principal.CanManageTickets() {
		return nil, ErrPermissionDenied
	}
	if input.DriverID == "" {
		return nil, fmt.Errorf("%w: driver_id is required", ErrValidation)
	}

	var assigned bool
	ticket, err := s.ticketRepo.Mutate(ctx, input.TicketID, func(t *model.Ticket) error {
		// A retried assignment with the same driver is a no-op success; any
		// other caller hitting an already-assigned ticket is rejected.
		if t.Status == model.TicketStatusAssigned && t.DriverID == input.DriverID {
			return nil
		}
		if !validTransition(OpAssignDriver, t.TicketType, t.Status) || t.DriverID != "" {
			return invalidTransition(OpAssignDriver, t)
		}
		now := time.Now().UTC()
		t.DriverID = input.DriverID
		t.DriverName = input.DriverName
		t.Vehicle = input.Vehicle
		t.ScheduledDate = input.ScheduledDate
		t.ScheduledTime = input.ScheduledTime
		t.Status = model.TicketStatusAssigned
		t.AssignedAt = &now
		if input.GPS != nil {
			t.AssignedGPS = input.GPS
		}
		t.UpdatedAt = now
		assigned = true
		return nil
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}

	if assigned && s.notify != nil {
		if phone := utils.NormalizePhone(input.DriverPhone); phone != "" {
			msg := fmt.Sprintf("New %s ticket %s for %s on %s %s",
				ticket.TicketType, ticket.ID, ticket.JobName, ticket.ScheduledDate, ticket.ScheduledTime)
			if !s.notify.SendSMS(ctx, phone, msg) {
				s.log.Warn().Str("ticket_id", ticket.ID).Str("driver_id", input.DriverID).
					Msg("driver sms notification failed")
			}
		}
	}
	return ticket, nil
}

func (s *TicketService) PullMaterials(ctx context.Context, principal model.Principal, ticketID, pulledBy string) (*model.Ticket, error) {
	if !principal.CanPullMaterials() && !principal.CanManageTickets() {
		return nil, ErrPermissionDenied
	}
	if pulledBy == "" {
		pulledBy = principal.Name
	}

	ticket, err := s.ticketRepo.Mutate(ctx, ticketID, func(t *model.Ticket) error {
		if t.Status == model.TicketStatusMaterialsPulled && t.PulledBy == pulledBy {
			return nil
		}
		if !validTransition(OpPullMaterials, t.TicketType, t.Status) {
			return invalidTransition(OpPullMaterials, t)
		}
		now := time.Now().UTC()
		t.Status = model.TicketStatusMaterialsPulled
		t.PulledBy = pulledBy
		t.PulledAt = &now
		t.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return ticket, nil
}

func (s *TicketService) VerifyLoad(ctx context.Context, principal model.Principal, ticketID, verifiedBy string, gps *model.GPSLocation) (*model.Ticket, error) {
	if verifiedBy == "" {
		verifiedBy = principal.Name
	}

	ticket, err := s.ticketRepo.Mutate(ctx, ticketID, func(t *model.Ticket) error {
		if err := s.requireDriverOrOffice(principal, t); err != nil {
			return err
		}
		if t.Status == model.TicketStatusLoadVerified && t.VerifiedBy == verifiedBy {
			return nil
		}
		if !validTransition(OpVerifyLoad, t.TicketType, t.Status) {
			return invalidTransition(OpVerifyLoad, t)
		}
		now := time.Now().UTC()
		t.Status = model.TicketStatusLoadVerified
		t.VerifiedBy = verifiedBy
		t.VerifiedAt = &now
		if gps != nil {
			t.VerifiedGPS = gps
		}
		t.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return ticket, nil
}

func (s *TicketService) StartDelivery(ctx context.Context, principal model.Principal, ticketID string) (*model.Ticket, error) {
	ticket, err := s.ticketRepo.Mutate(ctx, ticketID, func(t *model.Ticket) error {
		if err := s.requireDriverOrOffice(principal, t); err != nil {
			return err
		}
		if t.Status == model.TicketStatusEnRoute {
			return nil
		}
		if !validTransition(OpStartDelivery, t.TicketType, t.Status) {
			return invalidTransition(OpStartDelivery, t)
		}
		now := time.Now().UTC()
		t.Status = model.TicketStatusEnRoute
		t.StartedAt = &now
		t.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return ticket, nil
}

func (s *TicketService) MarkArrived(ctx context.Context, principal model.Principal, ticketID string, gps *model.GPSLocation) (*model.Ticket, error) {
	ticket, err := s.ticketRepo.Mutate(ctx, ticketID, func(t *model.Ticket) error {
		if err := s.requireDriverOrOffice(principal, t); err != nil {
			return err
		}
		if t.Status == model.TicketStatusArrived {
			return nil
		}
		if !validTransition(OpMarkArrived, t.TicketType, t.Status) {
			return invalidTransition(OpMarkArrived, t)
		}
		now := time.Now().UTC()
		t.Status = model.TicketStatusArrived
		t.ArrivedAt = &now
		if gps != nil {
			t.ArrivedGPS = gps
		}
		t.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return ticket, nil
}

// CompleteDelivery moves a delivery ticket to delivered and rolls its cost
// and charge into the owning job. The ticket write and the ledger write are
// not atomic; a ledger failure leaves the ticket delivered and the error is
// surfaced so the caller retries, which re-applies the ledger idempotently.
func (s *TicketService) CompleteDelivery(ctx context.Context, principal model.Principal, ticketID, notes string) (*model.Ticket, error) {
	var delivered bool
	ticket, err := s.ticketRepo.Mutate(ctx, ticketID, func(t *model.Ticket) error {
		if err := s.requireDriverOrOffice(principal, t); err != nil {
			return err
		}
		if t.Status == model.TicketStatusDelivered {
			return nil
		}
		if !validTransition(OpCompleteDelivery, t.TicketType, t.Status) {
			return invalidTransition(OpCompleteDelivery, t)
		}
		now := time.Now().UTC()
		t.Status = model.TicketStatusDelivered
		t.DeliveredAt = &now
		if notes != "" {
			t.DeliveryNotes = notes
		}
		t.UpdatedAt = now
		delivered = true
		return nil
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}

	_, err = s.ledger.UpdateJobFromTicket(ctx, ticket.JobID, LedgerUpdate{
		TicketID:       ticket.ID,
		TicketType:     model.TicketTypeDelivery,
		MaterialCost:   model.TotalCost(ticket.Materials),
		MaterialCharge: model.TotalCharge(ticket.Materials),
		PhotoIDs:       ticket.PhotoIDs,
		BillingID:      ticket.BillingID,
	})
	if err != nil {
		s.log.Error().Err(err).Str("ticket_id", ticket.ID).Str("job_id", ticket.JobID).
			Msg("ledger update failed after delivery completion")
		return nil, err
	}

	// Email only when this call performed the transition; a retried no-op
	// must not spam the customer.
	if delivered && s.notify != nil && ticket.CustomerEmail != "" {
		subject := fmt.Sprintf("Materials delivered for %s", ticket.JobName)
		body := fmt.Sprintf("Your materials order %s has been delivered to %s.", ticket.ID, ticket.JobAddress)
		if !s.notify.SendEmail(ctx, ticket.CustomerEmail, subject, body) {
			s.log.Warn().Str("ticket_id", ticket.ID).Msg("customer delivery email failed")
		}
	}
	return ticket, nil
}

// CaptureProof attaches the signature without changing status. Re-capturing
// overwrites the previous signature.
func (s *TicketService) CaptureProof(ctx context.Context, principal model.Principal, ticketID, signatureURL, signedBy string) (*model.Ticket, error) {
	if signatureURL == "" {
		return nil, fmt.Errorf("%w: signature is required", ErrValidation)
	}

	ticket, err := s.ticketRepo.Mutate(ctx, ticketID, func(t *model.Ticket) error {
		if err := s.requireDriverOrOffice(principal, t); err != nil {
			return err
		}
		if !validTransition(OpCaptureProof, t.TicketType, t.Status) {
			return invalidTransition(OpCaptureProof, t)
		}
		t.SignatureURL = signatureURL
		t.SignedBy = signedBy
		t.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return ticket, nil
}

func (s *TicketService) CompleteTicket(ctx context.Context, principal model.Principal, ticketID string) (*model.Ticket, error) {
	ticket, err := s.ticketRepo.Mutate(ctx, ticketID, func(t *model.Ticket) error {
		if err := s.requireDriverOrOffice(principal, t); err != nil {
			return err
		}
		if t.Status == model.TicketStatusCompleted {
			return nil
		}
		if !validTransition(OpCompleteTicket, t.TicketType, t.Status) {
			return invalidTransition(OpCompleteTicket, t)
		}
		now := time.Now().UTC()
		t.Status = model.TicketStatusCompleted
		t.CompletedAt = &now
		t.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return ticket, nil
}

// CompletePickup merges arrival and completion into one driver action since
// pickups are signed off curbside in a single step.
func (s *TicketService) CompletePickup(ctx context.Context, principal model.Principal, ticketID string, gps *model.GPSLocation, notes string) (*model.Ticket, error) {
	ticket, err := s.ticketRepo.Mutate(ctx, ticketID, func(t *model.Ticket) error {
		if err := s.requireDriverOrOffice(principal, t); err != nil {
			return err
		}
		if t.Status == model.TicketStatusCompleted {
			return nil
		}
		if !validTransition(OpCompletePickup, t.TicketType, t.Status) {
			return invalidTransition(OpCompletePickup, t)
		}
		now := time.Now().UTC()
		if t.ArrivedAt == nil {
			t.ArrivedAt = &now
		}
		t.Status = model.TicketStatusCompleted
		t.CompletedAt = &now
		if gps != nil {
			t.CompletedGPS = gps
		}
		if notes != "" {
			t.DeliveryNotes = notes
		}
		t.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}

	_, err = s.ledger.UpdateJobFromTicket(ctx, ticket.JobID, LedgerUpdate{
		TicketID:   ticket.ID,
		TicketType: model.TicketTypePickup,
		PhotoIDs:   ticket.PhotoIDs,
		BillingID:  ticket.BillingID,
	})
	if err != nil {
		s.log.Error().Err(err).Str("ticket_id", ticket.ID).Str("job_id", ticket.JobID).
			Msg("ledger update failed after pickup completion")
		return nil, err
	}
	return ticket, nil
}

type ProcessReturnInput struct {
	TicketID          string
	ReturnedMaterials []model.MaterialItem
	Condition         string
	GPS               *model.GPSLocation
}

// ProcessReturn is the return-specific terminal transition. Returned
// quantities above the originating ticket's paperwork are flagged for manual
// review rather than rejected: physical counts can legitimately disagree.
func (s *TicketService) ProcessReturn(ctx context.Context, principal model.Principal, input ProcessReturnInput) (*model.Ticket, error) {
	if len(input.ReturnedMaterials) == 0 {
		return nil, fmt.Errorf("%w: returned materials are required", ErrValidation)
	}

	// The originating ticket's quantities are loaded up front: the store runs
	// one read-modify-write cycle at a time, so no lookups inside Mutate.
	current, err := s.ticketRepo.GetByID(ctx, input.TicketID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	originalQty := s.originalQuantities(ctx, current)

	ticket, err := s.ticketRepo.Mutate(ctx, input.TicketID, func(t *model.Ticket) error {
		if err := s.requireDriverOrOffice(principal, t); err != nil {
			return err
		}
		if t.Status == model.TicketStatusCompleted {
			return nil
		}
		if !validTransition(OpProcessReturn, t.TicketType, t.Status) {
			return invalidTransition(OpProcessReturn, t)
		}

		now := time.Now().UTC()
		if t.ArrivedAt == nil {
			t.ArrivedAt = &now
		}
		t.Status = model.TicketStatusCompleted
		t.CompletedAt = &now
		t.ReturnedMaterials = input.ReturnedMaterials
		t.ReturnCondition = input.Condition
		if input.GPS != nil {
			t.CompletedGPS = input.GPS
		}

		if reason := overQuantityReason(originalQty, input.ReturnedMaterials); reason != "" {
			t.FlaggedForReview = true
			t.FlagReason = reason
		}
		t.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}

	_, err = s.ledger.UpdateJobFromTicket(ctx, ticket.JobID, LedgerUpdate{
		TicketID:       ticket.ID,
		TicketType:     model.TicketTypeReturn,
		MaterialCharge: model.TotalCharge(ticket.ReturnedMaterials),
		PhotoIDs:       ticket.PhotoIDs,
		BillingID:      ticket.BillingID,
	})
	if err != nil {
		s.log.Error().Err(err).Str("ticket_id", ticket.ID).Str("job_id", ticket.JobID).
			Msg("ledger update failed after return processing")
		return nil, err
	}
	return ticket, nil
}

// originalQuantities maps product id to quantity on the originating ticket.
// A lookup error or missing original means no check; it never fails the
// transition.
func (s *TicketService) originalQuantities(ctx context.Context, t *model.Ticket) map[string]float64 {
	if t.RelatedTicketID == "" {
		return nil
	}
	original, err := s.ticketRepo.GetByID(ctx, t.RelatedTicketID)
	if err != nil {
		s.log.Warn().Err(err).Str("ticket_id", t.ID).Str("related_ticket_id", t.RelatedTicketID).
			Msg("could not load originating ticket for return quantity check")
		return nil
	}

	qty := make(map[string]float64, len(original.Materials))
	for _, item := range original.Materials {
		qty[item.ProductID] += item.Quantity
	}
	return qty
}

func overQuantityReason(originalQty map[string]float64, returned []model.MaterialItem) string {
	if originalQty == nil {
		return ""
	}
	for _, item := range returned {
		if item.Quantity > originalQty[item.ProductID] {
			return fmt.Sprintf("returned qty %s of %s exceeds original %s",
				trimFloat(item.Quantity), item.ProductID, trimFloat(originalQty[item.ProductID]))
		}
	}
	return ""
}

func trimFloat(f float64) string {
	return fmt.Sprintf("%g", f)
}

func (s *TicketService) CancelTicket(ctx context.Context, principal model.Principal, ticketID, reason string) (*model.Ticket, error) {
	if !principal.CanManageTickets() {
		return nil, ErrPermissionDenied
	}

	ticket, err := s.ticketRepo.Mutate(ctx, ticketID, func(t *model.Ticket) error {
		if t.Status == model.TicketStatusCancelled {
			return nil
		}
		if !validTransition(OpCancelTicket, t.TicketType, t.Status) {
			return invalidTransition(OpCancelTicket, t)
		}
		now := time.Now().UTC()
		t.Status = model.TicketStatusCancelled
		t.CancelledAt = &now
		t.CancelReason = reason
		t.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return ticket, nil
}

type StockAdjustmentInput struct {
	ProductID   string
	ProductName string
	PreviousQty float64
	NewQty      float64
	Reason      string
	TicketID    string
}

// CreateStockAdjustment records a manual count correction. It is independent
// of any ticket's state and purely additive.
func (s *TicketService) CreateStockAdjustment(ctx context.Context, principal model.Principal, input StockAdjustmentInput) (*model.StockAdjustment, error) {
	if !principal.CanPullMaterials() && !principal.CanManageTickets() {
		return nil, ErrPermissionDenied
	}
	if input.ProductID == "" {
		return nil, fmt.Errorf("%w: product_id is required", ErrValidation)
	}
	if input.Reason == "" {
		return nil, fmt.Errorf("%w: reason is required", ErrValidation)
	}

	adj := &model.StockAdjustment{
		ID:          model.NewAdjustmentID(),
		ProductID:   input.ProductID,
		ProductName: input.ProductName,
		PreviousQty: input.PreviousQty,
		NewQty:      input.NewQty,
		Reason:      input.Reason,
		AdjustedBy:  principal.Name,
		TicketID:    input.TicketID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.adjustmentRepo.Create(ctx, adj); err != nil {
		return nil, err
	}
	return adj, nil
}

func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*model.Ticket, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return ticket, nil
}

func (s *TicketService) ListTickets(ctx context.Context, filter repository.TicketListFilter) ([]model.Ticket, error) {
	return s.ticketRepo.List(ctx, filter)
}

// requireDriverOrOffice gates driver-executed transitions: the assigned
// driver, or any office/PM/admin acting on their behalf.
func (s *TicketService) requireDriverOrOffice(principal model.Principal, t *model.Ticket) error {
	if principal.CanManageTickets() {
		return nil
	}
	if principal.IsDriver() && principal.UserID == t.DriverID {
		return nil
	}
	if principal.IsWarehouse() && t.Status == model.TicketStatusMaterialsPulled {
		// Warehouse staff verify loads they pulled.
		return nil
	}
	return ErrPermissionDenied
}
