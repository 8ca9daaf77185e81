package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"dispatch-service/internal/client"
	"dispatch-service/internal/model"
	"dispatch-service/internal/repository"
)

// CRMClient is the JobNimbus surface the sync adapter needs.
type CRMClient interface {
	CreateContact(ctx context.Context, contact client.JobNimbusContact) (string, error)
	UpdateContact(ctx context.Context, jnid string, contact client.JobNimbusContact) error
}

type SyncReason string

const (
	SyncReasonNetwork   SyncReason = "network"
	SyncReasonAuth      SyncReason = "auth"
	SyncReasonRemote4xx SyncReason = "remote_4xx"
	SyncReasonRemote5xx SyncReason = "remote_5xx"
)

// SyncResult describes one push attempt. Failures are data, not errors: the
// caller decides whether to retry, and the batch driver keeps going.
type SyncResult struct {
	JobID       string           `json:"job_id"`
	Action      model.SyncAction `json:"action"`
	Synced      bool             `json:"synced"`
	JobNimbusID string           `json:"jobnimbus_id,omitempty"`
	Reason      SyncReason       `json:"reason,omitempty"`
	Message     string           `json:"message,omitempty"`
}

type SyncService struct {
	jobRepo *repository.JobRepository
	logRepo *repository.SyncLogRepository
	crm     CRMClient
	delay   time.Duration
	log     zerolog.Logger
}

func NewSyncService(
	jobRepo *repository.JobRepository,
	logRepo *repository.SyncLogRepository,
	crm CRMClient,
	delay time.Duration,
	log zerolog.Logger,
) *SyncService {
	if delay <= 0 {
		delay = time.Second
	}
	return &SyncService{
		jobRepo: jobRepo,
		logRepo: logRepo,
		crm:     crm,
		delay:   delay,
		log:     log,
	}
}

// SyncJob pushes one job snapshot to JobNimbus. A remote failure produces a
// non-throwing result and no local mutation; success stores the remote id and
// the sync watermark.
func (s *SyncService) SyncJob(ctx context.Context, jobID string) (SyncResult, error) {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return SyncResult{}, mapRepoErr(err)
	}

	contact := contactFromJob(job)
	action := model.SyncActionUpdate
	if job.JobNimbusID == "" {
		action = model.SyncActionCreate
	}

	result := SyncResult{JobID: jobID, Action: action, JobNimbusID: job.JobNimbusID}

	var syncErr error
	if action == model.SyncActionCreate {
		var jnid string
		jnid, syncErr = s.crm.CreateContact(ctx, contact)
		if syncErr == nil {
			result.JobNimbusID = jnid
		}
	} else {
		syncErr = s.crm.UpdateContact(ctx, job.JobNimbusID, contact)
	}

	if syncErr != nil {
		result.Reason, result.Message = classifySyncError(syncErr)
	} else {
		result.Synced = true
	}

	s.appendAudit(ctx, result)

	if !result.Synced {
		return result, nil
	}

	now := time.Now().UTC()
	_, err = s.jobRepo.Mutate(ctx, jobID, func(j *model.Job) error {
		j.JobNimbusID = result.JobNimbusID
		j.SyncedToJobNimbus = true
		j.LastJobNimbusSync = &now
		// UpdatedAt stays put: it marks ledger changes, and bumping it here
		// would keep the job permanently pending.
		return nil
	})
	if err != nil {
		// The remote contact exists but the watermark write failed. Return
		// the result alongside the error so the caller can re-link the
		// surfaced jnid instead of creating a duplicate contact on retry.
		s.log.Error().Err(err).Str("job_id", jobID).Str("jobnimbus_id", result.JobNimbusID).
			Msg("could not store sync watermark")
		return result, mapRepoErr(err)
	}
	return result, nil
}

// SyncAllPending pushes every job whose rollup changed since its last sync,
// pacing calls to respect the CRM's rate limit. One job's failure never
// blocks the rest.
func (s *SyncService) SyncAllPending(ctx context.Context) ([]SyncResult, error) {
	jobs, err := s.jobRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	var results []SyncResult
	first := true
	for _, job := range jobs {
		if !syncPending(&job) {
			continue
		}
		if !first {
			select {
			case <-ctx.Done():
				return results, ctx.Err()
			case <-time.After(s.delay):
			}
		}
		first = false

		result, err := s.SyncJob(ctx, job.ID)
		if err != nil {
			// The job listed a moment ago; treat a lookup race as a skip.
			s.log.Warn().Err(err).Str("job_id", job.ID).Msg("sync skipped")
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

func syncPending(j *model.Job) bool {
	if !j.SyncedToJobNimbus || j.LastJobNimbusSync == nil {
		return true
	}
	return j.UpdatedAt.After(*j.LastJobNimbusSync)
}

func (s *SyncService) appendAudit(ctx context.Context, result SyncResult) {
	entry := &model.SyncLogEntry{
		ID:          model.NewSyncLogID(),
		JobID:       result.JobID,
		Action:      result.Action,
		Success:     result.Synced,
		JobNimbusID: result.JobNimbusID,
		Error:       result.Message,
		AttemptedAt: time.Now().UTC(),
	}
	if err := s.logRepo.Create(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("job_id", result.JobID).Msg("could not append sync audit log")
	}
}

func classifySyncError(err error) (SyncReason, string) {
	var crmErr *client.CRMError
	if errors.As(err, &crmErr) {
		switch {
		case crmErr.StatusCode == 401 || crmErr.StatusCode == 403:
			return SyncReasonAuth, err.Error()
		case crmErr.StatusCode < 500:
			return SyncReasonRemote4xx, err.Error()
		default:
			return SyncReasonRemote5xx, err.Error()
		}
	}
	return SyncReasonNetwork, err.Error()
}

func contactFromJob(j *model.Job) client.JobNimbusContact {
	name := j.JobName
	if name == "" {
		name = j.CustomerName
	}
	if name == "" {
		name = j.ID
	}
	return client.JobNimbusContact{
		DisplayName:    name,
		RecordTypeName: "Job",
		StatusName:     string(j.Status),
		AddressLine1:   j.JobAddress,
		City:           j.City,
		StateText:      j.State,
		Zip:            j.Zip,
		Description: fmt.Sprintf(
			"Deliveries: %d, Pickups: %d, Returns: %d, Charged: %.2f, Cost: %.2f, Profit: %.2f",
			j.TotalDeliveries, j.TotalPickups, j.TotalReturns,
			j.TotalMaterialCharged, j.TotalMaterialCost, j.MaterialProfit,
		),
	}
}
