package repository

import (
	"context"

	"dispatch-service/internal/model"
	"dispatch-service/internal/rowstore"
)

// SyncLogRepository is append-only; every CRM push attempt gets a row.
type SyncLogRepository struct {
	store rowstore.Store
}

func NewSyncLogRepository(store rowstore.Store) *SyncLogRepository {
	return &SyncLogRepository{store: store}
}

func (r *SyncLogRepository) Create(ctx context.Context, entry *model.SyncLogEntry) error {
	return r.store.Append(ctx, rowstore.TableSyncLog, rowstore.Row{
		"sync_log_id":  entry.ID,
		"job_id":       entry.JobID,
		"action":       string(entry.Action),
		"success":      formatBool(entry.Success),
		"jobnimbus_id": entry.JobNimbusID,
		"error":        entry.Error,
		"attempted_at": formatTime(entry.AttemptedAt),
	})
}
