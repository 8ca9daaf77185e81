package model

import (
	"time"

	"github.com/google/uuid"
)

type SyncAction string

const (
	SyncActionCreate SyncAction = "create"
	SyncActionUpdate SyncAction = "update"
)

// SyncLogEntry records one CRM push attempt, success or failure, so a batch
// re-run can pick up failed jobs without caller intervention.
type SyncLogEntry struct {
	ID          string     `json:"sync_log_id"`
	JobID       string     `json:"job_id"`
	Action      SyncAction `json:"action"`
	Success     bool       `json:"success"`
	JobNimbusID string     `json:"jobnimbus_id,omitempty"`
	Error       string     `json:"error,omitempty"`
	AttemptedAt time.Time  `json:"attempted_at"`
}

func NewSyncLogID() string {
	return "SYNC-" + uuid.NewString()
}
