package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"dispatch-service/internal/client"
	"dispatch-service/internal/model"
	"dispatch-service/internal/repository"
	"dispatch-service/internal/rowstore"
)

type fakeCRM struct {
	createErr error
	updateErr error
	created   []client.JobNimbusContact
	updated   map[string]client.JobNimbusContact
	nextID    string
}

func newFakeCRM() *fakeCRM {
	return &fakeCRM{updated: make(map[string]client.JobNimbusContact), nextID: "jn-1"}
}

func (f *fakeCRM) CreateContact(ctx context.Context, contact client.JobNimbusContact) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, contact)
	return f.nextID, nil
}

func (f *fakeCRM) UpdateContact(ctx context.Context, jnid string, contact client.JobNimbusContact) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated[jnid] = contact
	return nil
}

type syncHarness struct {
	store *rowstore.Memory
	jobs  *repository.JobRepository
	crm   *fakeCRM
	sync  *SyncService
}

func newSyncHarness(t *testing.T) *syncHarness {
	t.Helper()
	store := rowstore.NewMemory()
	require.NoError(t, store.EnsureTables(context.Background()))

	jobRepo := repository.NewJobRepository(store)
	logRepo := repository.NewSyncLogRepository(store)
	crm := newFakeCRM()
	return &syncHarness{
		store: store,
		jobs:  jobRepo,
		crm:   crm,
		sync:  NewSyncService(jobRepo, logRepo, crm, time.Millisecond, zerolog.Nop()),
	}
}

func (h *syncHarness) seedJob(t *testing.T, job model.Job) {
	t.Helper()
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	if job.UpdatedAt.IsZero() {
		job.UpdatedAt = now
	}
	if job.Status == "" {
		job.Status = model.JobStatusActive
	}
	require.NoError(t, h.jobs.Create(context.Background(), &job))
}

func (h *syncHarness) auditRows(t *testing.T) []rowstore.Row {
	t.Helper()
	rows, err := h.store.Rows(context.Background(), rowstore.TableSyncLog)
	require.NoError(t, err)
	return rows
}

func TestSyncJobCreatesContact(t *testing.T) {
	h := newSyncHarness(t)
	ctx := context.Background()

	h.seedJob(t, model.Job{ID: "JOB-300", JobName: "Oak Ave build", TotalDeliveries: 2})

	result, err := h.sync.SyncJob(ctx, "JOB-300")
	require.NoError(t, err)
	require.True(t, result.Synced)
	require.Equal(t, model.SyncActionCreate, result.Action)
	require.Equal(t, "jn-1", result.JobNimbusID)
	require.Len(t, h.crm.created, 1)
	require.Equal(t, "Oak Ave build", h.crm.created[0].DisplayName)

	job, err := h.jobs.GetByID(ctx, "JOB-300")
	require.NoError(t, err)
	require.Equal(t, "jn-1", job.JobNimbusID)
	require.True(t, job.SyncedToJobNimbus)
	require.NotNil(t, job.LastJobNimbusSync)
}

func TestSyncJobUpdatesExistingContact(t *testing.T) {
	h := newSyncHarness(t)
	ctx := context.Background()

	h.seedJob(t, model.Job{ID: "JOB-301", JobNimbusID: "jn-77"})

	result, err := h.sync.SyncJob(ctx, "JOB-301")
	require.NoError(t, err)
	require.True(t, result.Synced)
	require.Equal(t, model.SyncActionUpdate, result.Action)
	require.Contains(t, h.crm.updated, "jn-77")
	require.Empty(t, h.crm.created)
}

func TestSyncJobFailureIsNonThrowing(t *testing.T) {
	h := newSyncHarness(t)
	ctx := context.Background()

	h.seedJob(t, model.Job{ID: "JOB-302"})
	h.crm.createErr = &client.CRMError{StatusCode: 503, Body: "maintenance"}

	result, err := h.sync.SyncJob(ctx, "JOB-302")
	require.NoError(t, err)
	require.False(t, result.Synced)
	require.Equal(t, SyncReasonRemote5xx, result.Reason)
	require.NotEmpty(t, result.Message)

	// Failure leaves the job untouched but still leaves an audit row.
	job, err := h.jobs.GetByID(ctx, "JOB-302")
	require.NoError(t, err)
	require.False(t, job.SyncedToJobNimbus)
	require.Empty(t, job.JobNimbusID)
	require.Len(t, h.auditRows(t), 1)
	require.Equal(t, "false", h.auditRows(t)[0]["success"])
}

func TestSyncErrorClassification(t *testing.T) {
	reason, _ := classifySyncError(&client.CRMError{StatusCode: 401})
	require.Equal(t, SyncReasonAuth, reason)

	reason, _ = classifySyncError(&client.CRMError{StatusCode: 403})
	require.Equal(t, SyncReasonAuth, reason)

	reason, _ = classifySyncError(&client.CRMError{StatusCode: 422})
	require.Equal(t, SyncReasonRemote4xx, reason)

	reason, _ = classifySyncError(&client.CRMError{StatusCode: 500})
	require.Equal(t, SyncReasonRemote5xx, reason)

	reason, _ = classifySyncError(errors.New("dial tcp: connection refused"))
	require.Equal(t, SyncReasonNetwork, reason)
}

func TestSyncAllPendingSkipsSyncedJobs(t *testing.T) {
	h := newSyncHarness(t)
	ctx := context.Background()

	stale := time.Now().UTC().Add(-time.Hour)
	fresh := time.Now().UTC()

	h.seedJob(t, model.Job{ID: "JOB-310"})
	h.seedJob(t, model.Job{
		ID: "JOB-311", JobNimbusID: "jn-1", SyncedToJobNimbus: true,
		LastJobNimbusSync: &fresh, UpdatedAt: stale,
	})
	h.seedJob(t, model.Job{
		ID: "JOB-312", JobNimbusID: "jn-2", SyncedToJobNimbus: true,
		LastJobNimbusSync: &stale, UpdatedAt: fresh,
	})

	results, err := h.sync.SyncAllPending(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)

	ids := []string{results[0].JobID, results[1].JobID}
	require.Contains(t, ids, "JOB-310")
	require.Contains(t, ids, "JOB-312")
	require.NotContains(t, ids, "JOB-311")
}

func TestSyncAllPendingContinuesPastFailures(t *testing.T) {
	h := newSyncHarness(t)
	ctx := context.Background()

	h.seedJob(t, model.Job{ID: "JOB-320"})
	h.seedJob(t, model.Job{ID: "JOB-321"})
	h.crm.createErr = &client.CRMError{StatusCode: 500}

	results, err := h.sync.SyncAllPending(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		require.False(t, r.Synced)
	}
	require.Len(t, h.auditRows(t), 2)
}

// jobWriteFailStore fails every job-row write while passing everything else
// through, standing in for a flaky spreadsheet backend.
type jobWriteFailStore struct {
	*rowstore.Memory
}

func (s *jobWriteFailStore) Update(ctx context.Context, table, keyColumn, keyValue string, mutate func(rowstore.Row) (rowstore.Row, error)) error {
	if table == rowstore.TableJobs {
		return rowstore.ErrUnavailable
	}
	return s.Memory.Update(ctx, table, keyColumn, keyValue, mutate)
}

func TestSyncJobSurfacesRemoteIDWhenWatermarkWriteFails(t *testing.T) {
	ctx := context.Background()
	store := rowstore.NewMemory()
	require.NoError(t, store.EnsureTables(ctx))

	jobRepo := repository.NewJobRepository(&jobWriteFailStore{Memory: store})
	logRepo := repository.NewSyncLogRepository(store)
	crm := newFakeCRM()
	svc := NewSyncService(jobRepo, logRepo, crm, time.Millisecond, zerolog.Nop())

	now := time.Now().UTC()
	require.NoError(t, jobRepo.Create(ctx, &model.Job{
		ID: "JOB-340", Status: model.JobStatusActive, CreatedAt: now, UpdatedAt: now,
	}))

	result, err := svc.SyncJob(ctx, "JOB-340")
	require.ErrorIs(t, err, rowstore.ErrUnavailable)

	// The contact was created remotely; the result must carry its id so the
	// caller can re-link instead of duplicating it on retry.
	require.True(t, result.Synced)
	require.Equal(t, "jn-1", result.JobNimbusID)
	require.Len(t, crm.created, 1)
}

func TestSyncWatermarkKeepsJobOutOfPendingSet(t *testing.T) {
	h := newSyncHarness(t)
	ctx := context.Background()

	h.seedJob(t, model.Job{ID: "JOB-330"})

	_, err := h.sync.SyncJob(ctx, "JOB-330")
	require.NoError(t, err)

	job, err := h.jobs.GetByID(ctx, "JOB-330")
	require.NoError(t, err)
	require.False(t, syncPending(job))
}
