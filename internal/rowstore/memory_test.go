package rowstore

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestMemoryAppendAndRows(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.EnsureTables(ctx))

	require.NoError(t, m.Append(ctx, TableJobs, Row{"job_id": "JOB-1", "status": "active"}))
	require.NoError(t, m.Append(ctx, TableJobs, Row{"job_id": "JOB-2", "status": "active"}))

	rows, err := m.Rows(ctx, TableJobs)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "JOB-1", rows[0]["job_id"])

	// Returned rows are copies; mutating one must not touch the store.
	rows[0]["status"] = "complete"
	rows, err = m.Rows(ctx, TableJobs)
	require.NoError(t, err)
	require.Equal(t, "active", rows[0]["status"])
}

func TestMemoryUpdate(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Append(ctx, TableJobs, Row{"job_id": "JOB-1", "status": "active"}))

	err := m.Update(ctx, TableJobs, "job_id", "JOB-1", func(row Row) (Row, error) {
		row["status"] = "complete"
		return row, nil
	})
	require.NoError(t, err)

	rows, err := m.Rows(ctx, TableJobs)
	require.NoError(t, err)
	require.Equal(t, "complete", rows[0]["status"])
}

func TestMemoryUpdateMutateErrorAbortsWrite(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Append(ctx, TableJobs, Row{"job_id": "JOB-1", "status": "active"}))

	boom := errors.New("guard failed")
	err := m.Update(ctx, TableJobs, "job_id", "JOB-1", func(row Row) (Row, error) {
		row["status"] = "complete"
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	rows, err := m.Rows(ctx, TableJobs)
	require.NoError(t, err)
	require.Equal(t, "active", rows[0]["status"])
}

func TestMemoryUpdateMissingRow(t *testing.T) {
	m := NewMemory()
	err := m.Update(context.Background(), TableJobs, "job_id", "JOB-404", func(row Row) (Row, error) {
		return row, nil
	})
	require.ErrorIs(t, err, ErrRowNotFound)
}

func TestSchemaCoversAllTables(t *testing.T) {
	for _, table := range Tables() {
		require.NotEmpty(t, Headers(table), table)
	}
}
