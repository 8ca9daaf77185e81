// Package rowstore is the adapter over the remote spreadsheet document that
// acts as system of record. The service offers flat text rows under a fixed
// header row, with no locking and no multi-row transactions; every caller
// shares the same read-modify-write granularity.
package rowstore

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// ErrRowNotFound reports that no row matched the requested key.
	ErrRowNotFound = errors.New("row not found")
	// ErrUnavailable wraps any transport or remote-service failure so callers
	// can distinguish retryable upstream faults from domain errors.
	ErrUnavailable = errors.New("row store unavailable")
)

// Row is one table row keyed by header column name. All values are text;
// typed encoding is the repository layer's concern.
type Row map[string]string

func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Store is the narrow surface every component persists through. Update is
// find-and-mutate: the first row whose keyColumn equals keyValue is passed to
// mutate and written back whole. A mutate error aborts without writing.
type Store interface {
	EnsureTables(ctx context.Context) error
	Rows(ctx context.Context, table string) ([]Row, error)
	Append(ctx context.Context, table string, row Row) error
	Update(ctx context.Context, table, keyColumn, keyValue string, mutate func(Row) (Row, error)) error
}
