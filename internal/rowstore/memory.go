package rowstore

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// Memory is an in-process Store used by tests and local development. It
// mirrors the remote service's semantics, including last-writer-wins rows.
type Memory struct {
	mu     sync.Mutex
	tables map[string][]Row
}

func NewMemory() *Memory {
	return &Memory{tables: make(map[string][]Row)}
}

func (m *Memory) EnsureTables(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, table := range Tables() {
		if _, ok := m.tables[table]; !ok {
			m.tables[table] = nil
		}
	}
	return nil
}

func (m *Memory) Rows(ctx context.Context, table string) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.tables[table]
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Clone())
	}
	return out, nil
}

func (m *Memory) Append(ctx context.Context, table string, row Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[table] = append(m.tables[table], row.Clone())
	return nil
}

func (m *Memory) Update(ctx context.Context, table, keyColumn, keyValue string, mutate func(Row) (Row, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, row := range m.tables[table] {
		if row[keyColumn] != keyValue {
			continue
		}
		updated, err := mutate(row.Clone())
		if err != nil {
			return err
		}
		m.tables[table][i] = updated
		return nil
	}
	return errors.Wrapf(ErrRowNotFound, "%s %s=%s", table, keyColumn, keyValue)
}
