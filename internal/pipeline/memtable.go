package pipeline

import (
	"context"
	"sync"

	"github.com/tenkilab/tenki-etl/internal/domain"
)

// MemoryTable is an in-memory TableWriter. Fixture generation and tests
// use it in place of the SQLite sink.
type MemoryTable struct {
	mu   sync.Mutex
	rows []domain.Observation
}

func (m *MemoryTable) WriteTable(_ context.Context, observations []domain.Observation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, observations...)
	return nil
}

// Rows returns a copy of everything written so far.
func (m *MemoryTable) Rows() []domain.Observation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Observation, len(m.rows))
	copy(out, m.rows)
	return out
}
