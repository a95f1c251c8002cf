package memory

import (
	"context"
	"fmt"
	"sync"

	"budgetly/internal/core"
	ports "budgetly/internal/sheets"
)

// Mirror is an in-process TransactionMirror keeping rendered rows per kind.
type Mirror struct {
	mu   sync.Mutex
	rows map[core.Kind][][]any
}

var _ ports.TransactionMirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{rows: make(map[core.Kind][][]any)}
}

// Append stores the rendered row and returns a synthetic row reference.
func (m *Mirror) Append(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[t.Kind] = append(m.rows[t.Kind], ports.Row(t))
	return fmt.Sprintf("mem:%s:%d", t.Kind, len(m.rows[t.Kind])), nil
}

// Rows returns a copy of the rows appended for kind.
func (m *Mirror) Rows(kind core.Kind) [][]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]any(nil), m.rows[kind]...)
}
