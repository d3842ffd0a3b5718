package memory

import (
	"context"
	"fmt"
	"sync"

	ports "trackr/internal/sheets"
)

// Store is an in-process ledger used when no spreadsheet is configured
// and as a fake in worker tests.
type Store struct {
	mu   sync.Mutex
	rows []ports.LedgerRow
}

func New() *Store {
	return &Store{}
}

// Append stores the row and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, row ports.LedgerRow) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []ports.LedgerRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.LedgerRow(nil), s.rows...)
}
