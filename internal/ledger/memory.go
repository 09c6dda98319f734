package ledger

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store used in tests and dry-run comparisons.
type MemoryStore struct {
	mu   sync.Mutex
	tabs map[string]map[int][]string // tab -> row -> cells (0-indexed slice, col 1 at index 0)
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{tabs: make(map[string]map[int][]string)}
}

func (s *MemoryStore) EnsureTab(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tabs[name]; !ok {
		s.tabs[name] = make(map[int][]string)
	}
	return nil
}

func (s *MemoryStore) ReadColumn(_ context.Context, tab string, rowStart, rowEnd, col int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, rowEnd-rowStart+1)
	rows, ok := s.tabs[tab]
	if !ok {
		return out, nil
	}
	for r := rowStart; r <= rowEnd; r++ {
		cells := rows[r]
		if col-1 < len(cells) {
			out[r-rowStart] = cells[col-1]
		}
	}
	return out, nil
}

func (s *MemoryStore) WriteRow(ctx context.Context, tab string, row int, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tabs[tab]; !ok {
		s.tabs[tab] = make(map[int][]string)
	}
	s.tabs[tab][row] = append([]string(nil), values...)
	return nil
}

func (s *MemoryStore) AppendRow(ctx context.Context, tab string, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tabs[tab]; !ok {
		s.tabs[tab] = make(map[int][]string)
	}
	next := 1
	for r := range s.tabs[tab] {
		if r >= next {
			next = r + 1
		}
	}
	s.tabs[tab][next] = append([]string(nil), values...)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// Row returns a copy of one row's cells, or nil if absent. Test helper.
func (s *MemoryStore) Row(tab string, row int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tabs[tab]
	if !ok {
		return nil
	}
	cells, ok := rows[row]
	if !ok {
		return nil
	}
	return append([]string(nil), cells...)
}

// RowCount returns the number of populated rows in a tab. Test helper.
func (s *MemoryStore) RowCount(tab string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tabs[tab])
}
