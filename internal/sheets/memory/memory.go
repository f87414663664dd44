// Package memory is an in-process spreadsheet used for local runs and tests.
package memory

import (
	"context"
	"sync"

	"billing/internal/sheets"
)

var _ sheets.Mirror = (*Store)(nil)

type Store struct {
	mu     sync.Mutex
	tabs   map[string][][]string
	writes map[string]int
}

func New() *Store {
	return &Store{tabs: map[string][][]string{}, writes: map[string]int{}}
}

// ReplaceTable stores a copy of header and rows under tab.
func (s *Store) ReplaceTable(_ context.Context, tab string, header []string, rows [][]string) error {
	table := make([][]string, 0, len(rows)+1)
	table = append(table, append([]string(nil), header...))
	for _, r := range rows {
		table = append(table, append([]string(nil), r...))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabs[tab] = table
	s.writes[tab]++
	return nil
}

// ReadTable returns a copy of tab, or nil if it was never written.
func (s *Store) ReadTable(_ context.Context, tab string) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.tabs[tab]
	if src == nil {
		return nil, nil
	}
	out := make([][]string, len(src))
	for i, r := range src {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

// Writes reports how many times tab was replaced.
func (s *Store) Writes(tab string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes[tab]
}
