// Package memory provides an in-memory LocalStore for tests.
package memory

import (
	"context"
	"sync"

	"github.com/thaithanh/rentledger/billing"
)

// Store keeps the snapshot in memory. Implements cloudsync.LocalStore.
type Store struct {
	mu    sync.Mutex
	state *billing.AppState
	saves int
}

func New() *Store {
	return &Store{}
}

func (s *Store) Save(_ context.Context, state billing.AppState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := state.Clone()
	s.state = &cp
	s.saves++
	return nil
}

func (s *Store) Load(_ context.Context) (*billing.AppState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, nil
	}
	cp := s.state.Clone()
	return &cp, nil
}

// SaveCount returns how many snapshots were written.
func (s *Store) SaveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
