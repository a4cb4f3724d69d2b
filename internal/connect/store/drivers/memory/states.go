package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aussiebroadwan/bartab-connect/internal/connect/domain"
	"github.com/aussiebroadwan/bartab-connect/internal/connect/store"
)

// sweepEvery bounds how many inserts may pass between lazy sweeps.
const sweepEvery = 64

// States is a process-local store.States. Pending authorizations are lost on
// restart and are invisible to other replicas.
type States struct {
	mu      sync.Mutex
	entries map[string]domain.PendingAuthorization
	puts    int
}

func NewStates() *States {
	return &States{entries: make(map[string]domain.PendingAuthorization)}
}

func (s *States) PutState(_ context.Context, p domain.PendingAuthorization, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.puts++; s.puts%sweepEvery == 0 {
		s.sweepLocked(now)
	}

	if existing, ok := s.entries[p.State]; ok && !existing.ExpiredAt(now) {
		return store.ErrAlreadyExists
	}
	s.entries[p.State] = p
	return nil
}

func (s *States) TakeState(_ context.Context, state string, now time.Time) (domain.PendingAuthorization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.entries[state]
	if !ok {
		return domain.PendingAuthorization{}, store.ErrNotFound
	}
	delete(s.entries, state)

	if p.ExpiredAt(now) {
		return domain.PendingAuthorization{}, store.ErrExpired
	}
	return p, nil
}

func (s *States) DeleteExpiredStates(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(now), nil
}

func (s *States) sweepLocked(now time.Time) int {
	n := 0
	for k, p := range s.entries {
		if p.ExpiredAt(now) {
			delete(s.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of entries, expired or not.
func (s *States) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *States) Ping(context.Context) error { return nil }
func (s *States) Close() error               { return nil }

var _ store.States = (*States)(nil)
