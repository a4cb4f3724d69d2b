package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/bartab-connect/internal/connect/store"
)

// HousekeepingService periodically purges abandoned pending authorizations
// so the state store does not grow without bound.
type HousekeepingService struct {
	States   store.States
	Logger   *slog.Logger
	Interval time.Duration

	// Now defaults to time.Now.
	Now func() time.Time

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 minute.
func NewHousekeepingService(states store.States, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Minute
	}

	return &HousekeepingService{
		States:   states,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. It is non-blocking; call Stop to
// shut the worker down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until an in-progress sweep has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.Sweep(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Sweep deletes expired states once and returns how many were removed.
func (s *HousekeepingService) Sweep(ctx context.Context) int {
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}

	n, err := s.States.DeleteExpiredStates(ctx, now)
	if err != nil {
		s.Logger.Error("failed to delete expired states", "error", err)
		return 0
	}
	if n > 0 {
		s.Logger.Info("deleted expired states", "count", n)
	} else {
		s.Logger.Debug("no expired states")
	}
	return n
}
