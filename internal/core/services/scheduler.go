package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/statesync/internal/core/ports/driving"
	"github.com/custodia-labs/statesync/internal/logger"
)

// ReconnectScheduler retries a dropped remote connection in the background.
// It is a pure core service with no external control API.
type ReconnectScheduler struct {
	interval time.Duration
	svc      driving.SyncService

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	runs    int
}

// NewReconnectScheduler creates a scheduler that calls svc.Reconnect every
// interval. A non-positive interval makes Start return immediately.
func NewReconnectScheduler(interval time.Duration, svc driving.SyncService) *ReconnectScheduler {
	return &ReconnectScheduler{
		interval: interval,
		svc:      svc,
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or ctx is cancelled.
func (s *ReconnectScheduler) Start(ctx context.Context) error {
	if s.interval <= 0 || s.svc == nil {
		return nil
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	return s.run(ctx, stopCh)
}

// Stop gracefully shuts down the scheduler and waits for a running attempt.
func (s *ReconnectScheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// Runs returns how many reconnect attempts were made.
func (s *ReconnectScheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

func (s *ReconnectScheduler) run(ctx context.Context, stopCh <-chan struct{}) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.attempt(ctx)
		}
	}
}

func (s *ReconnectScheduler) attempt(ctx context.Context) {
	s.mu.Lock()
	s.runs++
	s.mu.Unlock()

	if err := s.svc.Reconnect(ctx); err != nil {
		logger.Debug("reconnect: %v", err)
	}
}
