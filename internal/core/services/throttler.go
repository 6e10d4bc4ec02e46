package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/statesync/internal/core/domain"
	"github.com/custodia-labs/statesync/internal/logger"
)

// ChangeThrottler coalesces bursts of local mutations into one delayed push.
// Each eligible mutation cancels and reschedules a single timer, so only the
// latest state is ever pushed.
type ChangeThrottler struct {
	window time.Duration
	policy domain.PushEligibility
	ready  func() bool
	push   func(ctx context.Context) error

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	stopped bool

	// inflight tracks pushes started by the timer so Stop can wait for them.
	inflight sync.WaitGroup
}

// NewChangeThrottler creates a throttler. ready reports whether a remote
// connection is usable; push performs the full push.
func NewChangeThrottler(
	window time.Duration,
	policy domain.PushEligibility,
	ready func() bool,
	push func(ctx context.Context) error,
) *ChangeThrottler {
	if ready == nil {
		ready = func() bool { return true }
	}
	return &ChangeThrottler{
		window: window,
		policy: policy,
		ready:  ready,
		push:   push,
	}
}

// OnChange evaluates one mutation and schedules a push when it is eligible.
// It returns the reason the mutation was skipped, or SkipNone.
func (t *ChangeThrottler) OnChange(change domain.KeyChange) domain.SkipReason {
	reason := t.policy.Check(t.ready(), change)
	if reason != domain.SkipNone {
		logger.Debug("throttler: skip %s (%s)", change.Key, reason)
		return reason
	}
	t.Schedule()
	return domain.SkipNone
}

// Schedule (re)arms the pending push timer.
func (t *ChangeThrottler) Schedule() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.timer = time.AfterFunc(t.window, func() { t.fire(gen) })
}

// fire runs the push unless the timer was superseded or the throttler stopped.
// A stale timer whose Stop raced with expiry sees a newer generation and exits.
func (t *ChangeThrottler) fire(gen uint64) {
	t.mu.Lock()
	if t.stopped || gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	t.inflight.Add(1)
	t.mu.Unlock()

	defer t.inflight.Done()
	if err := t.push(context.Background()); err != nil {
		logger.Debug("throttler: push failed: %v", err)
	}
}

// Pending reports whether a push is scheduled.
func (t *ChangeThrottler) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}

// Cancel drops the pending push, if any.
func (t *ChangeThrottler) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
}

func (t *ChangeThrottler) cancelLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
}

// Flush cancels the pending timer and pushes immediately.
func (t *ChangeThrottler) Flush(ctx context.Context) error {
	t.Cancel()
	return t.push(ctx)
}

// FlushPending pushes immediately only when a push is scheduled.
// It reports whether a push was attempted.
func (t *ChangeThrottler) FlushPending(ctx context.Context) (bool, error) {
	t.mu.Lock()
	pending := t.timer != nil
	t.cancelLocked()
	t.mu.Unlock()

	if !pending {
		return false, nil
	}
	return true, t.push(ctx)
}

// Stop cancels the pending push, waits for a timer push already running,
// and ignores further mutations until Restart.
func (t *ChangeThrottler) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.cancelLocked()
	t.mu.Unlock()

	t.inflight.Wait()
}

// Restart re-enables scheduling after Stop.
func (t *ChangeThrottler) Restart() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = false
}
