package logger

import (
	"fmt"
	"sync"
	"time"
)

// DefaultRingSize is the number of entries a diagnostic ring keeps.
const DefaultRingSize = 100

// Ring is a bounded, concurrency-safe diagnostic log.
// Once full, each new entry evicts the oldest.
type Ring struct {
	mu      sync.Mutex
	entries []string
	start   int
	size    int
	now     func() time.Time
}

// NewRing creates a ring holding at most capacity entries.
// A non-positive capacity uses DefaultRingSize.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultRingSize
	}
	return &Ring{
		entries: make([]string, capacity),
		now:     time.Now,
	}
}

// WithClock overrides the timestamp source. Useful for testing.
func (r *Ring) WithClock(now func() time.Time) *Ring {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
	return r
}

// Add formats a message, stamps it as "[HH:MM:SS] msg", stores it and
// returns the stored entry. The message is mirrored to Warn.
func (r *Ring) Add(format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	Warn("%s", msg)

	r.mu.Lock()
	defer r.mu.Unlock()

	entry := fmt.Sprintf("[%s] %s", r.now().Format("15:04:05"), msg)
	idx := (r.start + r.size) % len(r.entries)
	r.entries[idx] = entry
	if r.size < len(r.entries) {
		r.size++
	} else {
		r.start = (r.start + 1) % len(r.entries)
	}
	return entry
}

// Entries returns the stored entries, oldest first.
func (r *Ring) Entries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.entries[(r.start+i)%len(r.entries)]
	}
	return out
}

// Len returns the number of stored entries.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}
