// Package changefeed fans Local Store mutations out to registered watchers.
// Both the memory and sqlite stores publish through a Feed.
package changefeed

import (
	"sort"
	"sync"

	"github.com/custodia-labs/statesync/internal/core/domain"
	"github.com/custodia-labs/statesync/internal/core/ports/driven"
)

// Feed is a concurrency-safe set of change watchers.
type Feed struct {
	mu       sync.RWMutex
	next     uint64
	watchers map[uint64]driven.ChangeFunc
}

// New creates an empty feed.
func New() *Feed {
	return &Feed{watchers: make(map[uint64]driven.ChangeFunc)}
}

// Watch registers fn and returns a function that removes it.
func (f *Feed) Watch(fn driven.ChangeFunc) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.next
	f.next++
	f.watchers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.watchers, id)
		})
	}
}

// Publish calls every watcher in registration order. It must be called
// without holding the store's own lock so watchers may read the store.
func (f *Feed) Publish(change domain.KeyChange) {
	f.mu.RLock()
	ids := make([]uint64, 0, len(f.watchers))
	for id := range f.watchers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]driven.ChangeFunc, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, f.watchers[id])
	}
	f.mu.RUnlock()

	for _, fn := range fns {
		fn(change)
	}
}

// Len returns the number of registered watchers.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.watchers)
}
