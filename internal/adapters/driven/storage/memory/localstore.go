package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/statesync/internal/adapters/driven/storage/changefeed"
	"github.com/custodia-labs/statesync/internal/core/domain"
	"github.com/custodia-labs/statesync/internal/core/ports/driven"
)

// Ensure LocalStore implements the interface.
var _ driven.LocalStore = (*LocalStore)(nil)

// LocalStore is an in-memory implementation of driven.LocalStore.
type LocalStore struct {
	mu     sync.RWMutex
	values map[string]string
	feed   *changefeed.Feed
}

// NewLocalStore creates a new in-memory local store.
func NewLocalStore() *LocalStore {
	return &LocalStore{
		values: make(map[string]string),
		feed:   changefeed.New(),
	}
}

// Get returns the value for key.
func (s *LocalStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// GetAllWithPrefix returns a copy of every entry whose key starts with prefix.
func (s *LocalStore) GetAllWithPrefix(_ context.Context, prefix string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string)
	for k, v := range s.values {
		if strings.HasPrefix(k, prefix) {
			out[k] = v
		}
	}
	return out, nil
}

// Set stores value and notifies watchers when it changed.
func (s *LocalStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	old, existed := s.values[key]
	if existed && old == value {
		s.mu.Unlock()
		return nil
	}
	s.values[key] = value
	s.mu.Unlock()

	s.feed.Publish(domain.KeyChange{Key: key, Old: old, New: value, Created: !existed})
	return nil
}

// Delete removes key and notifies watchers when it existed.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	old, existed := s.values[key]
	if !existed {
		s.mu.Unlock()
		return nil
	}
	delete(s.values, key)
	s.mu.Unlock()

	s.feed.Publish(domain.KeyChange{Key: key, Old: old, Deleted: true})
	return nil
}

// Watch registers fn for every mutation.
func (s *LocalStore) Watch(fn driven.ChangeFunc) func() {
	return s.feed.Watch(fn)
}

// Snapshot returns a copy of the whole store.
func (s *LocalStore) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
