package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/statesync/internal/core/domain"
	"github.com/custodia-labs/statesync/internal/core/ports/driven"
)

// Ensure RemoteStore implements the interface.
var _ driven.RemoteStore = (*RemoteStore)(nil)

// RemoteStore is an in-memory document database. Several engines may share
// one instance to simulate devices syncing the same account.
type RemoteStore struct {
	mu     sync.Mutex
	docs   map[string]*domain.RemoteDocument
	subs   map[string]map[uint64]*subscription
	next   uint64
	clock  func() time.Time
	err    error
	writes int
}

// NewRemoteStore creates an empty document database.
func NewRemoteStore() *RemoteStore {
	return &RemoteStore{
		docs:  make(map[string]*domain.RemoteDocument),
		subs:  make(map[string]map[uint64]*subscription),
		clock: time.Now,
	}
}

// WithClock overrides the server clock used for server timestamps.
func (s *RemoteStore) WithClock(now func() time.Time) *RemoteStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = now
	return s
}

// FailWith makes every read and write return err until cleared with nil.
func (s *RemoteStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Writes returns the number of successful merge-writes.
func (s *RemoteStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Put replaces a document wholesale and notifies subscribers.
func (s *RemoteStore) Put(doc *domain.RemoteDocument) {
	s.mu.Lock()
	stored := doc.Clone()
	s.docs[doc.AccountID] = stored
	targets := s.targetsLocked(doc.AccountID)
	snapshot := stored.Clone()
	s.mu.Unlock()

	for _, sub := range targets {
		sub.deliver(snapshot.Clone())
	}
}

// GetDocument returns a copy of the account document.
func (s *RemoteStore) GetDocument(_ context.Context, accountID string) (*domain.RemoteDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	doc, ok := s.docs[accountID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc.Clone(), nil
}

// MergeWrite applies a partial write and notifies subscribers.
func (s *RemoteStore) MergeWrite(_ context.Context, accountID string, write domain.DocumentWrite) error {
	s.mu.Lock()
	if s.err != nil {
		err := s.err
		s.mu.Unlock()
		return err
	}
	doc, ok := s.docs[accountID]
	if !ok {
		doc = &domain.RemoteDocument{
			AccountID:  accountID,
			Fields:     make(map[string]string),
			Timestamps: make(map[string]int64),
		}
		s.docs[accountID] = doc
	}
	for k, v := range write.Fields {
		doc.Fields[k] = v
	}
	for k, v := range write.Timestamps {
		doc.Timestamps[k] = v
	}
	now := s.clock().UnixMilli()
	for _, k := range write.ServerTimestamps {
		doc.Timestamps[k] = now
	}
	s.writes++
	targets := s.targetsLocked(accountID)
	snapshot := doc.Clone()
	s.mu.Unlock()

	for _, sub := range targets {
		sub.deliver(snapshot.Clone())
	}
	return nil
}

// Subscribe delivers the current document, if any, and every later change.
func (s *RemoteStore) Subscribe(
	ctx context.Context,
	accountID string,
	onSnapshot driven.SnapshotFunc,
	_ func(error),
) (driven.Subscription, error) {
	s.mu.Lock()
	if s.err != nil {
		err := s.err
		s.mu.Unlock()
		return nil, err
	}
	id := s.next
	s.next++
	sub := newSubscription(func() { s.unsubscribe(accountID, id) }, onSnapshot)
	if s.subs[accountID] == nil {
		s.subs[accountID] = make(map[uint64]*subscription)
	}
	s.subs[accountID][id] = sub
	var initial *domain.RemoteDocument
	if doc, ok := s.docs[accountID]; ok {
		initial = doc.Clone()
	}
	s.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			_ = sub.Close()
		case <-sub.done:
		}
	}()
	if initial != nil {
		sub.deliver(initial)
	}
	return sub, nil
}

// Close is a no-op; the database outlives individual connections.
func (s *RemoteStore) Close() error {
	return nil
}

// Subscribers returns the number of live subscriptions for an account.
func (s *RemoteStore) Subscribers(accountID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs[accountID])
}

func (s *RemoteStore) targetsLocked(accountID string) []*subscription {
	out := make([]*subscription, 0, len(s.subs[accountID]))
	for _, sub := range s.subs[accountID] {
		out = append(out, sub)
	}
	return out
}

func (s *RemoteStore) unsubscribe(accountID string, id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs[accountID], id)
}

// subscription delivers snapshots in order on its own goroutine.
type subscription struct {
	queue   chan *domain.RemoteDocument
	done    chan struct{}
	once    sync.Once
	release func()
}

func newSubscription(release func(), fn driven.SnapshotFunc) *subscription {
	sub := &subscription{
		queue:   make(chan *domain.RemoteDocument, 64),
		done:    make(chan struct{}),
		release: release,
	}
	go func() {
		for {
			select {
			case <-sub.done:
				return
			case doc := <-sub.queue:
				fn(doc)
			}
		}
	}()
	return sub
}

func (s *subscription) deliver(doc *domain.RemoteDocument) {
	select {
	case s.queue <- doc:
	case <-s.done:
	}
}

// Close stops delivery. It is safe to call more than once.
func (s *subscription) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.release()
	})
	return nil
}
