// Package notify fans reload hints out to presentation layers.
package notify

import (
	"sync"

	"github.com/custodia-labs/statesync/internal/core/ports/driven"
	"github.com/custodia-labs/statesync/internal/logger"
)

// Event names which part of local state was overwritten by remote data.
type Event string

// Reload events.
const (
	EventSettings  Event = "settings"
	EventAccount   Event = "account"
	EventBookmarks Event = "bookmarks"
)

var (
	_ driven.Notifier = (*Broadcaster)(nil)
	_ driven.Notifier = LogNotifier{}
	_ driven.Notifier = Multi(nil)
)

// Broadcaster delivers events to every subscriber without blocking.
// A subscriber that falls behind misses events rather than stalling the
// sync engine.
type Broadcaster struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Event
}

// NewBroadcaster creates a broadcaster with no subscribers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan Event)}
}

// Subscribe returns a buffered event channel and a cancel function that
// closes it.
func (b *Broadcaster) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of live subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Broadcaster) publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// SettingsChanged implements driven.Notifier.
func (b *Broadcaster) SettingsChanged() { b.publish(EventSettings) }

// AccountChanged implements driven.Notifier.
func (b *Broadcaster) AccountChanged() { b.publish(EventAccount) }

// BookmarksChanged implements driven.Notifier.
func (b *Broadcaster) BookmarksChanged() { b.publish(EventBookmarks) }

// LogNotifier writes each hint to the info log.
type LogNotifier struct{}

func (LogNotifier) SettingsChanged()  { logger.Info("remote settings applied") }
func (LogNotifier) AccountChanged()   { logger.Info("remote account data applied") }
func (LogNotifier) BookmarksChanged() { logger.Info("remote bookmarks applied") }

// Multi forwards every hint to each notifier in order. Nil entries are skipped.
type Multi []driven.Notifier

func (m Multi) SettingsChanged() {
	for _, n := range m {
		if n != nil {
			n.SettingsChanged()
		}
	}
}

func (m Multi) AccountChanged() {
	for _, n := range m {
		if n != nil {
			n.AccountChanged()
		}
	}
}

func (m Multi) BookmarksChanged() {
	for _, n := range m {
		if n != nil {
			n.BookmarksChanged()
		}
	}
}
