package docserver

import (
	"sync"

	"github.com/custodia-labs/statesync/internal/core/domain"
)

// topic identifies one document.
type topic struct {
	project string
	account string
}

// listener receives snapshots for one websocket connection. The channel
// holds at most a few snapshots; when full, the oldest is dropped since
// every snapshot carries the whole document.
type listener struct {
	send chan *domain.RemoteDocument
}

// Hub fans out document snapshots to websocket listeners.
type Hub struct {
	mu   sync.Mutex
	subs map[topic]map[*listener]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[topic]map[*listener]struct{})}
}

func (h *Hub) subscribe(t topic) *listener {
	l := &listener{send: make(chan *domain.RemoteDocument, 8)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[t] == nil {
		h.subs[t] = make(map[*listener]struct{})
	}
	h.subs[t][l] = struct{}{}
	return l
}

func (h *Hub) unsubscribe(t topic, l *listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[t], l)
	if len(h.subs[t]) == 0 {
		delete(h.subs, t)
	}
}

// Publish delivers doc to every listener of its topic without blocking.
func (h *Hub) Publish(projectID string, doc *domain.RemoteDocument) {
	t := topic{project: projectID, account: doc.AccountID}
	h.mu.Lock()
	defer h.mu.Unlock()
	for l := range h.subs[t] {
		l.offer(doc.Clone())
	}
}

// Listeners returns the number of listeners on a document.
func (h *Hub) Listeners(projectID, accountID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[topic{project: projectID, account: accountID}])
}

// offer is only called with the hub lock held, so there is a single producer.
func (l *listener) offer(doc *domain.RemoteDocument) {
	for {
		select {
		case l.send <- doc:
			return
		default:
		}
		select {
		case <-l.send:
		default:
		}
	}
}
