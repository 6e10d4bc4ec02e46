package driven

import (
	"context"

	"github.com/custodia-labs/statesync/internal/core/domain"
)

// SnapshotFunc receives the full current document after every change.
type SnapshotFunc func(doc *domain.RemoteDocument)

// RemoteStore is the document database holding one document per account.
// Implementations retry their own transport; callers only see failures.
type RemoteStore interface {
	// GetDocument reads the account document.
	// Returns domain.ErrNotFound if it has never been written.
	GetDocument(ctx context.Context, accountID string) (*domain.RemoteDocument, error)

	// MergeWrite atomically merges the write into the account document.
	// Fields not named in the write are left untouched.
	MergeWrite(ctx context.Context, accountID string, write domain.DocumentWrite) error

	// Subscribe delivers the whole document on every change until the
	// subscription is closed or ctx is cancelled. Delivery failures are
	// reported to onError without ending the subscription.
	Subscribe(ctx context.Context, accountID string, onSnapshot SnapshotFunc, onError func(error)) (Subscription, error)

	// Close releases the connection.
	Close() error
}

// Subscription is a live document listener.
type Subscription interface {
	// Close stops delivery. It is safe to call more than once.
	Close() error
}

// RemoteConnector opens a RemoteStore for one set of credentials.
type RemoteConnector interface {
	Connect(ctx context.Context, cfg domain.SyncConfig) (RemoteStore, error)
}
