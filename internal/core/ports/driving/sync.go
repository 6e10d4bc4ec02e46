package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/statesync/internal/core/domain"
)

// SyncService drives the connection between local state and the remote document.
type SyncService interface {
	// Start begins watching local mutations and, when sync is enabled with
	// persisted credentials, initializes the remote connection.
	Start(ctx context.Context) error

	// Stop flushes any pending push and closes the remote subscription.
	Stop(ctx context.Context) error

	// Initialize connects with cfg, persists it, runs the first-sync
	// handshake and subscribes to remote changes.
	Initialize(ctx context.Context, cfg domain.SyncConfig) error

	// Reconnect re-initializes from persisted credentials when sync is
	// enabled but not connected. It is a no-op otherwise.
	Reconnect(ctx context.Context) error

	// Disconnect tears down the connection and disables sync.
	Disconnect(ctx context.Context) error

	// Push merge-writes one domain field immediately.
	Push(ctx context.Context, d domain.Domain, payload string) error

	// FlushNow pushes the full local state, bypassing the debounce timer.
	FlushNow(ctx context.Context) error

	// Status returns a snapshot of the engine state.
	Status(ctx context.Context) (*SyncStatus, error)

	// Logs returns the diagnostic log, oldest first.
	Logs() []string
}

// SyncStatus represents the current state of the sync engine.
type SyncStatus struct {
	// AccountID identifies the remote document.
	AccountID string

	// Enabled reports whether sync is switched on for this device.
	Enabled bool

	// Connected indicates a remote connection is ready.
	Connected bool

	// Initializing indicates a handshake is in progress.
	Initializing bool

	// PushPending indicates a debounced push is scheduled.
	PushPending bool

	// Config holds the active credentials with the API key masked.
	Config domain.SyncConfig

	// LastSync is the local watermark. Zero if never synced.
	LastSync time.Time

	// LastError is the most recent failure message, if any.
	LastError string

	// Pushes counts successful full pushes.
	Pushes int

	// Applies counts applied remote snapshots.
	Applies int

	// Failures counts logged failures of any kind.
	Failures int

	// Disabled lists domains switched off on this device.
	Disabled []domain.Domain
}
