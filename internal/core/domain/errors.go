package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSyncInProgress indicates an initialization is already running.
	ErrSyncInProgress = errors.New("sync in progress")

	// Configuration Errors.

	// ErrNotConfigured indicates one or more SyncConfig fields are blank.
	ErrNotConfigured = errors.New("sync not configured")

	// ErrAlreadyConfigured indicates the engine is connected with different credentials.
	// SyncConfig is immutable once the engine is initialized.
	ErrAlreadyConfigured = errors.New("sync already configured with different credentials")

	// Transport Errors.

	// ErrNotConnected indicates no remote connection is ready.
	ErrNotConnected = errors.New("not connected")

	// ErrTransport indicates a remote read, write or subscribe failed.
	ErrTransport = errors.New("remote transport failure")

	// ErrUnauthorized indicates the remote rejected the configured credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// Payload Errors.

	// ErrMalformedPayload indicates a domain field could not be decoded.
	// Only that domain is skipped; other domains are still applied.
	ErrMalformedPayload = errors.New("malformed payload")
)
