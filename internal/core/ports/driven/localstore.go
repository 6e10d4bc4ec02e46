package driven

import (
	"context"

	"github.com/custodia-labs/statesync/internal/core/domain"
)

// ChangeFunc receives Local Store mutations.
// It is called synchronously after the write commits and must not block.
type ChangeFunc func(change domain.KeyChange)

// LocalStore is the device's durable key to string map.
type LocalStore interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// GetAllWithPrefix returns every key starting with prefix.
	// An empty prefix returns the whole store.
	GetAllWithPrefix(ctx context.Context, prefix string) (map[string]string, error)

	// Set stores value under key. Writing an unchanged value is a no-op
	// and does not notify watchers.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is a no-op.
	Delete(ctx context.Context, key string) error

	// Watch registers fn for every committed mutation.
	// The returned function cancels the registration.
	Watch(fn ChangeFunc) (cancel func())
}
