package driving

import (
	"context"

	"github.com/custodia-labs/statesync/internal/core/domain"
)

// StateService performs local mutations the way the host application does.
// Every write goes through the Local Store, so the sync engine observes it.
type StateService interface {
	// SetValue stores a raw value.
	SetValue(ctx context.Context, key, value string) error

	// GetValue reads a raw value.
	GetValue(ctx context.Context, key string) (string, bool, error)

	// DeleteValue removes a key.
	DeleteValue(ctx context.Context, key string) error

	// ListValues returns every key with the given prefix.
	ListValues(ctx context.Context, prefix string) (map[string]string, error)

	// SaveResume records watch progress for a title.
	SaveResume(ctx context.Context, rec domain.ResumeRecord) error

	// DeleteResume removes watch progress and records a tombstone.
	DeleteResume(ctx context.Context, parentID int) error

	// ListResume returns alive records and tombstones.
	ListResume(ctx context.Context) ([]domain.ResumeRecord, domain.Tombstones, error)

	// InstallPlugin adds or revives a plugin record.
	InstallPlugin(ctx context.Context, rec domain.PluginRecord) error

	// RemovePlugin soft-deletes a plugin record.
	RemovePlugin(ctx context.Context, internalName string) error

	// ListPlugins returns every plugin record, including soft-deleted ones.
	ListPlugins(ctx context.Context) ([]domain.PluginRecord, error)

	// SetDomainEnabled switches a domain on or off for this device.
	SetDomainEnabled(ctx context.Context, d domain.Domain, enabled bool) error
}
