package domain

import (
	"strings"
	"time"
)

// SyncConfig holds the opaque credentials for reaching one remote account.
// It is immutable once the engine is initialized.
type SyncConfig struct {
	// APIKey authenticates requests against the remote project.
	APIKey string

	// ProjectID identifies the remote project holding the documents.
	ProjectID string

	// AppID identifies this application within the project.
	AppID string
}

// Validate returns ErrNotConfigured if any credential is blank.
func (c SyncConfig) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" ||
		strings.TrimSpace(c.ProjectID) == "" ||
		strings.TrimSpace(c.AppID) == "" {
		return ErrNotConfigured
	}
	return nil
}

// IsComplete reports whether every credential is set.
func (c SyncConfig) IsComplete() bool {
	return c.Validate() == nil
}

// Redacted returns a copy safe for display, with the API key masked.
func (c SyncConfig) Redacted() SyncConfig {
	out := c
	switch {
	case out.APIKey == "":
	case len(out.APIKey) <= 4:
		out.APIKey = "****"
	default:
		out.APIKey = "****" + out.APIKey[len(out.APIKey)-4:]
	}
	return out
}

// AutoDownloadMode controls what the plugin loader fetches after a merge.
type AutoDownloadMode string

// Available auto-download modes.
const (
	// AutoDownloadDisable never fetches plugins automatically.
	AutoDownloadDisable AutoDownloadMode = "disable"

	// AutoDownloadAll fetches every live plugin that is missing locally.
	AutoDownloadAll AutoDownloadMode = "all"

	// AutoDownloadNewOnly fetches only plugins never seen on this device.
	AutoDownloadNewOnly AutoDownloadMode = "new_only"
)

// IsValid returns true if the mode is recognised.
func (m AutoDownloadMode) IsValid() bool {
	switch m {
	case AutoDownloadDisable, AutoDownloadAll, AutoDownloadNewOnly:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m AutoDownloadMode) String() string {
	return string(m)
}

// DefaultAccountID is the fixed account used when none is configured.
const DefaultAccountID = "default"

// AppConfig holds application-level settings read from the config file.
type AppConfig struct {
	// Endpoint is the base URL of the remote document server.
	Endpoint string

	// AccountID selects the remote document.
	AccountID string

	// DebounceWindow is the quiet window before a coalesced push fires.
	DebounceWindow time.Duration

	// TombstoneRetention is how long tombstones outlive the last sync.
	// Zero disables tombstone garbage collection.
	TombstoneRetention time.Duration

	// DataDir holds the local store database.
	DataDir string

	// PluginDir holds downloaded plugin files.
	PluginDir string

	// DownloadMode is passed to the plugin loader after a merge.
	DownloadMode AutoDownloadMode

	// ReconnectInterval is how often a long-running process retries a
	// dropped connection. Zero disables retries.
	ReconnectInterval time.Duration
}

// DefaultAppConfig returns sensible defaults.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Endpoint:           "http://127.0.0.1:8475",
		AccountID:          DefaultAccountID,
		DebounceWindow:     2 * time.Second,
		TombstoneRetention: 90 * 24 * time.Hour,
		DownloadMode:       AutoDownloadNewOnly,
		ReconnectInterval:  time.Minute,
	}
}
