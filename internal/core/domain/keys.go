package domain

import (
	"strconv"
	"strings"
)

// Sync-internal keys. These hold the engine's own state and are never synced.
const (
	// PrefixSyncInternal namespaces every key owned by the sync engine.
	PrefixSyncInternal = "sync/"

	KeySyncEnabled = "sync/enabled"
	KeyAPIKey      = "sync/api_key"
	KeyProjectID   = "sync/project_id"
	KeyAppID       = "sync/app_id"
	KeyLastSync    = "sync/last_sync"
	KeyDeviceID    = "sync/device_id"

	// PrefixToggle namespaces the per-domain enable switches.
	PrefixToggle = "sync/toggle/"
)

// Domain-owned keys.
const (
	PrefixSettings       = "settings/"
	PrefixHomeSettings   = "home_settings/"
	KeyRepositories      = "repositories"
	KeyAccounts          = "data_store_helper/account"
	KeyPlugins           = "plugins_online"
	PrefixResumeWatching = "resume_watching/"
	KeyResumeDeleted     = "resume_watching_deleted"
)

// PrefixLocalOnly namespaces account-scoped keys that never leave the device.
const PrefixLocalOnly = "local/"

// KeyChange describes one Local Store mutation.
type KeyChange struct {
	Key     string
	Old     string
	New     string
	Deleted bool

	// Created is set when the key did not exist before the mutation.
	Created bool
}

// Changed reports whether the mutation altered the stored value.
func (c KeyChange) Changed() bool {
	return c.Deleted || c.Created || c.Old != c.New
}

// IsSyncInternal reports whether the key belongs to the sync engine itself.
func IsSyncInternal(key string) bool {
	return strings.HasPrefix(key, PrefixSyncInternal)
}

// IsLocalOnly reports whether the key is account-scoped and never pushed.
func IsLocalOnly(key string) bool {
	return strings.HasPrefix(key, PrefixLocalOnly)
}

// OwnerOf returns the domain that serializes the given key.
// Sync-internal and local-only keys have no owner.
func OwnerOf(key string) (Domain, bool) {
	switch {
	case IsSyncInternal(key), IsLocalOnly(key):
		return "", false
	case strings.HasPrefix(key, PrefixSettings):
		return DomainSettings, true
	case strings.HasPrefix(key, PrefixHomeSettings):
		return DomainHomeSettings, true
	case key == KeyRepositories:
		return DomainRepositories, true
	case key == KeyAccounts:
		return DomainAccounts, true
	case key == KeyPlugins:
		return DomainPlugins, true
	case strings.HasPrefix(key, PrefixResumeWatching):
		return DomainResumeWatching, true
	case key == KeyResumeDeleted:
		return DomainResumeWatchingDeleted, true
	default:
		return DomainDataStoreDump, true
	}
}

// ToggleKey returns the local key that enables or disables a domain.
// Both resume-watching halves share one switch.
func ToggleKey(d Domain) string {
	if d == DomainResumeWatchingDeleted {
		d = DomainResumeWatching
	}
	return PrefixToggle + string(d)
}

// ResumeKey returns the local key holding the resume record for parentID.
func ResumeKey(parentID int) string {
	return PrefixResumeWatching + strconv.Itoa(parentID)
}

// ParseResumeKey extracts the parent id from a resume record key.
func ParseResumeKey(key string) (int, bool) {
	if !strings.HasPrefix(key, PrefixResumeWatching) {
		return 0, false
	}
	id, err := strconv.Atoi(strings.TrimPrefix(key, PrefixResumeWatching))
	if err != nil {
		return 0, false
	}
	return id, true
}
