package file

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/statesync/internal/core/domain"
	"github.com/custodia-labs/statesync/internal/core/ports/driven"
)

// Configuration keys.
const (
	KeyEndpoint          = "remote.endpoint"
	KeyAccountID         = "sync.account_id"
	KeyDebounceMs        = "sync.debounce_ms"
	KeyRetentionDays     = "sync.tombstone_retention_days"
	KeyReconnectInterval = "sync.reconnect_interval_s"
	KeyPluginDir         = "plugins.dir"
	KeyDownloadMode      = "plugins.download_mode"
	KeyDataDir           = "storage.data_dir"
)

// Environment overrides.
const (
	EnvEndpoint  = "STATESYNC_ENDPOINT"
	EnvAccountID = "STATESYNC_ACCOUNT_ID"
	EnvDataDir   = "STATESYNC_DATA_DIR"
	EnvAPIKey    = "STATESYNC_API_KEY"
	EnvProjectID = "STATESYNC_PROJECT_ID"
	EnvAppID     = "STATESYNC_APP_ID"
)

// LoadAppConfig resolves application settings: defaults, then the config
// store, then environment overrides. A nil getenv uses os.Getenv.
func LoadAppConfig(store driven.ConfigStore, getenv func(string) string) domain.AppConfig {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := domain.DefaultAppConfig()
	cfg.DataDir = DefaultDataDir()

	if store != nil {
		if v := store.GetString(KeyEndpoint); v != "" {
			cfg.Endpoint = v
		}
		if v := store.GetString(KeyAccountID); v != "" {
			cfg.AccountID = v
		}
		if v := store.GetInt(KeyDebounceMs); v > 0 {
			cfg.DebounceWindow = time.Duration(v) * time.Millisecond
		}
		if _, ok := store.Get(KeyRetentionDays); ok {
			cfg.TombstoneRetention = time.Duration(max(store.GetInt(KeyRetentionDays), 0)) * 24 * time.Hour
		}
		if _, ok := store.Get(KeyReconnectInterval); ok {
			cfg.ReconnectInterval = time.Duration(max(store.GetInt(KeyReconnectInterval), 0)) * time.Second
		}
		if v := store.GetString(KeyPluginDir); v != "" {
			cfg.PluginDir = v
		}
		if m := domain.AutoDownloadMode(store.GetString(KeyDownloadMode)); m.IsValid() {
			cfg.DownloadMode = m
		}
		if v := store.GetString(KeyDataDir); v != "" {
			cfg.DataDir = v
		}
	}

	if v := strings.TrimSpace(getenv(EnvEndpoint)); v != "" {
		cfg.Endpoint = v
	}
	if v := strings.TrimSpace(getenv(EnvAccountID)); v != "" {
		cfg.AccountID = v
	}
	if v := strings.TrimSpace(getenv(EnvDataDir)); v != "" {
		cfg.DataDir = v
	}
	if cfg.PluginDir == "" {
		cfg.PluginDir = filepath.Join(cfg.DataDir, "plugins")
	}
	return cfg
}

// EnvCredentials returns credentials from the environment. The result may
// be incomplete; callers validate it.
func EnvCredentials(getenv func(string) string) domain.SyncConfig {
	if getenv == nil {
		getenv = os.Getenv
	}
	return domain.SyncConfig{
		APIKey:    strings.TrimSpace(getenv(EnvAPIKey)),
		ProjectID: strings.TrimSpace(getenv(EnvProjectID)),
		AppID:     strings.TrimSpace(getenv(EnvAppID)),
	}
}
