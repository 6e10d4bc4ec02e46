package docserver

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds document server settings.
type Config struct {
	// Addr is the listen address.
	Addr string

	// DBPath is the SQLite database file.
	DBPath string

	// Keys maps project id to its API key. Empty accepts any key.
	Keys map[string]string

	// RateLimit is the sustained requests per second per client address.
	// Zero disables limiting.
	RateLimit float64

	// Burst is the rate limiter bucket size.
	Burst int
}

// Environment variables read by LoadConfig.
const (
	EnvAddr      = "STATESYNC_SERVER_ADDR"
	EnvDBPath    = "STATESYNC_SERVER_DB"
	EnvKeys      = "STATESYNC_SERVER_KEYS"
	EnvRateLimit = "STATESYNC_SERVER_RPS"
	EnvBurst     = "STATESYNC_SERVER_BURST"
)

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:      "127.0.0.1:8475",
		DBPath:    "docserver.db",
		Keys:      map[string]string{},
		RateLimit: 20,
		Burst:     40,
	}
}

// LoadConfig reads settings from the environment over the defaults.
// A nil getenv uses os.Getenv.
func LoadConfig(getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := DefaultConfig()

	if v := getenv(EnvAddr); v != "" {
		cfg.Addr = v
	}
	if v := getenv(EnvDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := getenv(EnvKeys); v != "" {
		keys, err := ParseKeys(v)
		if err != nil {
			return Config{}, err
		}
		cfg.Keys = keys
	}
	if v := getenv(EnvRateLimit); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil || rps < 0 {
			return Config{}, fmt.Errorf("invalid %s %q", EnvRateLimit, v)
		}
		cfg.RateLimit = rps
	}
	if v := getenv(EnvBurst); v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil || burst < 1 {
			return Config{}, fmt.Errorf("invalid %s %q", EnvBurst, v)
		}
		cfg.Burst = burst
	}
	return cfg, nil
}

// ParseKeys parses "project=key,project2=key2".
func ParseKeys(s string) (map[string]string, error) {
	keys := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		project, key, ok := strings.Cut(pair, "=")
		project, key = strings.TrimSpace(project), strings.TrimSpace(key)
		if !ok || project == "" || key == "" {
			return nil, fmt.Errorf("invalid key pair %q, want project=key", pair)
		}
		keys[project] = key
	}
	return keys, nil
}
