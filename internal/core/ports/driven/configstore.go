package driven

// ConfigStore provides access to application configuration.
// Keys are dotted paths ("sync.debounce_ms") into a nested file.
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	// Returns the value and a boolean indicating if the key exists.
	Get(key string) (any, bool)

	// GetString returns "" if key is missing or not a string.
	GetString(key string) string

	// GetInt returns 0 if key is missing or not an integer.
	GetInt(key string) int

	// GetBool returns false if key is missing or not a boolean.
	GetBool(key string) bool

	// GetStringSlice returns nil if key is missing or not a list.
	GetStringSlice(key string) []string

	// Set stores a value and persists it immediately.
	Set(key string, value any) error

	// Save persists the current configuration.
	Save() error

	// Load reads configuration from storage. A missing file is not an error.
	Load() error

	// Path returns the configuration file path.
	Path() string
}
