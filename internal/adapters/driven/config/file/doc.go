// Package file provides the TOML configuration adapter.
//
// ConfigStore persists dotted keys ("sync.debounce_ms") as nested TOML
// tables. LoadAppConfig resolves the application settings from a store and
// the process environment.
package file
