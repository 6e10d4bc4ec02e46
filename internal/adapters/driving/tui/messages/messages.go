// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"time"

	"github.com/custodia-labs/statesync/internal/adapters/driven/notify"
	"github.com/custodia-labs/statesync/internal/core/domain"
	"github.com/custodia-labs/statesync/internal/core/ports/driving"
)

// StatusLoaded carries a fresh engine status snapshot.
type StatusLoaded struct {
	Status *driving.SyncStatus
	Err    error
}

// SyncRequested asks the app to flush local state immediately.
type SyncRequested struct{}

// SyncCompleted is sent when a manual flush finishes.
type SyncCompleted struct {
	Err error
}

// LogsLoaded carries the engine's recent log lines, oldest first.
type LogsLoaded struct {
	Lines []string
}

// PluginsLoaded carries the live plugin list.
type PluginsLoaded struct {
	Plugins []domain.PluginRecord
	Err     error
}

// DomainToggled is sent after a domain was enabled or disabled.
type DomainToggled struct {
	Domain  domain.Domain
	Enabled bool
	Err     error
}

// RemoteChanged is sent when the engine applied a remote change.
type RemoteChanged struct {
	Event notify.Event
}

// Tick drives the periodic status refresh.
type Tick struct {
	At time.Time
}

// ErrorOccurred is sent when an error needs to be displayed.
type ErrorOccurred struct {
	Err error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// Quit signals that the application should exit.
type Quit struct{}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewDashboard shows connection state and counters.
	ViewDashboard
	// ViewDomains lists sync domains and their enabled flags.
	ViewDomains
	// ViewLogs shows the engine log ring.
	ViewLogs
	// ViewPlugins lists installed plugins.
	ViewPlugins
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns a human-readable name for the view.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewDashboard:
		return "dashboard"
	case ViewDomains:
		return "domains"
	case ViewLogs:
		return "logs"
	case ViewPlugins:
		return "plugins"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}
