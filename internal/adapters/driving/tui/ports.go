// Package tui provides an interactive terminal dashboard for statesync.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/statesync/internal/adapters/driven/notify"
	"github.com/custodia-labs/statesync/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the TUI.
type Ports struct {
	// Sync drives the engine and reports its status.
	Sync driving.SyncService

	// State reads and edits local synced state.
	State driving.StateService

	// Events delivers change notifications from applied remote merges.
	// Optional; without it the dashboard relies on periodic refresh.
	Events <-chan notify.Event
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(sync driving.SyncService, state driving.StateService) *Ports {
	return &Ports{Sync: sync, State: state}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Sync == nil {
		return ErrMissingSyncService
	}
	if p.State == nil {
		return ErrMissingStateService
	}
	return nil
}
