package mcp

import (
	"github.com/custodia-labs/statesync/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server uses.
type Ports struct {
	// Sync reports status and pushes on demand.
	Sync driving.SyncService

	// State exposes plugin records. Optional.
	State driving.StateService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Sync == nil {
		return ErrMissingSyncService
	}
	return nil
}
