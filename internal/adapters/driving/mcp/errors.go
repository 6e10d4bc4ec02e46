// Package mcp provides an MCP (Model Context Protocol) server adapter for
// statesync. It lets AI assistants inspect and trigger state sync.
package mcp

import "errors"

// ErrMissingSyncService is returned when the sync service is not provided.
var ErrMissingSyncService = errors.New("mcp: sync service is required")
