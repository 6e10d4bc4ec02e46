package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/statesync/internal/core/ports/driving"
)

// StatusInput is the input schema for sync_status.
type StatusInput struct{}

// StatusOutput is the output schema for sync_status and the status resource.
type StatusOutput struct {
	AccountID    string   `json:"account_id"`
	Enabled      bool     `json:"enabled"`
	Connected    bool     `json:"connected"`
	Initializing bool     `json:"initializing"`
	PushPending  bool     `json:"push_pending"`
	ProjectID    string   `json:"project_id,omitempty"`
	LastSync     string   `json:"last_sync,omitempty"`
	LastError    string   `json:"last_error,omitempty"`
	Pushes       int      `json:"pushes"`
	Applies      int      `json:"applies"`
	Failures     int      `json:"failures"`
	Disabled     []string `json:"disabled_domains,omitempty"`
}

// SyncNowInput is the input schema for sync_now.
type SyncNowInput struct{}

// SyncNowOutput is the output schema for sync_now.
type SyncNowOutput struct {
	Pushed   bool   `json:"pushed"`
	LastSync string `json:"last_sync,omitempty"`
}

// LogsInput is the input schema for sync_logs.
type LogsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of most recent entries to return (default all)"`
}

// LogsOutput is the output schema for sync_logs.
type LogsOutput struct {
	Entries []string `json:"entries"`
	Count   int      `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "sync_status",
		Description: "Report whether state sync is enabled and connected, and when it last synced",
	}, s.handleStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "sync_now",
		Description: "Push the full local state to the remote document immediately",
	}, s.handleSyncNow)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "sync_logs",
		Description: "Return the sync diagnostic log, oldest first",
	}, s.handleLogs)
}

func toStatusOutput(st *driving.SyncStatus) StatusOutput {
	out := StatusOutput{
		AccountID:    st.AccountID,
		Enabled:      st.Enabled,
		Connected:    st.Connected,
		Initializing: st.Initializing,
		PushPending:  st.PushPending,
		ProjectID:    st.Config.ProjectID,
		LastError:    st.LastError,
		Pushes:       st.Pushes,
		Applies:      st.Applies,
		Failures:     st.Failures,
	}
	if !st.LastSync.IsZero() {
		out.LastSync = st.LastSync.UTC().Format(time.RFC3339)
	}
	for _, d := range st.Disabled {
		out.Disabled = append(out.Disabled, string(d))
	}
	return out
}

func (s *Server) handleStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	st, err := s.ports.Sync.Status(ctx)
	if err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, toStatusOutput(st), nil
}

func (s *Server) handleSyncNow(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ SyncNowInput,
) (*mcp.CallToolResult, SyncNowOutput, error) {
	if err := s.ports.Sync.FlushNow(ctx); err != nil {
		return nil, SyncNowOutput{}, err
	}
	out := SyncNowOutput{Pushed: true}
	if st, err := s.ports.Sync.Status(ctx); err == nil && !st.LastSync.IsZero() {
		out.LastSync = st.LastSync.UTC().Format(time.RFC3339)
	}
	return nil, out, nil
}

func (s *Server) handleLogs(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input LogsInput,
) (*mcp.CallToolResult, LogsOutput, error) {
	entries := s.ports.Sync.Logs()
	if input.Limit > 0 && len(entries) > input.Limit {
		entries = entries[len(entries)-input.Limit:]
	}
	if entries == nil {
		entries = []string{}
	}
	return nil, LogsOutput{Entries: entries, Count: len(entries)}, nil
}
