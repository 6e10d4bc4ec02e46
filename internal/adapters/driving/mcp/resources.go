package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for statesync resources.
	uriScheme = "statesync://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "status",
		Name:        "status",
		Description: "Current sync engine status",
		MIMEType:    "application/json",
	}, s.handleStatusResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "plugins",
		Name:        "plugins",
		Description: "Online plugin records, soft-deleted ones included",
		MIMEType:    "application/json",
	}, s.handlePluginsResource)
}

func jsonContents(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

func (s *Server) handleStatusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	st, err := s.ports.Sync.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading status: %w", err)
	}
	return jsonContents(req.Params.URI, toStatusOutput(st))
}

func (s *Server) handlePluginsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.State == nil {
		return jsonContents(req.Params.URI, []any{})
	}
	records, err := s.ports.State.ListPlugins(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing plugins: %w", err)
	}
	if records == nil {
		return jsonContents(req.Params.URI, []any{})
	}
	return jsonContents(req.Params.URI, records)
}
