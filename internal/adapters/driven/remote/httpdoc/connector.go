package httpdoc

import (
	"context"
	"fmt"

	"github.com/custodia-labs/statesync/internal/core/domain"
	"github.com/custodia-labs/statesync/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.RemoteConnector = (*Connector)(nil)

// Connector opens clients against one document server endpoint.
type Connector struct {
	endpoint string
	opts     []Option
}

// NewConnector creates a connector. opts apply to every client it opens.
func NewConnector(endpoint string, opts ...Option) *Connector {
	return &Connector{endpoint: endpoint, opts: opts}
}

// Connect validates cfg and checks the server accepts it.
func (c *Connector) Connect(ctx context.Context, cfg domain.SyncConfig) (driven.RemoteStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if c.endpoint == "" {
		return nil, fmt.Errorf("%w: no endpoint", domain.ErrNotConfigured)
	}
	client := NewClient(c.endpoint, cfg, c.opts...)
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
