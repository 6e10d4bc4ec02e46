package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/statesync/internal/core/domain"
	"github.com/custodia-labs/statesync/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.RemoteConnector = (*Connector)(nil)

// Connector hands out a shared RemoteStore for any valid config.
type Connector struct {
	store *RemoteStore

	mu       sync.Mutex
	err      error
	connects int
	last     domain.SyncConfig
}

// NewConnector creates a connector over store.
func NewConnector(store *RemoteStore) *Connector {
	return &Connector{store: store}
}

// Connect returns the shared store.
func (c *Connector) Connect(_ context.Context, cfg domain.SyncConfig) (driven.RemoteStore, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connects++
	c.last = cfg
	if c.err != nil {
		return nil, c.err
	}
	return c.store, nil
}

// FailWith makes Connect return err until cleared with nil.
func (c *Connector) FailWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// Connects returns how many times Connect was called.
func (c *Connector) Connects() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connects
}

// LastConfig returns the config passed to the latest Connect.
func (c *Connector) LastConfig() domain.SyncConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}
