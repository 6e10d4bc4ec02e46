package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/statesync/internal/core/domain"
	"github.com/custodia-labs/statesync/internal/core/ports/driving"
)

func readRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleStatusResource(t *testing.T) {
	ctx := context.Background()
	sync := &mockSyncService{status: &driving.SyncStatus{AccountID: "acct", Enabled: true}}
	server := newTestServer(t, sync)

	res, err := server.handleStatusResource(ctx, readRequest("statesync://status"))
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, "statesync://status", res.Contents[0].URI)
	assert.Equal(t, "application/json", res.Contents[0].MIMEType)

	var out StatusOutput
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &out))
	assert.Equal(t, "acct", out.AccountID)
	assert.True(t, out.Enabled)

	_, err = newTestServer(t, &mockSyncService{err: errors.New("boom")}).
		handleStatusResource(ctx, readRequest("statesync://status"))
	assert.Error(t, err)
}

func TestServer_handlePluginsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("no state service", func(t *testing.T) {
		res, err := newTestServer(t, &mockSyncService{}).handlePluginsResource(ctx, readRequest("statesync://plugins"))
		require.NoError(t, err)
		assert.Equal(t, "[]", res.Contents[0].Text)
	})

	t.Run("lists records", func(t *testing.T) {
		state := &mockStateService{plugins: []domain.PluginRecord{{InternalName: "p", AddedDate: 5, IsDeleted: true}}}
		server, err := NewServer(&Ports{Sync: &mockSyncService{}, State: state})
		require.NoError(t, err)

		res, err := server.handlePluginsResource(ctx, readRequest("statesync://plugins"))
		require.NoError(t, err)
		var got []domain.PluginRecord
		require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &got))
		assert.Equal(t, state.plugins, got)
	})

	t.Run("error", func(t *testing.T) {
		server, err := NewServer(&Ports{Sync: &mockSyncService{}, State: &mockStateService{err: errors.New("x")}})
		require.NoError(t, err)
		_, err = server.handlePluginsResource(ctx, readRequest("statesync://plugins"))
		assert.Error(t, err)
	})
}
