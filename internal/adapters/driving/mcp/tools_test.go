package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/statesync/internal/core/domain"
	"github.com/custodia-labs/statesync/internal/core/ports/driving"
)

func newTestServer(t *testing.T, sync *mockSyncService) *Server {
	t.Helper()
	server, err := NewServer(&Ports{Sync: sync})
	require.NoError(t, err)
	return server
}

func TestServer_handleStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("maps status", func(t *testing.T) {
		sync := &mockSyncService{status: &driving.SyncStatus{
			AccountID: "default",
			Enabled:   true,
			Connected: true,
			Config:    domain.SyncConfig{ProjectID: "proj", APIKey: "****1234"},
			LastSync:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
			Pushes:    3,
			Disabled:  []domain.Domain{domain.DomainSettings},
		}}
		_, out, err := newTestServer(t, sync).handleStatus(ctx, nil, StatusInput{})

		require.NoError(t, err)
		assert.True(t, out.Connected)
		assert.Equal(t, "proj", out.ProjectID)
		assert.Equal(t, "2026-01-02T03:04:05Z", out.LastSync)
		assert.Equal(t, 3, out.Pushes)
		assert.Equal(t, []string{"settings"}, out.Disabled)
	})

	t.Run("never synced leaves last_sync empty", func(t *testing.T) {
		_, out, err := newTestServer(t, &mockSyncService{}).handleStatus(ctx, nil, StatusInput{})
		require.NoError(t, err)
		assert.Empty(t, out.LastSync)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		_, _, err := newTestServer(t, &mockSyncService{err: errors.New("boom")}).handleStatus(ctx, nil, StatusInput{})
		assert.EqualError(t, err, "boom")
	})
}

func TestServer_handleSyncNow(t *testing.T) {
	ctx := context.Background()

	t.Run("flushes", func(t *testing.T) {
		sync := &mockSyncService{status: &driving.SyncStatus{LastSync: time.UnixMilli(1000)}}
		_, out, err := newTestServer(t, sync).handleSyncNow(ctx, nil, SyncNowInput{})

		require.NoError(t, err)
		assert.True(t, out.Pushed)
		assert.Equal(t, 1, sync.flushes)
		assert.Equal(t, "1970-01-01T00:00:01Z", out.LastSync)
	})

	t.Run("not connected", func(t *testing.T) {
		sync := &mockSyncService{err: domain.ErrNotConnected}
		_, _, err := newTestServer(t, sync).handleSyncNow(ctx, nil, SyncNowInput{})
		assert.ErrorIs(t, err, domain.ErrNotConnected)
	})
}

func TestServer_handleLogs(t *testing.T) {
	ctx := context.Background()
	sync := &mockSyncService{logs: []string{"a", "b", "c"}}
	server := newTestServer(t, sync)

	_, out, err := server.handleLogs(ctx, nil, LogsInput{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, out.Entries)
	assert.Equal(t, 3, out.Count)

	_, out, err = server.handleLogs(ctx, nil, LogsInput{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, out.Entries)

	_, out, err = newTestServer(t, &mockSyncService{}).handleLogs(ctx, nil, LogsInput{})
	require.NoError(t, err)
	assert.NotNil(t, out.Entries)
	assert.Zero(t, out.Count)
}
