package filesystem

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/statesync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/statesync/internal/core/domain"
)

func setPlugins(t *testing.T, local *memory.LocalStore, records ...domain.PluginRecord) {
	t.Helper()
	data, err := json.Marshal(records)
	require.NoError(t, err)
	require.NoError(t, local.Set(context.Background(), domain.KeyPlugins, string(data)))
}

func pluginServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, "plugin:"+r.URL.Path)
	}))
	t.Cleanup(ts.Close)
	return ts, &hits
}

func TestLoader_PathStaysInsideDir(t *testing.T) {
	l := NewLoader("/data/plugins", memory.NewLocalStore())

	assert.Equal(t, filepath.Join("/data/plugins", "a.plugin"), l.Path("/elsewhere/a.plugin"))
	assert.Equal(t, filepath.Join("/data/plugins", "passwd"), l.Path("../../etc/passwd"))
	assert.Equal(t, filepath.Join("/data/plugins", "my_plugin_.plugin"),
		l.LocalPath(domain.PluginRecord{InternalName: " My Plugin!"}))
}

func TestLoader_DownloadMissing(t *testing.T) {
	ctx := context.Background()
	ts, hits := pluginServer(t)
	dir := t.TempDir()
	local := memory.NewLocalStore()
	l := NewLoader(dir, local)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "present.plugin"), []byte("x"), 0o644))
	setPlugins(t, local,
		domain.PluginRecord{InternalName: "present", URL: ts.URL + "/present", FilePath: "/other/present.plugin"},
		domain.PluginRecord{InternalName: "fresh", URL: ts.URL + "/fresh"},
		domain.PluginRecord{InternalName: "gone", URL: ts.URL + "/gone", IsDeleted: true},
		domain.PluginRecord{InternalName: "nourl"},
	)

	require.NoError(t, l.DownloadAndLoadMissing(ctx, domain.AutoDownloadAll))

	assert.Equal(t, int32(1), hits.Load())
	data, err := os.ReadFile(filepath.Join(dir, "fresh.plugin"))
	require.NoError(t, err)
	assert.Equal(t, "plugin:/fresh", string(data))
	assert.Equal(t, []string{filepath.Join(dir, "fresh.plugin"), filepath.Join(dir, "present.plugin")}, l.Loaded())

	seen, ok, err := local.Get(ctx, KeySeenPlugins)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `["fresh"]`, seen)
}

func TestLoader_Modes(t *testing.T) {
	ctx := context.Background()
	ts, hits := pluginServer(t)
	dir := t.TempDir()
	local := memory.NewLocalStore()
	l := NewLoader(dir, local)
	setPlugins(t, local, domain.PluginRecord{InternalName: "p", URL: ts.URL + "/p"})

	require.NoError(t, l.DownloadAndLoadMissing(ctx, domain.AutoDownloadDisable))
	assert.Zero(t, hits.Load())

	require.NoError(t, l.DownloadAndLoadMissing(ctx, domain.AutoDownloadNewOnly))
	assert.Equal(t, int32(1), hits.Load())

	// Removed by hand: new_only leaves it, all fetches it again.
	require.NoError(t, os.Remove(filepath.Join(dir, "p.plugin")))
	require.NoError(t, l.DownloadAndLoadMissing(ctx, domain.AutoDownloadNewOnly))
	assert.Equal(t, int32(1), hits.Load())
	require.NoError(t, l.DownloadAndLoadMissing(ctx, domain.AutoDownloadAll))
	assert.Equal(t, int32(2), hits.Load())
}

func TestLoader_DownloadFailuresAreJoined(t *testing.T) {
	ctx := context.Background()
	ts, _ := pluginServer(t)
	dir := t.TempDir()
	local := memory.NewLocalStore()
	l := NewLoader(dir, local)
	setPlugins(t, local,
		domain.PluginRecord{InternalName: "bad", URL: ts.URL + "/missing"},
		domain.PluginRecord{InternalName: "good", URL: ts.URL + "/good"},
	)

	err := l.DownloadAndLoadMissing(ctx, domain.AutoDownloadAll)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	assert.FileExists(t, filepath.Join(dir, "good.plugin"))
	assert.NoFileExists(t, filepath.Join(dir, "bad.plugin"))
}

func TestLoader_MalformedRecords(t *testing.T) {
	local := memory.NewLocalStore()
	require.NoError(t, local.Set(context.Background(), domain.KeyPlugins, "{"))
	l := NewLoader(t.TempDir(), local)

	err := l.DownloadAndLoadMissing(context.Background(), domain.AutoDownloadAll)
	assert.ErrorIs(t, err, domain.ErrMalformedPayload)
}

func TestLoader_UnloadAndDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "a.plugin")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	l := NewLoader(dir, memory.NewLocalStore())
	require.NoError(t, l.Load())
	assert.True(t, l.IsLoaded("/anywhere/a.plugin"))

	require.NoError(t, l.Unload(ctx, path))
	require.NoError(t, l.Unload(ctx, path))
	assert.False(t, l.IsLoaded(path))

	require.NoError(t, l.DeleteFile(ctx, path))
	assert.NoFileExists(t, path)
	require.NoError(t, l.DeleteFile(ctx, path))
}

func TestLoader_LoadMissingDir(t *testing.T) {
	l := NewLoader(filepath.Join(t.TempDir(), "nope"), memory.NewLocalStore())
	require.NoError(t, l.Load())
	assert.Empty(t, l.Loaded())
}

func TestLoader_HandleFsEvent(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader(dir, memory.NewLocalStore())
	path := filepath.Join(dir, "a.plugin")

	assert.True(t, l.handleFsEvent(fsnotify.Event{Name: path, Op: fsnotify.Create}))
	assert.False(t, l.handleFsEvent(fsnotify.Event{Name: path, Op: fsnotify.Create}))
	assert.False(t, l.handleFsEvent(fsnotify.Event{Name: path, Op: fsnotify.Chmod}))
	assert.False(t, l.handleFsEvent(fsnotify.Event{Name: filepath.Join(dir, ".download-1"), Op: fsnotify.Create}))
	assert.True(t, l.handleFsEvent(fsnotify.Event{Name: path, Op: fsnotify.Remove}))
	assert.False(t, l.handleFsEvent(fsnotify.Event{Name: path, Op: fsnotify.Rename}))
	assert.Empty(t, l.Loaded())
}

func TestLoader_Watch(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader(dir, memory.NewLocalStore())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- l.Watch(ctx) }()

	path := filepath.Join(dir, "w.plugin")
	require.Eventually(t, func() bool {
		_ = os.Remove(path)
		_ = os.WriteFile(path, []byte("x"), 0o644)
		return l.IsLoaded(path)
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool { return !l.IsLoaded(path) }, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
