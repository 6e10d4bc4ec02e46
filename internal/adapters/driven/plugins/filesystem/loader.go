package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/statesync/internal/core/domain"
	"github.com/custodia-labs/statesync/internal/core/ports/driven"
	"github.com/custodia-labs/statesync/internal/logger"
)

// Ensure Loader implements the interface.
var _ driven.PluginLoader = (*Loader)(nil)

// KeySeenPlugins lists every plugin key this device has fetched.
const KeySeenPlugins = domain.PrefixLocalOnly + "plugins_seen"

// maxPluginBytes bounds a single plugin download.
const maxPluginBytes = 32 << 20

// Loader loads plugin files from one directory.
type Loader struct {
	dir   string
	local driven.LocalStore
	http  *http.Client

	mu     sync.Mutex
	loaded map[string]struct{}

	// pendingMu serializes updates of the pending and ignored lists.
	pendingMu sync.Mutex
}

// NewLoader creates a loader for dir. Plugin records are read from local.
func NewLoader(dir string, local driven.LocalStore) *Loader {
	return &Loader{
		dir:    dir,
		local:  local,
		http:   &http.Client{Timeout: 2 * time.Minute},
		loaded: make(map[string]struct{}),
	}
}

// WithHTTPClient replaces the download client.
func (l *Loader) WithHTTPClient(hc *http.Client) *Loader {
	l.http = hc
	return l
}

// Dir returns the plugin directory.
func (l *Loader) Dir() string {
	return l.dir
}

// Path resolves a record's file path inside the plugin directory.
func (l *Loader) Path(pluginPath string) string {
	return filepath.Join(l.dir, filepath.Base(filepath.Clean(pluginPath)))
}

// LocalPath returns where a record's file lives on this device.
func (l *Loader) LocalPath(rec domain.PluginRecord) string {
	if rec.FilePath != "" {
		return l.Path(rec.FilePath)
	}
	return filepath.Join(l.dir, fileName(rec.InternalName))
}

// fileName derives a safe file name from an internal name.
func fileName(internalName string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, domain.PluginKey(internalName))
	if name == "" {
		name = "plugin"
	}
	return name + ".plugin"
}

// Load scans the directory and marks every plugin file present as loaded.
func (l *Loader) Load() error {
	entries, err := os.ReadDir(l.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read plugin dir: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		l.loaded[filepath.Join(l.dir, e.Name())] = struct{}{}
	}
	return nil
}

// Loaded returns the loaded plugin paths, sorted.
func (l *Loader) Loaded() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.loaded))
	for p := range l.loaded {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// IsLoaded reports whether the plugin at pluginPath is loaded.
func (l *Loader) IsLoaded(pluginPath string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.loaded[l.Path(pluginPath)]
	return ok
}

// Unload forgets a loaded plugin.
func (l *Loader) Unload(_ context.Context, pluginPath string) error {
	path := l.Path(pluginPath)
	l.mu.Lock()
	_, ok := l.loaded[path]
	delete(l.loaded, path)
	l.mu.Unlock()
	if ok {
		logger.Debug("unloaded plugin %s", path)
	}
	return nil
}

// DeleteFile removes a plugin file. A missing file is not an error.
func (l *Loader) DeleteFile(_ context.Context, pluginPath string) error {
	path := l.Path(pluginPath)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove plugin file: %w", err)
	}
	return nil
}

// DownloadAndLoadMissing fetches live plugins whose files are absent.
// In new_only mode, plugins fetched before are skipped. Plugins that are not
// fetched, or fail to download, are kept on the pending list for approval;
// ignored plugins are never fetched or offered.
func (l *Loader) DownloadAndLoadMissing(ctx context.Context, mode domain.AutoDownloadMode) error {
	l.pendingMu.Lock()
	defer l.pendingMu.Unlock()

	records, err := l.records(ctx)
	if err != nil {
		return err
	}
	seen, err := l.seen(ctx)
	if err != nil {
		return err
	}
	ignored, err := l.ignored(ctx)
	if err != nil {
		return err
	}
	before, err := l.pending(ctx)
	if err != nil {
		return err
	}

	var errs []error
	var pending []domain.PluginRecord
	fetched := false
	for _, rec := range records {
		if rec.IsDeleted || rec.URL == "" {
			continue
		}
		path := l.LocalPath(rec)
		if _, err := os.Stat(path); err == nil {
			l.markLoaded(path)
			continue
		}
		if ignored[rec.Key()] {
			continue
		}
		if mode == domain.AutoDownloadDisable ||
			(mode == domain.AutoDownloadNewOnly && seen[rec.Key()]) {
			logger.Debug("plugin %s awaits approval", rec.InternalName)
			pending = append(pending, rec)
			continue
		}
		if err := l.download(ctx, rec.URL, path); err != nil {
			errs = append(errs, fmt.Errorf("plugin %s: %w", rec.InternalName, err))
			pending = append(pending, rec)
			continue
		}
		l.markLoaded(path)
		seen[rec.Key()] = true
		fetched = true
		logger.Info("downloaded plugin %s", rec.InternalName)
	}

	if fetched {
		if err := l.saveSeen(ctx, seen); err != nil {
			errs = append(errs, err)
		}
	}
	if len(pending) > 0 || len(before) > 0 {
		if err := l.savePending(ctx, pending); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (l *Loader) markLoaded(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loaded[path] = struct{}{}
}

func (l *Loader) records(ctx context.Context) ([]domain.PluginRecord, error) {
	raw, ok, err := l.local.Get(ctx, domain.KeyPlugins)
	if err != nil {
		return nil, fmt.Errorf("read plugins: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var records []domain.PluginRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("%w: plugins: %v", domain.ErrMalformedPayload, err)
	}
	return records, nil
}

func (l *Loader) seen(ctx context.Context) (map[string]bool, error) {
	return l.keySet(ctx, KeySeenPlugins)
}

func (l *Loader) saveSeen(ctx context.Context, seen map[string]bool) error {
	return l.saveKeySet(ctx, KeySeenPlugins, seen)
}

// keySet reads a JSON array of plugin keys. A malformed value reads as empty.
func (l *Loader) keySet(ctx context.Context, storeKey string) (map[string]bool, error) {
	out := make(map[string]bool)
	raw, ok, err := l.local.Get(ctx, storeKey)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", storeKey, err)
	}
	if !ok || raw == "" {
		return out, nil
	}
	var keys []string
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		logger.Warn("ignoring malformed %s: %v", storeKey, err)
		return out, nil
	}
	for _, k := range keys {
		out[k] = true
	}
	return out, nil
}

func (l *Loader) saveKeySet(ctx context.Context, storeKey string, set map[string]bool) error {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	data, err := json.Marshal(keys)
	if err != nil {
		return fmt.Errorf("encode %s: %w", storeKey, err)
	}
	if err := l.local.Set(ctx, storeKey, string(data)); err != nil {
		return fmt.Errorf("write %s: %w", storeKey, err)
	}
	return nil
}

// download writes url to path through a temp file in the same directory.
func (l *Loader) download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("create plugin dir: %w", err)
	}
	tmp, err := os.CreateTemp(l.dir, ".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, maxPluginBytes+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	if n > maxPluginBytes {
		return fmt.Errorf("plugin exceeds %d bytes", maxPluginBytes)
	}
	return os.Rename(tmp.Name(), path)
}
