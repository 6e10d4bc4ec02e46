package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/custodia-labs/statesync/internal/core/domain"
	"github.com/custodia-labs/statesync/internal/core/ports/driving"
	"github.com/custodia-labs/statesync/internal/logger"
)

var _ driving.PluginApprovalService = (*Loader)(nil)

// Local-only keys for plugins awaiting approval on this device.
const (
	KeyPendingPlugins = domain.PrefixLocalOnly + "plugins_pending"
	KeyIgnoredPlugins = domain.PrefixLocalOnly + "plugins_ignored"
)

// Pending returns pending plugins that are still live in the plugin list
// and whose file is still absent.
func (l *Loader) Pending(ctx context.Context) ([]domain.PluginRecord, error) {
	l.pendingMu.Lock()
	defer l.pendingMu.Unlock()
	return l.pending(ctx)
}

// InstallPending downloads one pending plugin and removes it from the list.
func (l *Loader) InstallPending(ctx context.Context, internalName string) error {
	l.pendingMu.Lock()
	defer l.pendingMu.Unlock()

	pending, err := l.pending(ctx)
	if err != nil {
		return err
	}
	key := domain.PluginKey(internalName)
	for i, rec := range pending {
		if rec.Key() != key {
			continue
		}
		if err := l.fetch(ctx, rec); err != nil {
			return fmt.Errorf("plugin %s: %w", rec.InternalName, err)
		}
		return l.savePending(ctx, append(pending[:i:i], pending[i+1:]...))
	}
	return fmt.Errorf("%w: %s is not pending", domain.ErrNotFound, internalName)
}

// InstallAllPending downloads every pending plugin. Failures stay pending
// and are returned joined.
func (l *Loader) InstallAllPending(ctx context.Context) (int, error) {
	l.pendingMu.Lock()
	defer l.pendingMu.Unlock()

	pending, err := l.pending(ctx)
	if err != nil {
		return 0, err
	}
	var errs []error
	var remaining []domain.PluginRecord
	for _, rec := range pending {
		if err := l.fetch(ctx, rec); err != nil {
			errs = append(errs, fmt.Errorf("plugin %s: %w", rec.InternalName, err))
			remaining = append(remaining, rec)
		}
	}
	if err := l.savePending(ctx, remaining); err != nil {
		errs = append(errs, err)
	}
	return len(pending) - len(remaining), errors.Join(errs...)
}

// IgnorePending removes a plugin from the pending list and stops it from
// being offered or auto-downloaded again.
func (l *Loader) IgnorePending(ctx context.Context, internalName string) error {
	l.pendingMu.Lock()
	defer l.pendingMu.Unlock()

	pending, err := l.pending(ctx)
	if err != nil {
		return err
	}
	key := domain.PluginKey(internalName)
	kept := pending[:0:0]
	for _, rec := range pending {
		if rec.Key() != key {
			kept = append(kept, rec)
		}
	}
	if len(kept) == len(pending) {
		return fmt.Errorf("%w: %s is not pending", domain.ErrNotFound, internalName)
	}
	if err := l.addIgnored(ctx, key); err != nil {
		return err
	}
	return l.savePending(ctx, kept)
}

// IgnoreAllPending ignores every pending plugin.
func (l *Loader) IgnoreAllPending(ctx context.Context) (int, error) {
	l.pendingMu.Lock()
	defer l.pendingMu.Unlock()

	pending, err := l.pending(ctx)
	if err != nil || len(pending) == 0 {
		return 0, err
	}
	keys := make([]string, 0, len(pending))
	for _, rec := range pending {
		keys = append(keys, rec.Key())
	}
	if err := l.addIgnored(ctx, keys...); err != nil {
		return 0, err
	}
	return len(pending), l.savePending(ctx, nil)
}

// fetch downloads rec into the plugin directory and records it as seen.
func (l *Loader) fetch(ctx context.Context, rec domain.PluginRecord) error {
	path := l.LocalPath(rec)
	if err := l.download(ctx, rec.URL, path); err != nil {
		return err
	}
	l.markLoaded(path)
	seen, err := l.seen(ctx)
	if err != nil {
		return err
	}
	seen[rec.Key()] = true
	logger.Info("installed pending plugin %s", rec.InternalName)
	return l.saveSeen(ctx, seen)
}

func (l *Loader) pending(ctx context.Context) ([]domain.PluginRecord, error) {
	raw, ok, err := l.local.Get(ctx, KeyPendingPlugins)
	if err != nil {
		return nil, fmt.Errorf("read pending plugins: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var records []domain.PluginRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		logger.Warn("ignoring malformed %s: %v", KeyPendingPlugins, err)
		return nil, nil
	}
	current, err := l.records(ctx)
	if err != nil {
		return nil, err
	}
	live := make(map[string]bool, len(current))
	for _, rec := range current {
		if !rec.IsDeleted {
			live[rec.Key()] = true
		}
	}

	out := records[:0]
	for _, rec := range records {
		if !live[rec.Key()] {
			continue
		}
		if _, err := os.Stat(l.LocalPath(rec)); err == nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (l *Loader) savePending(ctx context.Context, records []domain.PluginRecord) error {
	if records == nil {
		records = []domain.PluginRecord{}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Key() < records[j].Key() })
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode pending plugins: %w", err)
	}
	if err := l.local.Set(ctx, KeyPendingPlugins, string(data)); err != nil {
		return fmt.Errorf("write pending plugins: %w", err)
	}
	return nil
}

func (l *Loader) ignored(ctx context.Context) (map[string]bool, error) {
	return l.keySet(ctx, KeyIgnoredPlugins)
}

func (l *Loader) addIgnored(ctx context.Context, keys ...string) error {
	set, err := l.ignored(ctx)
	if err != nil {
		return err
	}
	for _, k := range keys {
		set[k] = true
	}
	return l.saveKeySet(ctx, KeyIgnoredPlugins, set)
}
