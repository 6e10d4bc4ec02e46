package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/statesync/internal/core/crdt"
	"github.com/custodia-labs/statesync/internal/core/domain"
	"github.com/custodia-labs/statesync/internal/logger"
)

// applier merges one incoming document field into local state and reports
// whether local state changed.
type applier func(ctx context.Context, payload string) (changed bool, err error)

type domainApplier struct {
	domain domain.Domain
	apply  applier
}

// appliers returns the scalar and plugin appliers in dispatch order.
// Resume watching is applied separately because its two fields travel together.
func (e *SyncEngine) appliers() []domainApplier {
	return []domainApplier{
		{domain.DomainSettings, e.applyPreferences(domain.PrefixSettings)},
		{domain.DomainHomeSettings, e.applyPreferences(domain.PrefixHomeSettings)},
		{domain.DomainDataStoreDump, e.applyDataStoreDump},
		{domain.DomainRepositories, e.applyVerbatim(domain.KeyRepositories)},
		{domain.DomainAccounts, e.applyVerbatim(domain.KeyAccounts)},
		{domain.DomainPlugins, e.applyPlugins},
	}
}

// applyPreferences overwrites local preferences under prefix with every
// differing remote value. Non-scalar values are skipped individually.
func (e *SyncEngine) applyPreferences(prefix string) applier {
	return func(ctx context.Context, payload string) (bool, error) {
		var remote map[string]json.RawMessage
		if err := json.Unmarshal([]byte(payload), &remote); err != nil {
			return false, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
		}

		incoming := make(map[string]string, len(remote))
		for key, raw := range remote {
			if !strings.HasPrefix(key, prefix) || !e.syncable(key) {
				continue
			}
			if !isScalarJSON(raw) {
				e.fail("skip %s: value is not a scalar", key)
				continue
			}
			var buf bytes.Buffer
			if err := json.Compact(&buf, raw); err != nil {
				continue
			}
			incoming[key] = buf.String()
		}

		local, err := e.local.GetAllWithPrefix(ctx, prefix)
		if err != nil {
			return false, fmt.Errorf("read %s: %w", prefix, err)
		}
		// Compare in wire form so a value echoed back from this device's
		// own push matches what is stored locally.
		for key, value := range local {
			local[key] = canonicalScalar(value)
		}
		return e.writeScalars(ctx, crdt.OverwriteScalars(incoming, local, nil))
	}
}

// applyDataStoreDump overwrites catch-all keys. Keys owned by a more
// specific domain are never written from the dump.
func (e *SyncEngine) applyDataStoreDump(ctx context.Context, payload string) (bool, error) {
	var remote map[string]string
	if err := json.Unmarshal([]byte(payload), &remote); err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}

	local, err := e.local.GetAllWithPrefix(ctx, "")
	if err != nil {
		return false, fmt.Errorf("read store: %w", err)
	}
	writes := crdt.OverwriteScalars(remote, local, func(key string) bool {
		owner, ok := domain.OwnerOf(key)
		return ok && owner == domain.DomainDataStoreDump && e.syncable(key)
	})
	return e.writeScalars(ctx, writes)
}

func (e *SyncEngine) applyVerbatim(key string) applier {
	return func(ctx context.Context, payload string) (bool, error) {
		cur, ok, err := e.local.Get(ctx, key)
		if err != nil {
			return false, fmt.Errorf("read %s: %w", key, err)
		}
		if ok && cur == payload {
			return false, nil
		}
		if err := e.local.Set(ctx, key, payload); err != nil {
			return false, fmt.Errorf("write %s: %w", key, err)
		}
		return true, nil
	}
}

func (e *SyncEngine) writeScalars(ctx context.Context, writes []crdt.ScalarWrite) (bool, error) {
	var errs []error
	changed := false
	for _, w := range writes {
		if err := e.local.Set(ctx, w.Key, w.Value); err != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", w.Key, err))
			continue
		}
		changed = true
	}
	return changed, errors.Join(errs...)
}

// applyPlugins merges the remote plugin list, removes files of deleted
// plugins, persists the result and asks the loader for anything missing.
func (e *SyncEngine) applyPlugins(ctx context.Context, payload string) (bool, error) {
	remote, err := decodePlugins(payload)
	if err != nil {
		return false, err
	}

	raw, _, err := e.local.Get(ctx, domain.KeyPlugins)
	if err != nil {
		return false, fmt.Errorf("read plugins: %w", err)
	}
	local, err := decodePlugins(raw)
	if err != nil {
		return false, fmt.Errorf("local plugins: %w", err)
	}

	watermark := e.watermark(ctx)
	merge := crdt.MergePlugins(remote, local, watermark, e.nowMs())
	for _, key := range merge.Synthesized {
		logger.Info("plugin %s is gone remotely, marking deleted", key)
	}
	records, pruned := crdt.PrunePlugins(merge.Records, e.retentionCutoff(watermark))
	if pruned > 0 {
		logger.Debug("pruned %d expired plugin deletions", pruned)
	}

	// 1. Remove deleted plugins from this device
	for _, rec := range records {
		if rec.IsDeleted {
			e.removePluginFile(ctx, rec)
		}
	}

	// 2. Persist the merged list
	changed := false
	data, err := json.Marshal(records)
	if err != nil {
		return false, fmt.Errorf("encode plugins: %w", err)
	}
	if string(data) != raw {
		if err := e.local.Set(ctx, domain.KeyPlugins, string(data)); err != nil {
			return false, fmt.Errorf("write plugins: %w", err)
		}
		changed = true
	}

	// 3. Fetch anything live but missing
	if merge.HasLive() && e.loader != nil {
		if err := e.loader.DownloadAndLoadMissing(ctx, e.opts.DownloadMode); err != nil {
			e.fail("load missing plugins: %v", err)
		}
	}
	return changed, nil
}

// removePluginFile unloads and deletes one plugin. Failures are logged and
// never abort the merge.
func (e *SyncEngine) removePluginFile(ctx context.Context, rec domain.PluginRecord) {
	if e.loader == nil || rec.FilePath == "" {
		return
	}
	if err := e.loader.Unload(ctx, rec.FilePath); err != nil {
		e.fail("unload plugin %s: %v", rec.InternalName, err)
	}
	if err := e.loader.DeleteFile(ctx, rec.FilePath); err != nil {
		e.fail("delete plugin file %s: %v", rec.FilePath, err)
	}
}

// applyResume merges both resume-watching fields together. It does nothing
// when the document carries neither.
func (e *SyncEngine) applyResume(ctx context.Context, doc *domain.RemoteDocument) (bool, error) {
	alivePayload, hasAlive := doc.Payload(domain.DomainResumeWatching)
	tombPayload, hasTombs := doc.Payload(domain.DomainResumeWatchingDeleted)
	if !hasAlive && !hasTombs {
		return false, nil
	}

	var remoteAlive []domain.ResumeRecord
	if hasAlive && strings.TrimSpace(alivePayload) != "" {
		if err := json.Unmarshal([]byte(alivePayload), &remoteAlive); err != nil {
			return false, fmt.Errorf("%w: resume records: %v", domain.ErrMalformedPayload, err)
		}
	}
	remoteTombs := domain.Tombstones{}
	if hasTombs {
		var err error
		if remoteTombs, err = decodeTombstones(tombPayload); err != nil {
			return false, err
		}
	}

	localAlive, err := e.localResume(ctx)
	if err != nil {
		return false, err
	}
	localTombs, err := e.localTombstones(ctx)
	if err != nil {
		return false, err
	}

	m := crdt.MergeResumePruned(
		crdt.NewResumeState(localAlive, localTombs),
		crdt.NewResumeState(remoteAlive, remoteTombs),
		e.retentionCutoff(e.watermark(ctx)),
	)
	if m.IsNoop() {
		return false, nil
	}

	var errs []error
	for _, rec := range m.Upserts {
		data, err := json.Marshal(rec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := e.local.Set(ctx, domain.ResumeKey(rec.ParentID), string(data)); err != nil {
			errs = append(errs, fmt.Errorf("write resume %d: %w", rec.ParentID, err))
		}
	}
	for _, id := range m.Deletes {
		if err := e.local.Delete(ctx, domain.ResumeKey(id)); err != nil {
			errs = append(errs, fmt.Errorf("delete resume %d: %w", id, err))
		}
	}
	if m.TombstonesChanged {
		data, err := json.Marshal(m.State.Tombstones)
		if err == nil {
			err = e.local.Set(ctx, domain.KeyResumeDeleted, string(data))
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("write tombstones: %w", err))
		}
	}
	logger.Debug("resume merge: %d upserts, %d deletes", len(m.Upserts), len(m.Deletes))
	return true, errors.Join(errs...)
}
