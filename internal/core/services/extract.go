package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/statesync/internal/core/domain"
)

// extractor serializes one domain of local state into a document field.
// ok is false when the domain has nothing to contribute.
type extractor func(ctx context.Context) (payload string, ok bool, err error)

type domainExtractor struct {
	domain  domain.Domain
	extract extractor
}

// extractors returns the extractor for every domain in push order.
func (e *SyncEngine) extractors() []domainExtractor {
	return []domainExtractor{
		{domain.DomainSettings, e.extractPreferences(domain.PrefixSettings)},
		{domain.DomainHomeSettings, e.extractPreferences(domain.PrefixHomeSettings)},
		{domain.DomainDataStoreDump, e.extractDataStoreDump},
		{domain.DomainRepositories, e.extractVerbatim(domain.KeyRepositories)},
		{domain.DomainAccounts, e.extractVerbatim(domain.KeyAccounts)},
		{domain.DomainPlugins, e.extractPlugins},
		{domain.DomainResumeWatching, e.extractResumeAlive},
		{domain.DomainResumeWatchingDeleted, e.extractResumeTombstones},
	}
}

// syncable reports whether a key may travel in a scalar payload at all.
func (e *SyncEngine) syncable(key string) bool {
	return !domain.IsSyncInternal(key) && !domain.IsLocalOnly(key) && !e.opts.DenyList.Denies(key)
}

// extractPreferences serializes every preference under prefix as a JSON
// object of scalar values.
func (e *SyncEngine) extractPreferences(prefix string) extractor {
	return func(ctx context.Context) (string, bool, error) {
		values, err := e.local.GetAllWithPrefix(ctx, prefix)
		if err != nil {
			return "", false, fmt.Errorf("read %s: %w", prefix, err)
		}
		out := make(map[string]json.RawMessage, len(values))
		for key, value := range values {
			if !e.syncable(key) {
				continue
			}
			out[key] = scalarJSON(value)
		}
		data, err := json.Marshal(out)
		if err != nil {
			return "", false, err
		}
		return string(data), true, nil
	}
}

// extractDataStoreDump serializes every key no other domain owns.
func (e *SyncEngine) extractDataStoreDump(ctx context.Context) (string, bool, error) {
	values, err := e.local.GetAllWithPrefix(ctx, "")
	if err != nil {
		return "", false, fmt.Errorf("read store: %w", err)
	}
	out := make(map[string]string)
	for key, value := range values {
		if owner, ok := domain.OwnerOf(key); !ok || owner != domain.DomainDataStoreDump {
			continue
		}
		if !e.syncable(key) {
			continue
		}
		out[key] = value
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

// extractVerbatim copies one local value. A missing key contributes nothing,
// so a device that never set it cannot blank it out elsewhere.
func (e *SyncEngine) extractVerbatim(key string) extractor {
	return func(ctx context.Context) (string, bool, error) {
		value, ok, err := e.local.Get(ctx, key)
		if err != nil {
			return "", false, fmt.Errorf("read %s: %w", key, err)
		}
		return value, ok, nil
	}
}

// extractPlugins serializes the full plugin list, soft-deleted entries included.
func (e *SyncEngine) extractPlugins(ctx context.Context) (string, bool, error) {
	records, ok, err := e.localPlugins(ctx)
	if err != nil || !ok {
		return "", false, err
	}
	data, err := json.Marshal(records)
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

func (e *SyncEngine) extractResumeAlive(ctx context.Context) (string, bool, error) {
	records, err := e.localResume(ctx)
	if err != nil {
		return "", false, err
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ParentID < records[j].ParentID })
	if records == nil {
		records = []domain.ResumeRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

func (e *SyncEngine) extractResumeTombstones(ctx context.Context) (string, bool, error) {
	tombs, err := e.localTombstones(ctx)
	if err != nil {
		return "", false, err
	}
	data, err := json.Marshal(tombs)
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

// localPlugins reads the stored plugin list. ok is false if none was ever stored.
func (e *SyncEngine) localPlugins(ctx context.Context) ([]domain.PluginRecord, bool, error) {
	raw, ok, err := e.local.Get(ctx, domain.KeyPlugins)
	if err != nil {
		return nil, false, fmt.Errorf("read plugins: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	records, err := decodePlugins(raw)
	if err != nil {
		return nil, false, fmt.Errorf("local plugins: %w", err)
	}
	return records, true, nil
}

// localResume reads every alive resume record. Unreadable records are logged
// and skipped.
func (e *SyncEngine) localResume(ctx context.Context) ([]domain.ResumeRecord, error) {
	values, err := e.local.GetAllWithPrefix(ctx, domain.PrefixResumeWatching)
	if err != nil {
		return nil, fmt.Errorf("read resume records: %w", err)
	}
	var out []domain.ResumeRecord
	for key, raw := range values {
		id, ok := domain.ParseResumeKey(key)
		if !ok {
			continue
		}
		var rec domain.ResumeRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			e.fail("skip resume record %s: %v", key, err)
			continue
		}
		rec.ParentID = id
		out = append(out, rec)
	}
	return out, nil
}

func (e *SyncEngine) localTombstones(ctx context.Context) (domain.Tombstones, error) {
	raw, ok, err := e.local.Get(ctx, domain.KeyResumeDeleted)
	if err != nil {
		return nil, fmt.Errorf("read tombstones: %w", err)
	}
	if !ok {
		return domain.Tombstones{}, nil
	}
	return decodeTombstones(raw)
}

// scalarJSON returns value as a JSON scalar. Stored preferences are JSON
// text already; anything else is treated as a plain string.
func scalarJSON(value string) json.RawMessage {
	if isScalarJSON([]byte(value)) {
		return json.RawMessage(value)
	}
	data, _ := json.Marshal(value)
	return data
}

// canonicalScalar returns the compact wire form of a stored preference.
func canonicalScalar(value string) string {
	raw := scalarJSON(value)
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func isScalarJSON(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return false
	}
	return trimmed[0] != '{' && trimmed[0] != '['
}

func decodePlugins(raw string) ([]domain.PluginRecord, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var records []domain.PluginRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("%w: plugins: %v", domain.ErrMalformedPayload, err)
	}
	return records, nil
}

func decodeTombstones(raw string) (domain.Tombstones, error) {
	tombs := domain.Tombstones{}
	if strings.TrimSpace(raw) == "" {
		return tombs, nil
	}
	if err := json.Unmarshal([]byte(raw), &tombs); err != nil {
		return nil, fmt.Errorf("%w: tombstones: %v", domain.ErrMalformedPayload, err)
	}
	return tombs, nil
}
