package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/statesync/internal/core/domain"
	"github.com/custodia-labs/statesync/internal/core/ports/driven"
	"github.com/custodia-labs/statesync/internal/core/ports/driving"
)

// Ensure StateService implements the interface.
var _ driving.StateService = (*StateService)(nil)

// StateService mutates local state the way the host application does.
type StateService struct {
	local driven.LocalStore
	clock func() time.Time
}

// NewStateService creates a new state service. A nil clock uses time.Now.
func NewStateService(local driven.LocalStore, clock func() time.Time) *StateService {
	if clock == nil {
		clock = time.Now
	}
	return &StateService{local: local, clock: clock}
}

// SetValue stores a raw value. Sync-internal keys are rejected, and
// preferences must be JSON scalar text (`true`, `1.5`, `"dark"`).
func (s *StateService) SetValue(ctx context.Context, key, value string) error {
	if err := validateUserKey(key); err != nil {
		return err
	}
	if isPreferenceKey(key) && !isScalarJSON([]byte(value)) {
		return fmt.Errorf("%w: %s must be a JSON scalar, quote strings as \"text\"",
			domain.ErrInvalidInput, key)
	}
	return s.local.Set(ctx, key, value)
}

func isPreferenceKey(key string) bool {
	return strings.HasPrefix(key, domain.PrefixSettings) || strings.HasPrefix(key, domain.PrefixHomeSettings)
}

// GetValue reads a raw value.
func (s *StateService) GetValue(ctx context.Context, key string) (string, bool, error) {
	return s.local.Get(ctx, key)
}

// DeleteValue removes a key. Sync-internal keys are rejected.
func (s *StateService) DeleteValue(ctx context.Context, key string) error {
	if err := validateUserKey(key); err != nil {
		return err
	}
	return s.local.Delete(ctx, key)
}

// ListValues returns every key with the given prefix.
func (s *StateService) ListValues(ctx context.Context, prefix string) (map[string]string, error) {
	return s.local.GetAllWithPrefix(ctx, prefix)
}

func validateUserKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty key", domain.ErrInvalidInput)
	}
	if domain.IsSyncInternal(key) {
		return fmt.Errorf("%w: %s is managed by the sync engine", domain.ErrInvalidInput, key)
	}
	return nil
}

// SaveResume records watch progress. A zero UpdateTime is stamped with now.
// Any tombstone for the same title is cleared, since the record is newer.
func (s *StateService) SaveResume(ctx context.Context, rec domain.ResumeRecord) error {
	if rec.ParentID <= 0 {
		return fmt.Errorf("%w: parent id must be positive", domain.ErrInvalidInput)
	}
	if rec.UpdateTime == 0 {
		rec.UpdateTime = s.clock().UnixMilli()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode resume record: %w", err)
	}
	if err := s.local.Set(ctx, domain.ResumeKey(rec.ParentID), string(data)); err != nil {
		return fmt.Errorf("save resume record: %w", err)
	}

	tombs, err := s.tombstones(ctx)
	if err != nil {
		return err
	}
	if ts, ok := tombs[rec.ParentID]; ok && ts < rec.UpdateTime {
		delete(tombs, rec.ParentID)
		return s.saveTombstones(ctx, tombs)
	}
	return nil
}

// DeleteResume removes watch progress and records a tombstone stamped now.
func (s *StateService) DeleteResume(ctx context.Context, parentID int) error {
	key := domain.ResumeKey(parentID)
	if _, ok, err := s.local.Get(ctx, key); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("resume record %d: %w", parentID, domain.ErrNotFound)
	}

	tombs, err := s.tombstones(ctx)
	if err != nil {
		return err
	}
	tombs[parentID] = s.clock().UnixMilli()
	if err := s.saveTombstones(ctx, tombs); err != nil {
		return err
	}
	return s.local.Delete(ctx, key)
}

// ListResume returns alive records sorted by parent id and the tombstones.
func (s *StateService) ListResume(ctx context.Context) ([]domain.ResumeRecord, domain.Tombstones, error) {
	values, err := s.local.GetAllWithPrefix(ctx, domain.PrefixResumeWatching)
	if err != nil {
		return nil, nil, err
	}
	records := make([]domain.ResumeRecord, 0, len(values))
	for key, raw := range values {
		id, ok := domain.ParseResumeKey(key)
		if !ok {
			continue
		}
		var rec domain.ResumeRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			continue
		}
		rec.ParentID = id
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ParentID < records[j].ParentID })

	tombs, err := s.tombstones(ctx)
	if err != nil {
		return nil, nil, err
	}
	return records, tombs, nil
}

func (s *StateService) tombstones(ctx context.Context) (domain.Tombstones, error) {
	raw, ok, err := s.local.Get(ctx, domain.KeyResumeDeleted)
	if err != nil {
		return nil, err
	}
	if !ok {
		return domain.Tombstones{}, nil
	}
	return decodeTombstones(raw)
}

func (s *StateService) saveTombstones(ctx context.Context, tombs domain.Tombstones) error {
	data, err := json.Marshal(tombs)
	if err != nil {
		return fmt.Errorf("encode tombstones: %w", err)
	}
	return s.local.Set(ctx, domain.KeyResumeDeleted, string(data))
}

// InstallPlugin adds a plugin or revives a removed one. A zero AddedDate is
// stamped with now.
func (s *StateService) InstallPlugin(ctx context.Context, rec domain.PluginRecord) error {
	if rec.Key() == "" {
		return fmt.Errorf("%w: plugin internal name is required", domain.ErrInvalidInput)
	}
	if rec.AddedDate == 0 {
		rec.AddedDate = s.clock().UnixMilli()
	}
	rec.IsDeleted = false

	records, err := s.ListPlugins(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range records {
		if records[i].Key() == rec.Key() {
			records[i] = rec
			replaced = true
		}
	}
	if !replaced {
		records = append(records, rec)
	}
	return s.savePlugins(ctx, records)
}

// RemovePlugin soft-deletes a plugin so the deletion propagates.
func (s *StateService) RemovePlugin(ctx context.Context, internalName string) error {
	records, err := s.ListPlugins(ctx)
	if err != nil {
		return err
	}
	key := domain.PluginKey(internalName)
	found := false
	for i := range records {
		if records[i].Key() == key && !records[i].IsDeleted {
			records[i].IsDeleted = true
			records[i].AddedDate = s.clock().UnixMilli()
			found = true
		}
	}
	if !found {
		return fmt.Errorf("plugin %s: %w", internalName, domain.ErrNotFound)
	}
	return s.savePlugins(ctx, records)
}

// ListPlugins returns every plugin record, soft-deleted ones included.
func (s *StateService) ListPlugins(ctx context.Context) ([]domain.PluginRecord, error) {
	raw, ok, err := s.local.Get(ctx, domain.KeyPlugins)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return decodePlugins(raw)
}

func (s *StateService) savePlugins(ctx context.Context, records []domain.PluginRecord) error {
	sort.Slice(records, func(i, j int) bool { return records[i].Key() < records[j].Key() })
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode plugins: %w", err)
	}
	return s.local.Set(ctx, domain.KeyPlugins, string(data))
}

// SetDomainEnabled switches a domain on or off for this device.
func (s *StateService) SetDomainEnabled(ctx context.Context, d domain.Domain, enabled bool) error {
	if !d.IsValid() {
		return fmt.Errorf("%w: unknown domain %q", domain.ErrInvalidInput, d)
	}
	return s.local.Set(ctx, domain.ToggleKey(d), strconv.FormatBool(enabled))
}
