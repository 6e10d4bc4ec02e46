package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/statesync/internal/core/domain"
	"github.com/custodia-labs/statesync/internal/core/ports/driven"
)

// localStore implements driven.LocalStore over the kv table.
type localStore struct {
	store *Store
}

var _ driven.LocalStore = (*localStore)(nil)

// Get returns the value for key.
func (s *localStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.store.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying %s: %w", key, err)
	}
	return value, true, nil
}

// GetAllWithPrefix returns every entry whose key starts with prefix.
func (s *localStore) GetAllWithPrefix(ctx context.Context, prefix string) (map[string]string, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT key, value FROM kv WHERE substr(key, 1, length(?1)) = ?1", prefix)
	if err != nil {
		return nil, fmt.Errorf("querying prefix %q: %w", prefix, err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		// substr compares characters; recheck bytes to stay exact.
		if strings.HasPrefix(key, prefix) {
			out[key] = value
		}
	}
	return out, rows.Err()
}

// Set upserts value and notifies watchers when it changed.
func (s *localStore) Set(ctx context.Context, key, value string) error {
	s.store.writeMu.Lock()
	old, existed, err := s.Get(ctx, key)
	if err != nil {
		s.store.writeMu.Unlock()
		return err
	}
	if existed && old == value {
		s.store.writeMu.Unlock()
		return nil
	}
	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UnixMilli())
	s.store.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}

	s.store.feed.Publish(domain.KeyChange{Key: key, Old: old, New: value, Created: !existed})
	return nil
}

// Delete removes key and notifies watchers when it existed.
func (s *localStore) Delete(ctx context.Context, key string) error {
	s.store.writeMu.Lock()
	old, existed, err := s.Get(ctx, key)
	if err != nil || !existed {
		s.store.writeMu.Unlock()
		return err
	}
	_, err = s.store.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key)
	s.store.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}

	s.store.feed.Publish(domain.KeyChange{Key: key, Old: old, Deleted: true})
	return nil
}

// Watch registers fn for every mutation made through this store.
func (s *localStore) Watch(fn driven.ChangeFunc) func() {
	return s.store.feed.Watch(fn)
}
