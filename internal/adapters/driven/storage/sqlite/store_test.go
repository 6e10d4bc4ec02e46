package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/statesync/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

// ==================== Store Creation and Initialization Tests ====================

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "nested"))
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "nested", DefaultFileName), store.Path())
	assert.FileExists(t, store.Path())

	version, err := store.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.LocalStore().Set(context.Background(), "k", "v"))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	v, ok, err := store.LocalStore().Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

// ==================== Local Store Tests ====================

func TestLocalStore_GetMissing(t *testing.T) {
	local := setupTestStore(t).LocalStore()

	v, ok, err := local.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestLocalStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	local := setupTestStore(t).LocalStore()

	require.NoError(t, local.Set(ctx, "settings/theme", `"dark"`))
	require.NoError(t, local.Set(ctx, "settings/theme", `"light"`))

	v, ok, err := local.Get(ctx, "settings/theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `"light"`, v)

	require.NoError(t, local.Delete(ctx, "settings/theme"))
	require.NoError(t, local.Delete(ctx, "settings/theme"))
	_, ok, err = local.Get(ctx, "settings/theme")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalStore_GetAllWithPrefix(t *testing.T) {
	ctx := context.Background()
	local := setupTestStore(t).LocalStore()

	for k, v := range map[string]string{
		"settings/a":      "1",
		"settings/b":      "2",
		"settingsx":       "3",
		"home_settings/a": "4",
		"résumé/1":        "5",
	} {
		require.NoError(t, local.Set(ctx, k, v))
	}

	got, err := local.GetAllWithPrefix(ctx, "settings/")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"settings/a": "1", "settings/b": "2"}, got)

	got, err = local.GetAllWithPrefix(ctx, "résumé/")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"résumé/1": "5"}, got)

	all, err := local.GetAllWithPrefix(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestLocalStore_WatchNotifiesOnlyRealChanges(t *testing.T) {
	ctx := context.Background()
	local := setupTestStore(t).LocalStore()

	var mu sync.Mutex
	var changes []domain.KeyChange
	cancel := local.Watch(func(c domain.KeyChange) {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, c)
	})

	require.NoError(t, local.Set(ctx, "k", "1"))
	require.NoError(t, local.Set(ctx, "k", "1"))
	require.NoError(t, local.Set(ctx, "k", "2"))
	require.NoError(t, local.Delete(ctx, "k"))
	require.NoError(t, local.Delete(ctx, "k"))
	cancel()
	require.NoError(t, local.Set(ctx, "k", "3"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []domain.KeyChange{
		{Key: "k", Old: "", New: "1", Created: true},
		{Key: "k", Old: "1", New: "2"},
		{Key: "k", Old: "2", Deleted: true},
	}, changes)
}

func TestLocalStore_CreatingEmptyValueIsAChange(t *testing.T) {
	ctx := context.Background()
	local := setupTestStore(t).LocalStore()

	var mu sync.Mutex
	var changes []domain.KeyChange
	local.Watch(func(c domain.KeyChange) {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, c)
	})

	require.NoError(t, local.Set(ctx, "k", ""))
	require.NoError(t, local.Set(ctx, "k", ""))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []domain.KeyChange{{Key: "k", Created: true}}, changes)
}

func TestLocalStore_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	local := setupTestStore(t).LocalStore()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				assert.NoError(t, local.Set(ctx, fmt.Sprintf("w%d/%d", i, j), "x"))
			}
		}(i)
	}
	wg.Wait()

	all, err := local.GetAllWithPrefix(ctx, "w")
	require.NoError(t, err)
	assert.Len(t, all, 80)
}

// ==================== Document Store Tests ====================

func TestDocumentStore_MissingDocument(t *testing.T) {
	docs := setupTestStore(t).DocumentStore()

	_, err := docs.Get(context.Background(), "proj", "acct")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_MergeIsPerField(t *testing.T) {
	ctx := context.Background()
	docs := setupTestStore(t).DocumentStore()

	w := domain.NewDocumentWrite()
	w.SetDomain(domain.DomainSettings, `{"settings/a":1}`)
	w.SetTimestamp(domain.FieldLastSync, 100)
	_, err := docs.Merge(ctx, "proj", "acct", w, 1_000)
	require.NoError(t, err)

	var w2 domain.DocumentWrite
	w2.SetDomain(domain.DomainAccounts, `{"user":"x"}`)
	doc, err := docs.Merge(ctx, "proj", "acct", w2, 2_000)
	require.NoError(t, err)

	assert.Equal(t, `{"settings/a":1}`, doc.Fields[string(domain.DomainSettings)])
	assert.Equal(t, `{"user":"x"}`, doc.Fields[string(domain.DomainAccounts)])
	assert.Equal(t, int64(1_000), doc.UpdatedAt(domain.DomainSettings))
	assert.Equal(t, int64(2_000), doc.UpdatedAt(domain.DomainAccounts))
	assert.Equal(t, int64(100), doc.LastSync())

	got, err := docs.Get(ctx, "proj", "acct")
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestDocumentStore_ScopedByProject(t *testing.T) {
	ctx := context.Background()
	docs := setupTestStore(t).DocumentStore()

	var w domain.DocumentWrite
	w.SetDomain(domain.DomainRepositories, "[]")
	_, err := docs.Merge(ctx, "p1", "acct", w, 1)
	require.NoError(t, err)

	_, err = docs.Get(ctx, "p2", "acct")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, docs.Delete(ctx, "p1", "acct"))
	_, err = docs.Get(ctx, "p1", "acct")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
