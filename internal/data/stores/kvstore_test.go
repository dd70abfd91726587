package stores

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/kv"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/data/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKVStore(t *testing.T) *KVStore {
	t.Helper()
	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return NewKVStore(database)
}

func TestKVStore_SetAndGet(t *testing.T) {
	ctx := context.Background()
	store := newTestKVStore(t)

	type payload struct {
		Name  string `json:"name"`
		Value int    `json:"value"`
	}

	require.NoError(t, store.Set(ctx, "test-key", payload{Name: "hello", Value: 42}))

	var got payload
	require.NoError(t, store.Get(ctx, "test-key", &got))
	assert.Equal(t, "hello", got.Name)
	assert.Equal(t, 42, got.Value)
}

func TestKVStore_GetNotFound(t *testing.T) {
	store := newTestKVStore(t)

	var v string
	err := store.Get(context.Background(), "nonexistent", &v)
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestKVStore_SetOverwrite(t *testing.T) {
	ctx := context.Background()
	store := newTestKVStore(t)

	require.NoError(t, store.Set(ctx, "key", "first"))
	require.NoError(t, store.Set(ctx, "key", "second"))

	var got string
	require.NoError(t, store.Get(ctx, "key", &got))
	assert.Equal(t, "second", got)
}

func TestKVStore_CorruptValue(t *testing.T) {
	ctx := context.Background()
	store := newTestKVStore(t)

	_, err := store.db.Conn().ExecContext(ctx,
		"INSERT INTO kv_store (key, value, created_at, updated_at) VALUES (?, ?, 0, 0)",
		"broken", []byte("{nope"))
	require.NoError(t, err)

	var v map[string]any
	err = store.Get(ctx, "broken", &v)
	assert.True(t, kv.IsDecodeError(err))
}

func TestKVStore_TTLAndSweep(t *testing.T) {
	ctx := context.Background()
	store := newTestKVStore(t)

	require.NoError(t, store.SetTTL(ctx, "usage:gradings:2026-10-17", 4, time.Millisecond))
	require.NoError(t, store.Set(ctx, "notifications", []int{1}))
	time.Sleep(5 * time.Millisecond)

	has, err := store.Has(ctx, "usage:gradings:2026-10-17")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, store.SetTTL(ctx, "usage:oracle:2026-10-17", 1, time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, store.SweepExpired(ctx))

	var count int
	require.NoError(t, store.db.Conn().QueryRowContext(ctx, "SELECT COUNT(*) FROM kv_store").Scan(&count))
	assert.Equal(t, 1, count)

	keys, err := store.ListKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"notifications"}, keys)
}

func TestKVStore_GetRaw(t *testing.T) {
	ctx := context.Background()
	store := newTestKVStore(t)

	require.NoError(t, store.SetTTL(ctx, "k", "v", time.Hour))

	entry, err := store.GetRaw(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "k", entry.Key)
	assert.JSONEq(t, `"v"`, string(entry.Value))
	require.NotNil(t, entry.ExpiresAt)
	assert.True(t, entry.ExpiresAt.After(time.Now()))
}

func TestKVStore_Persists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	database, err := db.Open(dir, db.DefaultOpenOptions())
	require.NoError(t, err)
	require.NoError(t, NewKVStore(database).Set(ctx, "profile:current", map[string]string{"id": "u1"}))
	require.NoError(t, database.Close())

	database, err = db.Open(dir, db.DefaultOpenOptions())
	require.NoError(t, err)
	defer func() { _ = database.Close() }()

	var got map[string]string
	require.NoError(t, NewKVStore(database).Get(ctx, "profile:current", &got))
	assert.Equal(t, "u1", got["id"])
}

func TestRecoverFromCorruption(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, db.FileName)
	require.NoError(t, os.WriteFile(dbPath, []byte("garbage"), 0o644))
	require.NoError(t, os.WriteFile(dbPath+"-wal", []byte("wal"), 0o644))

	require.NoError(t, RecoverFromCorruption(dir))

	_, err := os.Stat(dbPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(dbPath + "-wal")
	assert.True(t, os.IsNotExist(err))

	matches, err := filepath.Glob(filepath.Join(dir, db.FileName+".corrupt.*"))
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestKVStore_IsCorruptionError(t *testing.T) {
	assert.False(t, IsCorruptionError(nil))
	assert.False(t, IsCorruptionError(assert.AnError))
	assert.True(t, IsCorruptionError(errString("file is not a database")))
}

type errString string

func (e errString) Error() string { return string(e) }
