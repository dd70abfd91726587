package kv_test

import (
	"context"
	"testing"
	"time"

	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedKV_SetAndGet(t *testing.T) {
	ctx := context.Background()
	typed := kv.Scoped[string](kv.NewMemory(), "test")

	require.NoError(t, typed.Set(ctx, "greeting", "hello"))

	got, err := typed.Get(ctx, "greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestTypedKV_ScopedPrefix(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()

	gradings := kv.Scoped[int](store, "usage")
	profiles := kv.Scoped[int](store, "profile")

	require.NoError(t, gradings.Set(ctx, "gradings:2026-10-18", 3))
	require.NoError(t, profiles.Set(ctx, "gradings:2026-10-18", 9))

	a, err := gradings.Get(ctx, "gradings:2026-10-18")
	require.NoError(t, err)
	assert.Equal(t, 3, a)

	keys, err := store.ListKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"profile:gradings:2026-10-18", "usage:gradings:2026-10-18"}, keys)
}

func TestTypedKV_GetOr(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	typed := kv.Scoped[int](store, "usage")

	got, err := typed.GetOr(ctx, "missing", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, got)

	store.SetRaw("usage:corrupt", []byte("{not json"))
	got, err = typed.GetOr(ctx, "corrupt", 0)
	require.NoError(t, err, "corrupt values are treated as absent")
	assert.Equal(t, 0, got)
}

func TestMemory_GetNotFound(t *testing.T) {
	var v string
	err := kv.NewMemory().Get(context.Background(), "nope", &v)
	assert.ErrorIs(t, err, kv.ErrNotFound)
	assert.True(t, kv.IsNotFound(err))
}

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()

	require.NoError(t, store.SetTTL(ctx, "temp", "gone", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	has, err := store.Has(ctx, "temp")
	require.NoError(t, err)
	assert.False(t, has)

	var v string
	assert.ErrorIs(t, store.Get(ctx, "temp", &v), kv.ErrNotFound)
}

func TestMemory_SweepExpired(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()

	require.NoError(t, store.SetTTL(ctx, "old", 1, time.Millisecond))
	require.NoError(t, store.Set(ctx, "keep", 2))
	time.Sleep(5 * time.Millisecond)

	require.NoError(t, store.SweepExpired(ctx))

	keys, err := store.ListKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, keys)
}

func TestMemory_GetRaw(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()

	require.NoError(t, store.SetTTL(ctx, "k", map[string]int{"a": 1}, time.Hour))

	entry, err := store.GetRaw(ctx, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(entry.Value))
	require.NotNil(t, entry.ExpiresAt)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestMemory_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()

	in := []string{"a", "b"}
	require.NoError(t, store.Set(ctx, "list", in))
	in[0] = "mutated"

	var out []string
	require.NoError(t, store.Get(ctx, "list", &out))
	assert.Equal(t, []string{"a", "b"}, out)
}
