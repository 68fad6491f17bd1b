package redisdb

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/streamingfast/algebra-analytics/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T, prefix string) (*miniredis.Miniredis, *Store) {
	t.Helper()

	mr := miniredis.RunT(t)
	store := NewFromClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}), prefix)
	t.Cleanup(func() { _ = store.Close() })

	return mr, store
}

func TestNew_PingsServer(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := New(context.Background(), Config{Addr: mr.Addr(), Prefix: "algebra:"})
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

func TestStore_CommitAndGet(t *testing.T) {
	ctx := context.Background()
	mr, store := setupTestStore(t, "qs:")

	_, err := store.Get(ctx, "Pool:0xabc")
	assert.ErrorIs(t, err, state.ErrNotFound)

	require.NoError(t, store.Commit(ctx, []state.StateDelta{
		{Op: "c", Key: "Pool:0xabc", NewValue: []byte(`{"id":"0xabc"}`)},
		{Op: "c", Key: "Bundle:1", NewValue: []byte(`{"id":"1"}`)},
	}))

	raw, err := mr.Get("qs:Pool:0xabc")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"0xabc"}`, raw)

	require.NoError(t, store.Commit(ctx, []state.StateDelta{
		{Op: "d", Key: "Pool:0xabc"},
	}))
	assert.False(t, mr.Exists("qs:Pool:0xabc"))

	value, err := store.Get(ctx, "Bundle:1")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"1"}`, string(value))
}

func TestStore_CommitRejectsUnknownOp(t *testing.T) {
	ctx := context.Background()
	mr, store := setupTestStore(t, "")

	err := store.Commit(ctx, []state.StateDelta{
		{Op: "c", Key: "Pool:a", NewValue: []byte("1")},
		{Op: "?", Key: "Pool:b"},
	})
	require.Error(t, err)
	assert.False(t, mr.Exists("Pool:a"))
}

func TestStore_ForEach(t *testing.T) {
	ctx := context.Background()
	_, store := setupTestStore(t, "p:")

	require.NoError(t, store.Commit(ctx, []state.StateDelta{
		{Op: "c", Key: "Token:0x02", NewValue: []byte("2")},
		{Op: "c", Key: "Token:0x01", NewValue: []byte("1")},
		{Op: "c", Key: "Pool:0x99", NewValue: []byte("p")},
	}))

	got := map[string]string{}
	var keys []string
	require.NoError(t, store.ForEach(ctx, "Token", func(key string, value []byte) error {
		keys = append(keys, key)
		got[key] = string(value)
		return nil
	}))

	assert.Equal(t, []string{"Token:0x01", "Token:0x02"}, keys)
	assert.Equal(t, map[string]string{"Token:0x01": "1", "Token:0x02": "2"}, got)
}
