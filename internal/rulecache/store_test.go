package rulecache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_PutGetRoundtrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	payload := []byte(`{"value_ranges": {"level": {"min": 1, "max": 150}}}`)
	require.NoError(t, s.Put(ctx, "claude_abcd1234abcd1234", "claude", payload))

	got, ok, err := s.Get(ctx, "claude_abcd1234abcd1234")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, payload, got)
}

func TestStore_GetMissIsNotAnError(t *testing.T) {
	s := openTestStore(t)

	got, ok, err := s.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestStore_PutReplacesExisting(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", "claude", []byte(`{"a":1}`)))
	require.NoError(t, s.Put(ctx, "k", "openai", []byte(`{"a":2}`)))

	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte(`{"a":2}`), got)

	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "openai", entries[0].Provider)
}

func TestStore_DeleteAndClear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "a", "claude", []byte(`{}`)))
	require.NoError(t, s.Put(ctx, "b", "claude", []byte(`{}`)))

	require.NoError(t, s.Delete(ctx, "a"))
	_, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := s.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	entries, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_OpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Put(context.Background(), "k", "claude", []byte(`{}`)))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	_, ok, err := s2.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
}
