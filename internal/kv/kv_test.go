package kv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]Store{
		"memory": NewMemStore(),
		"sqlite": sqlite,
	}
}

func TestStore_GetSetRemove(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Ping(ctx))

			_, ok, err := s.Get(ctx, "records")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Set(ctx, "records", "[]"))
			v, ok, err := s.Get(ctx, "records")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "[]", v)

			require.NoError(t, s.Set(ctx, "records", `[{"id":1}]`))
			v, _, err = s.Get(ctx, "records")
			require.NoError(t, err)
			assert.Equal(t, `[{"id":1}]`, v)

			require.NoError(t, s.Remove(ctx, "records"))
			require.NoError(t, s.Remove(ctx, "records"))
			_, ok, err = s.Get(ctx, "records")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestWithNamespace_IsolatesKeys(t *testing.T) {
	ctx := context.Background()
	base := NewMemStore()

	a := WithNamespace(base, "a")
	b := WithNamespace(base, "b")

	require.NoError(t, a.Set(ctx, "lastUsedId", "3"))
	require.NoError(t, b.Set(ctx, "lastUsedId", "7"))

	v, _, err := a.Get(ctx, "lastUsedId")
	require.NoError(t, err)
	assert.Equal(t, "3", v)

	raw, ok, err := base.Get(ctx, "b/lastUsedId")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "7", raw)

	assert.Same(t, base, WithNamespace(base, ""))
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "searchMode", "category"))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get(ctx, "searchMode")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "category", v)
}

func TestMemStore_Closed(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Ping(ctx), ErrClosed)
	assert.ErrorIs(t, s.Set(ctx, "k", "v"), ErrClosed)
	_, _, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "redis", "")
	assert.Error(t, err)

	s, err := Open(context.Background(), DriverMemory, "")
	require.NoError(t, err)
	assert.IsType(t, &MemStore{}, s)
}
