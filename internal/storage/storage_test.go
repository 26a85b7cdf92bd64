package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartdevs17/passkey-playground/internal/config"
)

func openBackend(t *testing.T, cfg *config.StorageConfig) Storage {
	t.Helper()

	store, err := NewStorage(cfg)
	require.NoError(t, err)
	require.NoError(t, store.Connect())
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate())
	require.NoError(t, store.Ping())
	return store
}

func TestBackends(t *testing.T) {
	dir := t.TempDir()

	backends := map[string]*config.StorageConfig{
		"memory": {Type: "memory"},
		"sqlite": {Type: "sqlite", ConnectionString: filepath.Join(dir, "state.db"), MaxConnections: 2},
		"bolt":   {Type: "bolt", ConnectionString: filepath.Join(dir, "state.bolt")},
	}

	for name, cfg := range backends {
		t.Run(name, func(t *testing.T) {
			store := openBackend(t, cfg)
			ctx := context.Background()

			assert.Equal(t, name, store.Name())

			_, err := store.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Set(ctx, "b", []byte(`{"v":1}`)))
			require.NoError(t, store.Set(ctx, "a", []byte(`[]`)))
			require.NoError(t, store.Set(ctx, "b", []byte(`{"v":2}`)))

			value, err := store.Get(ctx, "b")
			require.NoError(t, err)
			assert.JSONEq(t, `{"v":2}`, string(value))

			keys, err := store.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, keys)

			require.NoError(t, store.Delete(ctx, "b"))
			require.NoError(t, store.Delete(ctx, "b"))
			_, err = store.Get(ctx, "b")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	cfg := &config.StorageConfig{Type: "sqlite", ConnectionString: filepath.Join(t.TempDir(), "nested", "state.db")}
	ctx := context.Background()

	first, err := NewStorage(cfg)
	require.NoError(t, err)
	require.NoError(t, first.Connect())
	require.NoError(t, first.Migrate())
	require.NoError(t, first.Set(ctx, "k", []byte(`"v"`)))
	require.NoError(t, first.Close())

	second := openBackend(t, cfg)
	value, err := second.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `"v"`, string(value))
}

func TestValidateStorageConfig(t *testing.T) {
	assert.Error(t, ValidateStorageConfig(&config.StorageConfig{}))
	assert.Error(t, ValidateStorageConfig(&config.StorageConfig{Type: "redis", ConnectionString: "x"}))
	assert.Error(t, ValidateStorageConfig(&config.StorageConfig{Type: "sqlite"}))
	assert.NoError(t, ValidateStorageConfig(&config.StorageConfig{Type: "memory"}))
	assert.NoError(t, ValidateStorageConfig(&config.StorageConfig{Type: "PostgreSQL", ConnectionString: "postgres://"}))
}

func TestUnconnectedBackendsFail(t *testing.T) {
	ctx := context.Background()
	for _, store := range []Storage{
		NewSQLiteStorage(&StorageConfig{}),
		NewPostgreSQLStorage(&StorageConfig{}),
		NewBoltStorage(&StorageConfig{}),
	} {
		_, err := store.Get(ctx, "k")
		assert.Error(t, err, store.Name())
		assert.NotErrorIs(t, err, ErrNotFound, store.Name())
		assert.Error(t, store.Set(ctx, "k", nil), store.Name())
		assert.Error(t, store.Ping(), store.Name())
	}
}
