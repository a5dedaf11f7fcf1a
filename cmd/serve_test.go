package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micro2move/segment-cli/internal/config"
	"github.com/micro2move/segment-cli/internal/store"
)

func TestOpenServeStore(t *testing.T) {
	t.Run("memory when no driver", func(t *testing.T) {
		cfg = testConfig(t)
		st, err := openServeStore(context.Background())
		require.NoError(t, err)
		defer st.Close() //nolint:errcheck
		assert.IsType(t, &store.MemoryStore{}, st)
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg = testConfig(t)
		cfg.Store = config.StoreConfig{
			Driver:      config.DriverSQLite,
			DatabaseURL: filepath.Join(t.TempDir(), "segments.db"),
		}
		st, err := openServeStore(context.Background())
		require.NoError(t, err)
		defer st.Close() //nolint:errcheck
		assert.IsType(t, &store.SQLiteStore{}, st)
	})

	t.Run("sqlite without url", func(t *testing.T) {
		cfg = testConfig(t)
		cfg.Store = config.StoreConfig{Driver: config.DriverSQLite}
		_, err := openServeStore(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database_url")
	})
}
