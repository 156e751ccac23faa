package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/scraprecon/internal/config"
	"github.com/xelth-com/scraprecon/internal/store"
)

func sqliteConfig(t *testing.T) *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: filepath.Join(t.TempDir(), "boot.db"),
			Quiet:      true,
		},
		Lot:     config.LotConfig{Prefix: "L"},
		Backend: config.BackendDatabase,
	}
}

func TestOpen_SQLite(t *testing.T) {
	b, err := Open(context.Background(), sqliteConfig(t))
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, "database", b.LotsKind)
	_, ok := b.Store.(*store.GormStore)
	assert.True(t, ok)

	id, err := b.Lots.Next(context.Background(), 7, true)
	require.NoError(t, err)
	assert.Equal(t, "L00001", id)
}

func TestOpen_BadRedisURL(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Redis.URL = "not a url"
	_, err := Open(context.Background(), cfg)
	assert.Error(t, err)
}
