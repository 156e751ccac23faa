// Package bootstrap opens the storage stack described by the configuration.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/xelth-com/scraprecon/internal/config"
	"github.com/xelth-com/scraprecon/internal/database"
	"github.com/xelth-com/scraprecon/internal/lot"
	"github.com/xelth-com/scraprecon/internal/store"
)

var log = config.GetLogger()

// Backend is the opened storage: the database, the lot sequencer and the record store
type Backend struct {
	DB       *database.DB
	Lots     lot.Sequencer
	LotsKind string // "redis" or "database"
	Store    store.Store

	redis *redis.Client
}

// Open connects the database, migrates it and picks the lot and record backends.
// Redis is used for lots when REDIS_URL is set; Google Sheets for records when
// RECORD_BACKEND=sheets.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("🚀 Synchronizing database schema...")
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	log.Info("✅ Schema synchronized successfully")

	b := &Backend{DB: db}

	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		b.redis = redis.NewClient(opts)
		if err := b.redis.Ping(ctx).Err(); err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to reach redis: %w", err)
		}
		b.Lots = lot.NewRedisSequencer(b.redis, cfg.Redis.Key, cfg.Lot.Prefix)
		b.LotsKind = "redis"
		log.Infof("✅ Lots: Redis counters in %s", cfg.Redis.Key)
	} else {
		b.Lots = lot.NewGormSequencer(db.DB, cfg.Lot.Prefix)
		b.LotsKind = "database"
	}

	if cfg.RecordBackend() == config.BackendSheets {
		st, err := store.NewSheetsStore(ctx, cfg.Sheets.CredentialsFile, cfg.Sheets.SpreadsheetID, cfg.Sheets.SheetName)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Store = st
		log.Infof("✅ Records: Google Sheet %s / %s", cfg.Sheets.SpreadsheetID, cfg.Sheets.SheetName)
	} else {
		b.Store = store.NewGormStore(db.DB)
	}

	return b, nil
}

// Close releases redis and the database (stopping embedded PostgreSQL)
func (b *Backend) Close() error {
	if b.redis != nil {
		if err := b.redis.Close(); err != nil {
			log.Warnf("Redis close error: %v", err)
		}
	}
	return b.DB.Close()
}
