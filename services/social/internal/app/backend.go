package internal

import (
	"fmt"

	"chronofeed/pkg/cache"
	"chronofeed/pkg/config"
	"chronofeed/pkg/database"
	"chronofeed/pkg/kv"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Backend is the KV store selected by STORE_BACKEND together with the
// connection it runs on. Exactly one of Redis and DB is set.
type Backend struct {
	Store kv.Store
	Redis *redis.Client
	DB    *gorm.DB
}

func OpenBackend(cfg *config.Config) (*Backend, error) {
	switch cfg.StoreBackend {
	case "redis":
		client, err := cache.NewRedisClient(cfg)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: kv.NewInstrumented(kv.NewRedisStore(client)), Redis: client}, nil
	case "postgres":
		// Migrations are handled by goose - see cmd/migrate/main.go
		db, err := database.NewPostgresDB(cfg)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: kv.NewInstrumented(kv.NewGormStore(db)), DB: db}, nil
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}

func (b *Backend) Close() error {
	if b.Redis != nil {
		return b.Redis.Close()
	}
	if b.DB != nil {
		sqlDB, err := b.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
