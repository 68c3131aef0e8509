package app

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/lib/pq"

	"github.com/binocarlos/diggerpassport/internal/config"
	"github.com/binocarlos/diggerpassport/internal/logger"
	"github.com/binocarlos/diggerpassport/internal/redis"
	"github.com/binocarlos/diggerpassport/internal/session"
	"github.com/binocarlos/diggerpassport/internal/store"
)

type Infra struct {
	DB    *sql.DB
	Cache session.Cache

	cleanup []func() error
}

func (i *Infra) Close() error {
	var errs []error
	for _, fn := range i.cleanup {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	if cfg.DatabaseDSN == "" {
		return nil, errors.New("config: DATABASE_DSN is required")
	}

	sqlDB, err := sql.Open("postgres", cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx, sqlDB); err != nil {
		return nil, err
	}

	logger.Info("database ready", nil)

	infra := &Infra{DB: sqlDB}
	infra.cleanup = append(infra.cleanup, sqlDB.Close)

	// Without Redis the session cache falls back to process memory:
	// fine for development and tests, not shared across instances.
	if cfg.RedisAddr == "" {
		logger.Warn("no redis configured, using in-memory session cache", nil)
		infra.Cache = session.NewMemoryCache()
		return infra, nil
	}

	redisClient, err := redis.New(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return nil, err
	}
	infra.cleanup = append(infra.cleanup, redisClient.Close)

	logger.Info("redis ready", nil)

	infra.Cache = session.NewRedisCache(redisClient.Client, cfg.AppID)
	return infra, nil
}
