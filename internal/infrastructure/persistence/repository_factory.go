package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rxforms/backend/internal/domain/document"
	"github.com/rxforms/backend/internal/infrastructure/config"
	"github.com/rxforms/backend/internal/infrastructure/logger"
	"github.com/rxforms/backend/internal/infrastructure/migration"
	"github.com/rxforms/backend/internal/infrastructure/storage"
	"github.com/rxforms/backend/internal/infrastructure/telemetry"
)

// CloseFunc releases the resources behind an opened repository
type CloseFunc func() error

func noopClose() error { return nil }

// OpenDocumentRepository opens the repository selected by cfg.Storage.Driver
// and verifies the backend is reachable
func OpenDocumentRepository(ctx context.Context, cfg *config.Config, log *zap.Logger) (document.Repository, CloseFunc, error) {
	if log == nil {
		log = zap.NewNop()
	}

	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		log.Warn("Using in-memory document storage, documents will not survive a restart")
		return NewMemoryDocumentRepository(), noopClose, nil

	case config.StorageDriverFile:
		repo, err := NewFileDocumentRepository(cfg.Storage.FileDir)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Using file document storage", zap.String("dir", cfg.Storage.FileDir))
		return repo, noopClose, nil

	case config.StorageDriverSQLite:
		db, err := NewSQLiteDatabase(cfg.Storage.SQLitePath, databaseOptions(cfg, log, "sqlite")...)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Using SQLite document storage", zap.String("path", cfg.Storage.SQLitePath))
		return NewGormDocumentRepository(db.DB), db.Close, nil

	case config.StorageDriverPostgres:
		if cfg.Storage.AutoMigrate {
			if err := migration.ApplyUp(cfg.Database.DSN(), log); err != nil {
				return nil, nil, fmt.Errorf("failed to migrate documents schema: %w", err)
			}
		}
		db, err := NewDatabase(&cfg.Database, databaseOptions(cfg, log, "postgresql")...)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Using PostgreSQL document storage",
			zap.String("host", cfg.Database.Host),
			zap.String("database", cfg.Database.DBName),
		)
		return NewGormDocumentRepository(db.DB), db.Close, nil

	case config.StorageDriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Info("Using Redis document storage", zap.String("addr", cfg.Redis.Addr()))
		return NewRedisDocumentRepository(client), client.Close, nil

	case config.StorageDriverS3:
		store, err := storage.NewS3ObjectStorage(&cfg.S3, storage.WithLogger(log))
		if err != nil {
			return nil, nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, nil, err
		}
		log.Info("Using S3 document storage", zap.String("bucket", store.Bucket()))
		return NewObjectDocumentRepository(store, DefaultDocumentObjectPrefix), noopClose, nil
	}

	return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
}

// healthCheckName is read, never written, to exercise the backend
const healthCheckName = ".health-check"

// CheckDocumentRepository reports whether repo's backend answers. A missing
// record counts as an answer.
func CheckDocumentRepository(ctx context.Context, repo document.Repository) error {
	_, err := repo.Get(ctx, healthCheckName)
	if err == nil || errors.Is(err, document.ErrRecordNotFound) {
		return nil
	}
	return err
}

func databaseOptions(cfg *config.Config, log *zap.Logger, system string) []Option {
	opts := []Option{
		WithLogger(log, logger.MapGormLogLevel(cfg.Log.Level)),
	}
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		opts = append(opts, WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		opts = append(opts, WithTracing(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        system,
		}))
	}
	return opts
}
