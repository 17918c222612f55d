package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rxforms/backend/internal/infrastructure/config"
	"github.com/rxforms/backend/internal/infrastructure/logger"
	"github.com/rxforms/backend/internal/infrastructure/persistence/models"
	"github.com/rxforms/backend/internal/infrastructure/telemetry"
)

// Database holds the database connection and provides methods for database operations
type Database struct {
	DB *gorm.DB
}

// Option configures how a Database is opened
type Option func(*options)

type options struct {
	logger        *zap.Logger
	logLevel      gormlogger.LogLevel
	slowThreshold time.Duration
	tracing       *telemetry.DBTracingConfig
}

// WithLogger routes GORM logging through zap at the given level
func WithLogger(l *zap.Logger, level gormlogger.LogLevel) Option {
	return func(o *options) {
		o.logger = l
		o.logLevel = level
	}
}

// WithSlowThreshold sets the duration above which statements are logged as slow
func WithSlowThreshold(d time.Duration) Option {
	return func(o *options) {
		o.slowThreshold = d
	}
}

// WithTracing installs the otelgorm tracing plugin
func WithTracing(cfg telemetry.DBTracingConfig) Option {
	return func(o *options) {
		o.tracing = &cfg
	}
}

func (o *options) gormConfig() *gorm.Config {
	gcfg := &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	}
	if o.logger != nil {
		var gopts []logger.GormLoggerOption
		if o.slowThreshold > 0 {
			gopts = append(gopts, logger.WithSlowThreshold(o.slowThreshold))
		}
		gcfg.Logger = logger.NewGormLogger(o.logger, o.logLevel, gopts...)
	}
	return gcfg
}

func collectOptions(opts []Option) *options {
	o := &options{logLevel: gormlogger.Silent}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewDatabase connects to PostgreSQL. The schema is owned by the
// migrations, so nothing is migrated here.
func NewDatabase(cfg *config.DatabaseConfig, opts ...Option) (*Database, error) {
	o := collectOptions(opts)
	gcfg := o.gormConfig()
	gcfg.PrepareStmt = true

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	d := &Database{DB: db}
	if err := d.installTracing(o); err != nil {
		return nil, err
	}
	return d, nil
}

// NewSQLiteDatabase opens (creating if needed) a SQLite database at path and
// migrates the documents table. ":memory:" opens a private in-memory
// database.
func NewSQLiteDatabase(path string, opts ...Option) (*Database, error) {
	o := collectOptions(opts)

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), o.gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite serializes writers; a single connection also keeps an
	// in-memory database alive and shared.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.DocumentModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate documents table: %w", err)
	}

	d := &Database{DB: db}
	if err := d.installTracing(o); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Database) installTracing(o *options) error {
	if o.tracing == nil {
		return nil
	}
	if err := telemetry.NewDBTracingPlugin(*o.tracing, o.logger).Register(d.DB); err != nil {
		return fmt.Errorf("failed to register database tracing: %w", err)
	}
	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}

// Stats returns database connection pool statistics
func (d *Database) Stats() (ConnectionStats, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return ConnectionStats{}, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	stats := sqlDB.Stats()
	return ConnectionStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration,
	}, nil
}

// ConnectionStats holds database connection pool statistics
type ConnectionStats struct {
	MaxOpenConnections int
	OpenConnections    int
	InUse              int
	Idle               int
	WaitCount          int64
	WaitDuration       time.Duration
}
