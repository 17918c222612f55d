package telemetry

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // Include query variables in spans (dev only)
	SlowQueryThresh time.Duration // Queries above this are flagged on their span
	DBSystem        string        // postgresql or sqlite
}

// DefaultDBTracingConfig returns a disabled configuration with secure defaults
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

// DBTracingPlugin installs otelgorm plus callbacks that flag slow
// statements on their spans
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a database tracing plugin
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

type queryStartKey struct{}

// Register installs the plugin on db. It does nothing when tracing is
// disabled.
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	if err := p.registerCallbacks(db); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.String("db_system", p.config.DBSystem),
	)
	return nil
}

// registerCallbacks times each statement. The after hooks must run before
// otelgorm's, which end the statement span and restore the parent context.
func (p *DBTracingPlugin) registerCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	steps := []func() error{
		func() error { return cb.Create().Before("gorm:create").Register("rx_timing:before_create", markQueryStart) },
		func() error { return cb.Query().Before("gorm:query").Register("rx_timing:before_query", markQueryStart) },
		func() error { return cb.Update().Before("gorm:update").Register("rx_timing:before_update", markQueryStart) },
		func() error { return cb.Delete().Before("gorm:delete").Register("rx_timing:before_delete", markQueryStart) },
		func() error { return cb.Row().Before("gorm:row").Register("rx_timing:before_row", markQueryStart) },
		func() error { return cb.Raw().Before("gorm:raw").Register("rx_timing:before_raw", markQueryStart) },
		func() error {
			return cb.Create().After("gorm:create").Before("otel:after:create").Register("rx_timing:after_create", p.flagSlowQuery)
		},
		func() error {
			return cb.Query().After("gorm:query").Before("otel:after:select").Register("rx_timing:after_query", p.flagSlowQuery)
		},
		func() error {
			return cb.Update().After("gorm:update").Before("otel:after:update").Register("rx_timing:after_update", p.flagSlowQuery)
		},
		func() error {
			return cb.Delete().After("gorm:delete").Before("otel:after:delete").Register("rx_timing:after_delete", p.flagSlowQuery)
		},
		func() error {
			return cb.Row().After("gorm:row").Before("otel:after:row").Register("rx_timing:after_row", p.flagSlowQuery)
		},
		func() error {
			return cb.Raw().After("gorm:raw").Before("otel:after:raw").Register("rx_timing:after_raw", p.flagSlowQuery)
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

// flagSlowQuery marks the statement span when the statement took longer
// than the configured threshold. otelgorm records the table, affected rows
// and errors itself.
func (p *DBTracingPlugin) flagSlowQuery(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil || p.config.SlowQueryThresh <= 0 {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > p.config.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
		))
	}
}
