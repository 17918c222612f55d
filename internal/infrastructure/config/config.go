package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers for persisted documents
const (
	StorageDriverMemory   = "memory"
	StorageDriverFile     = "file"
	StorageDriverSQLite   = "sqlite"
	StorageDriverPostgres = "postgres"
	StorageDriverRedis    = "redis"
	StorageDriverS3       = "s3"
)

// Archive drivers for rendered prints
const (
	ArchiveDriverNone = "none"
	ArchiveDriverFile = "file"
	ArchiveDriverS3   = "s3"
)

// Output engines for PDF rendering
const (
	PDFEngineChromedp = "chromedp"
	PDFEngineGofpdf   = "gofpdf"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Storage   StorageConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	S3        S3Config
	Printing  PrintingConfig
	Telemetry TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// StorageConfig selects where local documents are persisted
type StorageConfig struct {
	Driver     string // memory, file, sqlite, postgres, redis, s3
	FileDir    string // directory for the file driver
	SQLitePath string // database file for the sqlite driver
	// AutoMigrate applies the embedded schema migrations when the postgres
	// driver opens
	AutoMigrate bool
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	LogLevel        string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns the host:port address of the Redis server
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// S3Config holds S3-compatible object storage settings
type S3Config struct {
	Endpoint          string
	Region            string
	Bucket            string
	AccessKey         string
	SecretKey         string
	UseSSL            bool
	UsePathStyle      bool
	PresignExpiration time.Duration
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// PrintingConfig holds print rendering configuration
type PrintingConfig struct {
	DefaultFormat string // pdf, html, png
	PDFEngine     string // chromedp, gofpdf
	// Chromedp settings
	ChromeRemoteURL string // DevTools websocket URL; empty launches a local browser
	ChromePath      string
	Headless        bool
	NoSandbox       bool
	RenderTimeout   time.Duration
	// Archive settings
	ArchiveDriver string // none, file, s3
	ArchiveDir    string
	ArchivePrefix string // key prefix inside the S3 bucket
	// CatalogDir overrides bundled catalog files by name
	CatalogDir string
	// Background images
	AllowedBackgroundHosts []string // hosts http(s) backgrounds may come from; "*.example.com" matches subdomains
	BackgroundDir          string   // root for file: and relative backgrounds; empty disables them
	FetchTimeout           time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	// Metrics and log export share the collector endpoint
	MetricsEnabled        bool
	MetricsExportInterval time.Duration
	LogsEnabled           bool
	// Database tracing options
	DBTraceEnabled    bool          // Enable database query tracing (otelgorm)
	DBLogFullSQL      bool          // Log full SQL statements (dev only)
	DBSlowQueryThresh time.Duration // Slow query threshold for warnings (default: 200ms)
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with RX_ prefix (e.g., RX_STORAGE_DRIVER)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	return load(v)
}

// load builds the configuration from an initialized viper instance
func load(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("RX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Booleans whose default is true cannot be told apart from an unset
	// value after reading, so they are registered up front.
	v.SetDefault("printing.headless", true)
	v.SetDefault("printing.no_sandbox", true)
	v.SetDefault("storage.auto_migrate", true)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Storage: StorageConfig{
			Driver:      v.GetString("storage.driver"),
			FileDir:     v.GetString("storage.file_dir"),
			SQLitePath:  v.GetString("storage.sqlite_path"),
			AutoMigrate: v.GetBool("storage.auto_migrate"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			LogLevel:        v.GetString("database.log_level"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		S3: S3Config{
			Endpoint:          v.GetString("s3.endpoint"),
			Region:            v.GetString("s3.region"),
			Bucket:            v.GetString("s3.bucket"),
			AccessKey:         v.GetString("s3.access_key"),
			SecretKey:         v.GetString("s3.secret_key"),
			UseSSL:            v.GetBool("s3.use_ssl"),
			UsePathStyle:      v.GetBool("s3.use_path_style"),
			PresignExpiration: v.GetDuration("s3.presign_expiration"),
		},
		Printing: PrintingConfig{
			DefaultFormat:   v.GetString("printing.default_format"),
			PDFEngine:       v.GetString("printing.pdf_engine"),
			ChromeRemoteURL: v.GetString("printing.chrome_remote_url"),
			ChromePath:      v.GetString("printing.chrome_path"),
			Headless:        v.GetBool("printing.headless"),
			NoSandbox:       v.GetBool("printing.no_sandbox"),
			RenderTimeout:   v.GetDuration("printing.render_timeout"),
			ArchiveDriver:   v.GetString("printing.archive_driver"),
			ArchiveDir:      v.GetString("printing.archive_dir"),
			ArchivePrefix:   v.GetString("printing.archive_prefix"),
			CatalogDir:      v.GetString("printing.catalog_dir"),

			AllowedBackgroundHosts: v.GetStringSlice("printing.allowed_background_hosts"),
			BackgroundDir:          v.GetString("printing.background_dir"),
			FetchTimeout:           v.GetDuration("printing.fetch_timeout"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:        v.GetBool("telemetry.metrics_enabled"),
			MetricsExportInterval: v.GetDuration("telemetry.metrics_export_interval"),
			LogsEnabled:           v.GetBool("telemetry.logs_enabled"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "rxforms-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second // PDF rendering can be slow
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB, background images are inlined
	}
	// An empty origin list means no cross-origin requests are allowed
	// until explicitly configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID"}
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = StorageDriverFile
	}
	if cfg.Storage.FileDir == "" {
		cfg.Storage.FileDir = "./data/documents"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "./data/rxforms.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "rxforms"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.S3.Region == "" {
		cfg.S3.Region = "us-east-1"
	}
	if cfg.S3.Bucket == "" {
		cfg.S3.Bucket = "rxforms"
	}
	if cfg.S3.PresignExpiration == 0 {
		cfg.S3.PresignExpiration = 15 * time.Minute
	}
	if cfg.Printing.DefaultFormat == "" {
		cfg.Printing.DefaultFormat = "pdf"
	}
	if cfg.Printing.PDFEngine == "" {
		cfg.Printing.PDFEngine = PDFEngineChromedp
	}
	if cfg.Printing.RenderTimeout == 0 {
		cfg.Printing.RenderTimeout = 30 * time.Second
	}
	if cfg.Printing.ArchiveDriver == "" {
		cfg.Printing.ArchiveDriver = ArchiveDriverNone
	}
	if cfg.Printing.ArchiveDir == "" {
		cfg.Printing.ArchiveDir = "./data/prints"
	}
	if cfg.Printing.ArchivePrefix == "" {
		cfg.Printing.ArchivePrefix = "prints"
	}
	if cfg.Printing.FetchTimeout == 0 {
		cfg.Printing.FetchTimeout = 10 * time.Second
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317" // Default gRPC endpoint
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "rxforms-backend"
	}
	if cfg.Telemetry.MetricsExportInterval == 0 {
		cfg.Telemetry.MetricsExportInterval = 60 * time.Second
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Storage.Driver {
	case StorageDriverMemory, StorageDriverFile, StorageDriverSQLite,
		StorageDriverPostgres, StorageDriverRedis, StorageDriverS3:
	default:
		return fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver)
	}

	switch c.Printing.DefaultFormat {
	case "pdf", "html", "png":
	default:
		return fmt.Errorf("printing.default_format %q is not supported", c.Printing.DefaultFormat)
	}
	switch c.Printing.PDFEngine {
	case PDFEngineChromedp, PDFEngineGofpdf:
	default:
		return fmt.Errorf("printing.pdf_engine %q is not supported", c.Printing.PDFEngine)
	}
	switch c.Printing.ArchiveDriver {
	case ArchiveDriverNone, ArchiveDriverFile, ArchiveDriverS3:
	default:
		return fmt.Errorf("printing.archive_driver %q is not supported", c.Printing.ArchiveDriver)
	}
	if c.Printing.FetchTimeout < 0 {
		return fmt.Errorf("printing.fetch_timeout cannot be negative")
	}
	if c.Printing.RenderTimeout < 0 {
		return fmt.Errorf("printing.render_timeout cannot be negative")
	}

	if c.Storage.Driver == StorageDriverS3 || c.Printing.ArchiveDriver == ArchiveDriverS3 {
		if c.S3.AccessKey == "" || c.S3.SecretKey == "" {
			return fmt.Errorf("s3.access_key and s3.secret_key are required when S3 is used")
		}
	}

	// Validate connection pool settings
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Storage.Driver == StorageDriverMemory {
			return fmt.Errorf("storage.driver cannot be 'memory' in production")
		}
		if c.Storage.Driver == StorageDriverPostgres {
			if c.Database.Password == "" {
				return fmt.Errorf("database.password is required in production")
			}
			if c.Database.SSLMode == "disable" {
				return fmt.Errorf("database.sslmode cannot be 'disable' in production")
			}
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production to prevent sensitive data exposure in traces")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
