package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	documentapp "github.com/rxforms/backend/internal/application/document"
	printingapp "github.com/rxforms/backend/internal/application/printing"
	domainprinting "github.com/rxforms/backend/internal/domain/printing"
	"github.com/rxforms/backend/internal/infrastructure/catalog"
	"github.com/rxforms/backend/internal/infrastructure/config"
	"github.com/rxforms/backend/internal/infrastructure/logger"
	"github.com/rxforms/backend/internal/infrastructure/persistence"
	infraprinting "github.com/rxforms/backend/internal/infrastructure/printing"
	"github.com/rxforms/backend/internal/infrastructure/telemetry"
	"github.com/rxforms/backend/internal/interfaces/http/handler"
	"github.com/rxforms/backend/internal/interfaces/http/middleware"
	"github.com/rxforms/backend/internal/interfaces/http/router"
)

//	@title			Prescription Forms API
//	@version		1.0
//	@description	Catalog of prescription documents and the print rendering engine

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: logger.DefaultTimeFormat,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx := context.Background()

	// Telemetry: traces, metrics and log export share the collector
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	log = telemetry.Bridge(log, lp)

	printMetrics, err := telemetry.NewPrintMetrics(mp.Meter("rxforms/printing"))
	if err != nil {
		log.Fatal("Failed to create print metrics", zap.Error(err))
	}

	log.Info("Starting prescription forms backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("pdf_engine", cfg.Printing.PDFEngine),
	)

	// Storage and catalog
	repo, closeRepo, err := persistence.OpenDocumentRepository(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open document storage", zap.Error(err))
	}
	defer func() {
		if err := closeRepo(); err != nil {
			log.Error("Error closing document storage", zap.Error(err))
		}
	}()

	bundled, err := catalog.New(&catalog.Config{ExternalDir: cfg.Printing.CatalogDir}, catalog.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to load bundled catalog", zap.Error(err))
	}

	// Application services
	store := documentapp.NewStore(repo, bundled, log)
	documentService := documentapp.NewService(store, bundled, log, documentapp.WithMetrics(printMetrics))

	outputs := infraprinting.NewOutputs(cfg.Printing, log)
	defer func() {
		if err := outputs.Close(); err != nil {
			log.Error("Error closing output targets", zap.Error(err))
		}
	}()
	archive, err := infraprinting.NewArchive(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open print archive", zap.Error(err))
	}
	printService := printingapp.NewService(documentService, outputs, log,
		printingapp.WithArchive(archive),
		printingapp.WithMetrics(printMetrics),
		printingapp.WithDefaultFormat(domainprinting.Format(cfg.Printing.DefaultFormat)),
	)

	// Setup validator with custom validations
	middleware.SetupValidator()

	// Setup Gin
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	// Document names may contain "/" in escaped form
	engine.UseRawPath = true

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. Tracing and metrics
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	tracingConfig := middleware.DefaultTracingConfig()
	if cfg.Telemetry.ServiceName != "" {
		tracingConfig.ServiceName = cfg.Telemetry.ServiceName
	}
	tracingConfig.Enabled = tp.IsEnabled()
	engine.Use(middleware.TracingWithConfig(tracingConfig))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(mp))

	// Health check endpoint
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, map[string]handler.HealthCheck{
		"storage": func(ctx context.Context) error {
			return persistence.CheckDocumentRepository(ctx, repo)
		},
	})
	engine.GET("/health", systemHandler.Health)

	// API v1 routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"), router.WithNoRoute(handler.RouteNotFound))
	r.Register(handler.DocumentRoutes(handler.NewDocumentHandler(documentService)))
	r.Register(handler.CatalogRoutes(handler.NewCatalogHandler(bundled)))
	r.Register(handler.PrintRoutes(handler.NewPrintHandler(printService)))
	r.Register(handler.SystemRoutes(systemHandler))
	r.Setup()
	for _, route := range r.Routes() {
		log.Debug("Route registered",
			zap.String("method", route.Method),
			zap.String("path", route.Path),
			zap.String("description", route.Description),
		)
	}

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	for name, shutdown := range map[string]func(context.Context) error{
		"tracer": tp.Shutdown,
		"meter":  mp.Shutdown,
		"logger": lp.Shutdown,
	} {
		if err := shutdown(shutdownCtx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.String("provider", name), zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}
