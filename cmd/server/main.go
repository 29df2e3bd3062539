package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	clientapp "github.com/smartinvoice/backend/internal/application/client"
	draftapp "github.com/smartinvoice/backend/internal/application/draft"
	invoiceapp "github.com/smartinvoice/backend/internal/application/invoice"
	ratecardapp "github.com/smartinvoice/backend/internal/application/ratecard"
	settingsapp "github.com/smartinvoice/backend/internal/application/settings"
	"github.com/smartinvoice/backend/internal/domain/shared"
	"github.com/smartinvoice/backend/internal/infrastructure/auth"
	"github.com/smartinvoice/backend/internal/infrastructure/cache"
	"github.com/smartinvoice/backend/internal/infrastructure/config"
	"github.com/smartinvoice/backend/internal/infrastructure/event"
	"github.com/smartinvoice/backend/internal/infrastructure/export"
	"github.com/smartinvoice/backend/internal/infrastructure/llm"
	"github.com/smartinvoice/backend/internal/infrastructure/logger"
	"github.com/smartinvoice/backend/internal/infrastructure/migration"
	"github.com/smartinvoice/backend/internal/infrastructure/persistence"
	"github.com/smartinvoice/backend/internal/infrastructure/scheduler"
	"github.com/smartinvoice/backend/internal/infrastructure/storage"
	"github.com/smartinvoice/backend/internal/infrastructure/strategy"
	"github.com/smartinvoice/backend/internal/infrastructure/telemetry"
	"github.com/smartinvoice/backend/internal/interfaces/http/handler"
	"github.com/smartinvoice/backend/internal/interfaces/http/middleware"
	"github.com/smartinvoice/backend/internal/interfaces/http/router"
	"github.com/smartinvoice/backend/migrations"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting SmartInvoice backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", db.Driver))

	if err := migrate(db, log); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	dbSystem := "postgresql"
	if db.Driver == "sqlite" {
		dbSystem = "sqlite"
	}
	if err := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        dbSystem,
	}, log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		poolMetrics, err := telemetry.NewDBPoolMetrics(meterProvider.Meter("smartinvoice.db"), sqlDB)
		if err != nil {
			log.Warn("Database pool metrics disabled", zap.Error(err))
		} else {
			defer func() { _ = poolMetrics.Stop() }()
		}
	}

	pricingMetrics, err := telemetry.NewPricingMetrics(meterProvider.Meter("smartinvoice.pricing"))
	if err != nil {
		log.Fatal("Failed to create pricing metrics", zap.Error(err))
	}

	// Draft and idempotency stores
	stores, err := cache.NewStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).Create(ctx)
	if err != nil {
		log.Fatal("Failed to create draft stores", zap.Error(err))
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Error("Error closing draft stores", zap.Error(err))
		}
	}()

	objects, err := newObjectStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	registry, err := strategy.NewRegistryWithDefaults(cfg.Pricing.FuzzyThreshold)
	if err != nil {
		log.Fatal("Failed to register match strategies", zap.Error(err))
	}
	if _, err := registry.GetMatchingStrategy(cfg.Pricing.MatchStrategy); err != nil {
		log.Fatal("Unknown match strategy", zap.String("strategy", cfg.Pricing.MatchStrategy), zap.Error(err))
	}

	// Repositories
	rateItemRepo := persistence.NewGormRateItemRepository(db.DB)
	clientRepo := persistence.NewGormClientRepository(db.DB)
	settingsRepo := persistence.NewGormSettingsRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)

	// Events
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewIdempotentHandler("invoice-archive",
		invoiceapp.NewInvoiceArchiveHandler(invoiceRepo, objects, log),
		stores.Idempotency, log, shared.DefaultIdempotencyConfig()))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Services
	rateCardService := ratecardapp.NewRateCardService(rateItemRepo, log)
	rateCardService.SetEventPublisher(eventBus)
	clientService := clientapp.NewClientService(clientRepo, log)
	settingsService := settingsapp.NewSettingsService(settingsRepo, settingsapp.Defaults{
		Currency:         cfg.Pricing.Currency,
		PaymentTermsDays: cfg.Pricing.DefaultPaymentTermsDays,
	}, log)
	invoiceService := invoiceapp.NewInvoiceService(invoiceRepo, log,
		invoiceapp.WithEventPublisher(eventBus),
		invoiceapp.WithMetrics(pricingMetrics),
		invoiceapp.WithExporter(export.NewXLSXExporter(log)),
		invoiceapp.WithObjectStorage(objects),
	)

	draftOpts := []draftapp.Option{
		draftapp.WithIdempotencyStore(stores.Idempotency),
		draftapp.WithEventPublisher(eventBus),
		draftapp.WithMetrics(pricingMetrics),
	}
	if cfg.LLM.Enabled {
		extractor, err := llm.NewClient(&cfg.LLM, llm.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to create extraction client", zap.Error(err))
		}
		draftOpts = append(draftOpts, draftapp.WithExtractor(extractor))
	} else {
		log.Info("LLM extraction disabled, drafts require explicit items")
	}
	draftService := draftapp.NewDraftService(
		rateCardService, settingsService, clientService, registry,
		stores.Drafts, invoiceRepo,
		draftapp.Config{
			MatchStrategy:         cfg.Pricing.MatchStrategy,
			RequireFullResolution: cfg.Pricing.RequireFullResolution,
			DraftTTL:              cfg.Pricing.DraftTTL,
			IdempotencyTTL:        cfg.Pricing.IdempotencyTTL,
		},
		log, draftOpts...,
	)

	// Background jobs
	overdueScheduler := scheduler.NewOverdueScheduler(invoiceService, log, scheduler.OverdueSchedulerConfig{
		Enabled:    cfg.Scheduler.Enabled,
		Interval:   cfg.Scheduler.OverdueInterval,
		BatchSize:  cfg.Scheduler.BatchSize,
		JobTimeout: cfg.Scheduler.JobTimeout,
	})
	if err := overdueScheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start overdue scheduler", zap.Error(err))
	}

	// HTTP
	authCfg := middleware.JWTMiddlewareConfig{Disabled: cfg.JWT.Disabled, Logger: log}
	if cfg.JWT.Disabled {
		log.Warn("JWT verification disabled, trusting " + middleware.DevUserHeader)
	} else {
		authCfg = middleware.DefaultJWTConfig(auth.NewJWTService(cfg.JWT))
		authCfg.Logger = log
	}

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
	}

	engine := router.NewEngine(router.EngineConfig{
		Logger: log,
		HTTP:   cfg.HTTP,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		Metrics: middleware.HTTPMetricsConfig{
			MeterProvider: meterProvider,
			Enabled:       cfg.Telemetry.Enabled,
			Logger:        log,
		},
		Auth:        authCfg,
		RateLimiter: limiter,
	}, router.Handlers{
		System:    handler.NewSystemHandler(cfg.App.Name, version, db, log),
		RateItems: handler.NewRateItemHandler(rateCardService),
		Clients:   handler.NewClientHandler(clientService),
		Settings:  handler.NewSettingsHandler(settingsService),
		Drafts:    handler.NewDraftHandler(draftService),
		Invoices:  handler.NewInvoiceHandler(invoiceService),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	if err := overdueScheduler.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping overdue scheduler", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// migrate applies the embedded SQL migrations on PostgreSQL and creates the
// schema from the models on SQLite.
func migrate(db *persistence.Database, log *zap.Logger) error {
	if db.Driver == "sqlite" {
		return persistence.AutoMigrate(db.DB)
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	// The migrator shares sqlDB and is not closed here: closing it closes the pool.
	m, err := migration.NewFromFS(sqlDB, migrations.FS, log)
	if err != nil {
		return err
	}
	return m.Up()
}

// newObjectStorage returns S3 storage when enabled. Without it archives are
// kept in process memory and lost on restart.
func newObjectStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (invoiceapp.ObjectStorage, error) {
	if !cfg.Storage.Enabled {
		log.Warn("object storage disabled, invoice archives are kept in memory")
		return storage.NewMemoryObjectStorage(), nil
	}
	s3, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
	if err != nil {
		return nil, err
	}
	if err := s3.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return s3, nil
}
