package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/tripsetu/backend/internal/application/discovery"
	"github.com/tripsetu/backend/internal/application/transaction"
	"github.com/tripsetu/backend/internal/domain/protocol"
	"github.com/tripsetu/backend/internal/domain/trip"
	"github.com/tripsetu/backend/internal/infrastructure/bpp"
	"github.com/tripsetu/backend/internal/infrastructure/cache"
	"github.com/tripsetu/backend/internal/infrastructure/config"
	"github.com/tripsetu/backend/internal/infrastructure/logger"
	"github.com/tripsetu/backend/internal/infrastructure/persistence"
	"github.com/tripsetu/backend/internal/infrastructure/registry"
	"github.com/tripsetu/backend/internal/infrastructure/telemetry"
	"github.com/tripsetu/backend/internal/interfaces/http/handler"
	"github.com/tripsetu/backend/internal/interfaces/http/middleware"
	"github.com/tripsetu/backend/internal/interfaces/http/router"
)

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
		_ = logger.Sync(log)
	}()

	log.Info("Starting BAP gateway",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("bap_id", cfg.Protocol.BapID),
	)

	// Initialize tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Build the provider registry from configuration
	providerRegistry, err := registry.NewFromConfig(cfg.Providers)
	if err != nil {
		log.Fatal("Failed to build provider registry", zap.Error(err))
	}
	log.Info("Provider registry built", zap.Int("providers", providerRegistry.Size()))

	// Journey route cache: Redis when configured, in-process otherwise
	var routeStore trip.RouteStore
	if cfg.Redis.Enabled {
		redisStore, err := cache.NewRedisRouteStore(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisStore.Close(); err != nil {
				log.Error("Error closing Redis connection", zap.Error(err))
			}
		}()
		routeStore = redisStore
		log.Info("Redis route cache connected",
			zap.String("host", cfg.Redis.Host),
			zap.Int("port", cfg.Redis.Port),
		)
	} else {
		memStore := cache.NewInMemoryRouteStore()
		defer func() {
			_ = memStore.Close()
		}()
		routeStore = memStore
		log.Info("Using in-process route cache")
	}

	// Initialize repositories
	mappingStore := persistence.NewGormMappingStore(db.DB)

	// Outbound provider client and context factory
	providerClient := bpp.NewClient(cfg.Protocol.CallTimeout, log)
	contextFactory := protocol.NewContextFactory(
		cfg.Protocol.Domain,
		cfg.Protocol.Country,
		cfg.Protocol.City,
		cfg.Protocol.BapID,
		cfg.Protocol.BapURI,
		protocol.WithTTL(cfg.Protocol.TTL),
	)

	// Initialize application services
	aggregator := discovery.NewAggregator(providerRegistry, providerClient, cfg.Protocol.SearchTimeout, log)
	transactionRouter := transaction.NewRouter(
		providerRegistry,
		providerClient,
		mappingStore,
		routeStore,
		cfg.Protocol.JourneyTTL,
		transaction.SupportContact{
			Phone: cfg.Protocol.SupportPhone,
			Email: cfg.Protocol.SupportEmail,
		},
		log,
	)

	// Initialize HTTP handlers
	actionHandler := handler.NewActionHandler(contextFactory, aggregator, transactionRouter, log)
	systemHandler := handler.NewSystemHandler(db)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router with custom middleware
	engine := gin.New()

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if tracerProvider.IsEnabled() {
		engine.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Protocol endpoints live at the root path; counterparties address this
	// BAP by its subscriber URI without any version prefix
	router.NewRouter(engine).
		Register(actionHandler).
		Register(systemHandler).
		Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
