package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aescanero/smrepo/internal/application/health"
	"github.com/aescanero/smrepo/internal/application/repository"
	"github.com/aescanero/smrepo/internal/config"
	memoryevents "github.com/aescanero/smrepo/pkg/adapters/events/memory"
	redisevents "github.com/aescanero/smrepo/pkg/adapters/events/redis"
	"github.com/aescanero/smrepo/pkg/adapters/metrics/prometheus"
	memorystorage "github.com/aescanero/smrepo/pkg/adapters/storage/memory"
	redisstorage "github.com/aescanero/smrepo/pkg/adapters/storage/redis"
	"github.com/aescanero/smrepo/pkg/adapters/storage/sqlite"
	"github.com/aescanero/smrepo/pkg/api/grpc"
	"github.com/aescanero/smrepo/pkg/api/http"
	"github.com/aescanero/smrepo/pkg/api/websocket"
	"github.com/aescanero/smrepo/pkg/ports"

	promclient "github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("starting submodel repository",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("storage_backend", cfg.StorageBackend),
		zap.String("events_backend", cfg.EventsBackend))

	ctx := context.Background()

	var redisClient *goredis.Client
	if cfg.UsesRedis() {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})

		// Test Redis connection
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// Initialize adapters
	store, err := newStore(cfg, redisClient, logger)
	if err != nil {
		logger.Fatal("failed to create submodel store", zap.Error(err))
	}

	bus, err := newEventBus(cfg, redisClient, logger)
	if err != nil {
		logger.Fatal("failed to create event bus", zap.Error(err))
	}

	metricsCollector := prometheus.NewCollector(promclient.DefaultRegisterer)

	// Initialize application components
	repositoryMgr := repository.NewManager(store, bus, metricsCollector, logger)

	if cfg.SeedFile != "" {
		created, err := repositoryMgr.SeedFile(ctx, cfg.SeedFile)
		if err != nil {
			logger.Fatal("failed to seed submodels",
				zap.String("path", cfg.SeedFile),
				zap.Error(err))
		}
		logger.Info("loaded preconfigured submodels",
			zap.String("path", cfg.SeedFile),
			zap.Int("created", created))
	}

	monitor := health.NewMonitor(store, metricsCollector, cfg.StorageBackend, cfg.HealthCheckInterval, logger)

	// Initialize API servers
	httpServer := http.NewServer(&http.Config{
		Port:         cfg.HTTPPort,
		Submodels:    repositoryMgr,
		Health:       monitor,
		Events:       websocket.NewHandler(bus, logger),
		Gatherer:     promclient.DefaultGatherer,
		MaxBodyBytes: cfg.MaxBodyBytes,
		ReadTimeout:  cfg.Timeouts.ReadTimeout,
		WriteTimeout: cfg.Timeouts.WriteTimeout,
		Logger:       logger,
	})

	grpcServer, err := grpc.NewServer(&grpc.Config{
		Port:    cfg.GRPCPort,
		Monitor: monitor,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal("failed to create gRPC server", zap.Error(err))
	}

	monitor.Start()

	// Start servers
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	go func() {
		if err := grpcServer.Start(); err != nil {
			logger.Fatal("gRPC server failed", zap.Error(err))
		}
	}()

	logger.Info("submodel repository started",
		zap.Int("http_port", cfg.HTTPPort),
		zap.Int("grpc_port", cfg.GRPCPort))

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	// Shutdown components
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if err := grpcServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("gRPC server shutdown error", zap.Error(err))
	}

	monitor.Stop()

	if err := bus.Close(); err != nil {
		logger.Error("event bus close error", zap.Error(err))
	}

	if err := store.Close(); err != nil {
		logger.Error("submodel store close error", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Redis close error", zap.Error(err))
		}
	}

	logger.Info("submodel repository shut down complete")
}

// newStore creates the configured submodel store
func newStore(cfg *config.Config, client *goredis.Client, logger *zap.Logger) (ports.SubmodelStore, error) {
	switch cfg.StorageBackend {
	case config.StorageRedis:
		return redisstorage.NewSubmodelStore(client, logger), nil
	case config.StorageSQLite:
		db, err := sqlite.Open(cfg.SQLite.Path, sqlite.Options{
			BusyTimeout: cfg.SQLite.BusyTimeout,
			Pragmas:     cfg.SQLite.Pragmas,
		})
		if err != nil {
			return nil, err
		}
		applied, err := db.Migrate(context.Background())
		if err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("opened SQLite store",
			zap.String("path", cfg.SQLite.Path),
			zap.Int("migrations_applied", applied))
		return sqlite.NewSubmodelStore(db), nil
	default:
		return memorystorage.NewInMemorySubmodelStore(), nil
	}
}

// newEventBus creates the configured event bus
func newEventBus(cfg *config.Config, client *goredis.Client, logger *zap.Logger) (ports.EventBus, error) {
	if cfg.EventsBackend != config.EventsRedis {
		return memoryevents.NewInMemoryEventBus(logger), nil
	}

	opts := redisevents.Options{
		ConsumerGroup: cfg.Redis.ConsumerGroup,
		MaxLen:        cfg.Redis.StreamMaxLen,
	}
	if opts.ConsumerGroup != "" {
		opts.ConsumerName = fmt.Sprintf("smrepo-%d", os.Getpid())
	}
	if !cfg.BroadcastsEvents() {
		logger.Warn("redis consumer group set: each event reaches one subscriber, websocket clients will miss events",
			zap.String("consumer_group", opts.ConsumerGroup),
			zap.String("consumer", opts.ConsumerName))
	}

	return redisevents.NewStreamsEventBus(client, opts, logger)
}

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}
