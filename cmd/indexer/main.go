package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/verdant-protocol/carbon-indexer/internal/adapter"
	"github.com/verdant-protocol/carbon-indexer/internal/config"
	"github.com/verdant-protocol/carbon-indexer/internal/feed"
	"github.com/verdant-protocol/carbon-indexer/internal/logger"
	"github.com/verdant-protocol/carbon-indexer/internal/reducer"
	"github.com/verdant-protocol/carbon-indexer/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func reducerConfig(cfg config.ReducerConfig) (reducer.Config, error) {
	var rc reducer.Config

	switch cfg.ZoneSource {
	case "", "category":
		rc.ZoneSource = reducer.ZoneFromCategory
	case "guardian":
		rc.ZoneSource = reducer.ZoneFromGuardian
	default:
		return rc, fmt.Errorf("unknown reducer.zone_source %q", cfg.ZoneSource)
	}

	switch cfg.TierSource {
	case "", "derived":
		rc.TierSource = reducer.TierDerived
	case "event":
		rc.TierSource = reducer.TierFromEvent
	default:
		return rc, fmt.Errorf("unknown reducer.tier_source %q", cfg.TierSource)
	}

	return rc, nil
}

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadIndexerConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "indexer",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Carbon Indexer")

	rc, err := reducerConfig(cfg.Reducer)
	if err != nil {
		logger.FatalCtx(ctx, "Invalid reducer configuration", zap.Error(err))
	}

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("dsn", cfg.Database.DSN()))
	}
	if err := store.AutoMigrate(db); err != nil {
		logger.FatalCtx(ctx, "Failed to migrate database", zap.Error(err))
	}
	if err := store.ConfigureConnectionPool(db,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
		cfg.Database.ConnMaxLifetime,
		cfg.Database.ConnMaxIdleTime,
	); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database")

	dataStore := store.NewPGStore(db)

	// Connect to NATS JetStream
	natsJS := adapter.NewNatsJetStream()
	natsConn, js, err := natsJS.Connect(cfg.NATS.URL,
		nats.Name(cfg.NATS.ConnectionName),
		nats.MaxReconnects(cfg.NATS.MaxReconnects),
		nats.ReconnectWait(cfg.NATS.ReconnectWait),
	)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to NATS", zap.Error(err), zap.String("url", cfg.NATS.URL))
	}
	defer natsConn.Close()
	logger.InfoCtx(ctx, "Connected to NATS JetStream", zap.String("url", natsConn.ConnectedUrl()))

	eventFeed := feed.New(feed.Config{
		StreamName: cfg.NATS.StreamName,
		Durable:    cfg.NATS.ConsumerName,
		AckWait:    cfg.NATS.AckWait,
		MaxDeliver: cfg.NATS.MaxDeliver,
	}, js, adapter.NewJSON(), reducer.New(dataStore, rc))

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel for feed errors
	errCh := make(chan error, 1)

	go func() {
		if err := eventFeed.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "feed"))
		cancel()
	}

	// Give some time for graceful shutdown
	time.Sleep(time.Second)

	// Use non-context logger for final shutdown message since context is already canceled
	logger.Info("Carbon Indexer stopped")
}
