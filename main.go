package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/lms-store/internal/config"
	"github.com/SAP-F-2025/lms-store/internal/events"
	"github.com/SAP-F-2025/lms-store/internal/repositories"
	"github.com/SAP-F-2025/lms-store/internal/repositories/casdoor"
	"github.com/SAP-F-2025/lms-store/internal/services"
	"github.com/SAP-F-2025/lms-store/internal/storage"
	"github.com/SAP-F-2025/lms-store/internal/validator"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}

	// Initialize logger, stdout is kept for command output
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize change notifications
	var busOpts []events.BusOption
	if len(cfg.KafkaBrokers) > 0 {
		forwarder, err := events.NewKafkaForwarder(cfg.KafkaBrokers, logger)
		if err != nil {
			logger.Warn("Kafka forwarding disabled", "error", err)
		} else {
			busOpts = append(busOpts, events.WithForwarder(forwarder))
		}
	}
	bus := events.NewBus(logger, busOpts...)
	defer bus.Close()

	// Initialize storage
	store, err := openStore(ctx, cfg, bus, logger)
	if err != nil {
		logger.Error("Failed to open store", "driver", cfg.StoreDriver, "error", err)
		return 1
	}

	// Initialize services
	serviceManager := services.NewServiceManager(store, logger, validator.New())
	if err := serviceManager.Initialize(ctx); err != nil {
		logger.Error("Failed to initialize services", "error", err)
		_ = store.Close()
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = serviceManager.Shutdown(shutdownCtx)
	}()

	// Initialize the remote directory (if configured)
	var redisClient *redis.Client
	if cfg.Casdoor.Enabled() && cfg.RedisURL != "" {
		redisClient, err = storage.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("Directory cache disabled", "error", err)
		} else {
			defer redisClient.Close()
		}
	}

	cli := &commandLine{
		services:  serviceManager,
		store:     store,
		bus:       bus,
		directory: casdoor.NewUserDirectory(cfg.Casdoor, redisClient, logger),
		out:       os.Stdout,
		logger:    logger,
	}
	if err := cli.run(ctx, os.Args); err != nil {
		if !errors.Is(err, errHelp) {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
		}
		return 1
	}
	return 0
}

// openStore opens the configured backend and lays the collections out under
// cfg.StoreKeyPrefix. The prefix is applied by the store only.
func openStore(ctx context.Context, cfg *config.Config, publisher events.EventPublisher, logger *slog.Logger) (*repositories.Store, error) {
	backend, err := storage.Open(ctx, storage.Options{
		Driver:      cfg.StoreDriver,
		BoltPath:    cfg.BoltPath,
		RedisURL:    cfg.RedisURL,
		DatabaseURL: cfg.DatabaseURL,
	}, logger)
	if err != nil {
		return nil, err
	}

	store, err := repositories.NewStore(repositories.StoreConfig{
		Backend:   backend,
		Publisher: publisher,
		KeyPrefix: cfg.StoreKeyPrefix,
		Logger:    logger,
	})
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return store, nil
}
