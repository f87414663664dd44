// Package cli holds the bootstrap steps shared by cmd/billing and
// cmd/billing-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"billing/internal/amqp"
	"billing/internal/config"
	"billing/internal/log"
	"billing/internal/services"
	"billing/internal/storage"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default. It runs before the config is validated,
// so unknown values fall back to info and text.
func SetupLogger(component string) *log.Logger {
	lc := log.DefaultConfig()
	lc.Component = component
	if level, err := log.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		lc.Level = level
	}
	if f := os.Getenv("LOG_FORMAT"); f != "" {
		lc.Format = f
	}
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		logger.Fail(context.Background(), "Failed to load configuration", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fail(context.Background(), "Configuration validation failed", err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite opens the repository and applies migrations.
// Returns the repository or exits the process on failure.
func InitSQLite(logger *log.Logger, dbPath string) *storage.SQLiteRepository {
	logger = logger.WithComponent(log.ComponentStorage)
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Fail(context.Background(), "Failed to initialize SQLite repository", err, "path", dbPath)
		os.Exit(1)
	}
	logger.Info("SQLite repository ready", "path", dbPath)
	return repo
}

// InitPublisher connects to RabbitMQ when AMQP_URL is set. A nil client
// means change events are not announced. Connection failures are logged and
// the server keeps running without a publisher.
func InitPublisher(logger *log.Logger, cfg *config.Config) (services.Publisher, *amqp.Client) {
	logger = logger.WithComponent(log.ComponentAMQP)
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled - no AMQP_URL provided")
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Fail(context.Background(), "Failed to initialize AMQP client, continuing without change events", err)
		return nil, nil
	}
	logger.Info("AMQP client connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client, client
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// RunCleanup runs cleanup with a deadline and reports whether it finished in time.
func RunCleanup(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		cleanup(ctx)
	}()

	select {
	case <-done:
		logger.Info("Shutdown complete")
	case <-ctx.Done():
		logger.Warn("Shutdown timeout reached")
	}
}
