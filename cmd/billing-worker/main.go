package main

import (
	"context"
	"errors"
	"os"
	"time"

	"billing/internal/amqp"
	"billing/internal/cli"
	"billing/internal/config"
	"billing/internal/log"
	"billing/internal/sheets"
	gsheet "billing/internal/sheets/google"
	mem "billing/internal/sheets/memory"
	"billing/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)
	os.Exit(run(logger, cfg))
}

// run owns every resource so deferred cleanup happens before the process exits.
func run(logger *log.Logger, cfg *config.Config) int {
	logger.Info("Starting billing-worker",
		log.FieldOperation, log.OpStartup,
		"sheets_backend", cfg.SheetsBackend)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Fail(context.Background(), "Failed to close SQLite repository", err)
		}
	}()

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	mirror, err := newMirror(ctx, logger.WithComponent(log.ComponentSheets), cfg)
	if err != nil {
		logger.Fail(ctx, "Failed to initialize Google Sheets client", err)
		return 1
	}

	syncWorker := worker.NewSyncWorker(repo, mirror, cfg.SheetTabs())

	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Fail(ctx, "Failed startup sync check", err, log.FieldOperation, log.OpSync)
	}

	if cfg.AMQPURL != "" {
		amqpLogger := logger.WithComponent(log.ComponentAMQP)
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			amqpLogger.Fail(ctx, "Failed to initialize AMQP client", err)
			return 1
		}
		defer amqpClient.Close()

		go func() {
			if err := amqpClient.ConsumeRecordChanges(ctx, syncWorker.HandleRecordChanged); err != nil && !errors.Is(err, context.Canceled) {
				amqpLogger.Fail(ctx, "Message consumption failed", err)
				cancel()
			}
		}()
	} else {
		logger.Info("AMQP disabled, relying on periodic sync", "interval", cfg.SyncInterval)
	}

	ticker := time.NewTicker(cfg.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutting down billing-worker", log.FieldOperation, log.OpShutdown)
			return 0
		case <-ticker.C:
			if err := syncWorker.SyncAll(ctx); err != nil && ctx.Err() == nil {
				logger.Fail(ctx, "Periodic sync failed", err, log.FieldOperation, log.OpSync)
			}
		}
	}
}

func newMirror(ctx context.Context, logger *log.Logger, cfg *config.Config) (sheets.Mirror, error) {
	if cfg.SheetsBackend != config.SheetsBackendGoogle {
		logger.Info("Using in-memory sheets backend")
		return mem.New(), nil
	}
	client, err := gsheet.NewFromConfig(ctx, cfg.GoogleSpreadsheetID, gsheet.Credentials{
		JSON:               cfg.GoogleServiceAccountJSON,
		File:               cfg.GoogleServiceAccountFile,
		ApplicationDefault: cfg.GoogleApplicationCredentials,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}
