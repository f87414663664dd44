package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"billing/internal/cli"
	apphttp "billing/internal/http"
	"billing/internal/log"
	"billing/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	publisher, amqpClient := cli.InitPublisher(logger, cfg)

	svc := apphttp.Services{
		Bills: services.NewBillService(repo, publisher, services.BillOptions{
			SerialPrefix:   cfg.SerialPrefix,
			RecordPayments: cfg.RecordBillPayments,
		}),
		Income:   services.NewIncomeService(repo, publisher),
		Expenses: services.NewExpenseService(repo, publisher),
		Stats:    services.NewStatsService(repo, nil),
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	srv, err := apphttp.NewServer(cfg.Addr(), svc, apphttp.Options{
		PaymentModes:       cfg.PaymentModes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
		Production:         cfg.IsProduction(),
		Ready:              repo.Ping,
		Logger:             logger,
	})
	if err != nil {
		logger.Fail(ctx, "Failed to build HTTP server", err)
		_ = repo.Close()
		os.Exit(1)
	}
	srv.MaxHeaderBytes = 1 << 16

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting billing server",
			log.FieldOperation, log.OpStartup,
			"addr", srv.Addr,
			"env", cfg.AppEnv,
			"serial_prefix", cfg.SerialPrefix,
			"record_bill_payments", cfg.RecordBillPayments,
			"amqp_enabled", amqpClient != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			logger.Fail(ctx, "Server failed", err)
			exitCode = 1
		}
	}

	logger.Info("Shutting down billing server", log.FieldOperation, log.OpShutdown)
	cli.RunCleanup(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Fail(ctx, "Server shutdown error", err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Fail(ctx, "Failed to close AMQP client", err)
			}
		}
		if err := repo.Close(); err != nil {
			logger.Fail(ctx, "Failed to close SQLite repository", err)
		}
	})
	os.Exit(exitCode)
}
