package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"financy/internal/amqp"
	"financy/internal/cli"
	"financy/internal/config"
	flog "financy/internal/log"
	gsheet "financy/internal/sheets/google"
	"financy/internal/storage"
	"financy/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(flog.ComponentWorker, os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ledger, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}

	amqpLog := logger.WithComponent(flog.ComponentAMQP).With("queue", cfg.AMQPQueue)
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		amqpLog.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	syncer := worker.NewSyncWorker(repo, ledger, cfg.SyncBatchSize)
	logger.Info("Performing startup sync check")
	if err := syncer.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := client.Consume(gctx, syncer.HandleMessage)
		amqpLog.Info("Consumer stopped", "reason", err)
		return err
	})
	g.Go(func() error { return syncer.Run(gctx, cfg.SyncInterval) })

	logger.Info("Starting financy-worker",
		"queue", cfg.AMQPQueue,
		"sheet", cfg.GoogleSheetName,
		"interval", cfg.SyncInterval.String())
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
