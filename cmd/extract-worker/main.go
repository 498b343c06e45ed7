package main

import (
	"context"
	"os"
	"time"

	"consumo/internal/amqp"
	"consumo/internal/cli"
	"consumo/internal/core"
	"consumo/internal/export/sheets"
	"consumo/internal/octopus"
	"consumo/internal/services"
	"consumo/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting extract-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	store, closeStore := cli.InitStore(logger, cfg)
	defer closeStore()

	account := core.Account{Email: cfg.OctopusEmail, PropertyID: cfg.OctopusPropertyID}
	if err := store.LockAccount(context.Background(), account); err != nil {
		logger.Error("Account lock check failed", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	source := octopus.New(octopus.Config{
		APIURL:     cfg.APIURL,
		Email:      cfg.OctopusEmail,
		Password:   cfg.OctopusPassword,
		PropertyID: cfg.OctopusPropertyID,
	})

	// Google Sheets summary export is optional.
	var exporter worker.Exporter
	if cfg.SheetsSpreadsheetID != "" {
		sheetsExporter, err := sheets.New(context.Background(), cfg.SheetsSpreadsheetID, cfg.SheetsSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets exporter", "error", err)
			os.Exit(1)
		}
		exporter = sheetsExporter
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.SheetsSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled - no SHEETS_SPREADSHEET_ID provided")
	}

	clock := core.SystemClock{}
	extractSvc := services.NewExtractService(source, store, clock)
	extractWorker := worker.NewExtractWorker(extractSvc, store, exporter, clock)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// Consume queued extraction requests when AMQP is configured.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		go func() {
			err := amqpClient.ConsumeExtractRequests(ctx, func(msg *amqp.ExtractRequestMessage) error {
				return extractWorker.HandleExtractRequest(ctx, msg)
			})
			if err != nil && err != context.Canceled {
				logger.Error("Message consumption failed", "error", err)
			}
		}()
		logger.Info("Consuming extraction requests", "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - running on schedule only")
	}

	// Periodic extraction keeps the current month fresh even without
	// queued requests.
	go extractWorker.RunScheduler(ctx, cfg.ExtractInterval)

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
