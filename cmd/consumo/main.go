package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"consumo/internal/amqp"
	"consumo/internal/cli"
	"consumo/internal/core"
	apphttp "consumo/internal/http"
	"consumo/internal/octopus"
	"consumo/internal/services"
	"consumo/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	store, closeStore := cli.InitStore(logger, cfg)
	defer closeStore()

	// Bind the storage location to this account before serving anything.
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

	clock := core.SystemClock{}
	extractSvc := services.NewExtractService(source, store, clock)
	reportSvc := services.NewReportService(store, clock)
	extractWorker := worker.NewExtractWorker(extractSvc, store, nil, clock)

	// Queue publisher is optional. Without it /extract runs inline.
	var publisher apphttp.ExtractPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("Extraction requests will be queued", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - extractions run inline")
	}

	srv := apphttp.NewServer(":"+cfg.Port, reportSvc, extractWorker, publisher)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Starting consumo server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
