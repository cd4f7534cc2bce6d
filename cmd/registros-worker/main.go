package main

import (
	"context"
	"errors"
	"os"

	"registros/internal/amqp"
	"registros/internal/cli"
	applog "registros/internal/log"
	gsheet "registros/internal/sheets/google"
	"registros/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)

	logger.Info("Starting registros-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required by the worker")
		os.Exit(1)
	}
	if !cfg.MirrorEnabled() {
		logger.Error("Google Sheets mirror is not configured (GOOGLE_SPREADSHEET_ID and service account credentials)")
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	sheets, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}
	if err := sheets.EnsureHeader(ctx); err != nil {
		logger.Error("Failed to prepare sheet header", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)

	broker, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer broker.Close()

	q := worker.DefaultQueue
	q.Name = cfg.AMQPMirrorQueue

	w := worker.NewMirrorWorker(sheets, logger)
	if err := w.Run(ctx, broker, q); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Mirror worker stopped", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
