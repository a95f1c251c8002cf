package main

import (
	"context"
	"errors"
	"os"
	"time"

	"budgetly/internal/amqp"
	"budgetly/internal/cli"
	"budgetly/internal/config"
	"budgetly/internal/log"
	gsheet "budgetly/internal/sheets/google"
	"budgetly/internal/worker"
)

func main() {
	cfg, logger := cli.LoadConfig(log.ComponentWorker, (*config.Config).ValidateMirror)
	logger.Info("Starting budgetly-worker")

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	sheetsClient, err := gsheet.New(initCtx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
		ExpensesSheet:   cfg.GoogleExpensesSheet,
		IncomeSheet:     cfg.GoogleIncomeSheet,
	})
	initCancel()
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer amqpClient.Close()

	mirror := worker.NewMirrorWorker(sheetsClient, logger)
	ctx, done := cli.GracefulShutdown(logger, 15*time.Second, nil)

	logger.Info("Consuming transaction events", "queue", cfg.AMQPQueue)
	if err := amqpClient.RunConsumer(ctx, mirror.HandleTransactionCreated); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err.Error())
		os.Exit(1)
	}

	<-done
	logger.Info("Worker stopped gracefully")
}
