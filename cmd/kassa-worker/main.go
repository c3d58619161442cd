// The kassa-worker binary consumes ledger events and appends them to the
// Google Sheets journal.
package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"kassa/internal/amqp"
	"kassa/internal/cli"
	"kassa/internal/config"
	"kassa/internal/sheets"
	"kassa/internal/sheets/google"
	"kassa/internal/sheets/memory"
	"kassa/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadConfig(logger, (*config.Config).ValidateWorker)

	repo := cli.OpenStorage(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := cli.SignalContext()
	defer stop()

	var journal sheets.JournalAppender
	if cfg.GoogleSpreadsheetID != "" {
		journal, err = google.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to set up Google Sheets journal", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, journal rows stay in memory")
		journal = memory.New()
	}

	w := worker.NewJournalWorker(repo, journal)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeLedgerEvents(gctx, w.HandleLedgerEvent)
	})

	logger.Info("Starting journal worker", "queue", cfg.AMQPQueue)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Journal worker stopped")
}
