// The kassa binary serves the ledger API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"kassa/internal/amqp"
	"kassa/internal/api"
	"kassa/internal/cli"
	"kassa/internal/config"
	"kassa/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadConfig(logger, (*config.Config).Validate)

	repo := cli.OpenStorage(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// The event feed is optional: without AMQP the API still serves, it
	// just stops exporting to the journal.
	var pub services.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		pub = client
	} else {
		logger.Warn("AMQP_URL not set, ledger event feed disabled")
	}

	ledger := services.NewLedger(repo, pub)
	srv := api.NewServer(ledger, api.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		ReportCacheSize:    cfg.ReportCacheSize,
		ReportCacheTTL:     cfg.ReportCacheTTL,
	})
	defer srv.Close()

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP shutdown failed", "error", err)
		}
	}()

	logger.Info("Starting ledger API", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("HTTP server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Ledger API stopped")
}
