// The kassa-bot binary runs the Telegram front-end against the ledger API.
package main

import (
	"context"
	"errors"
	"os"

	"kassa/internal/bot"
	"kassa/internal/botapi"
	"kassa/internal/cli"
	"kassa/internal/config"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadConfig(logger, (*config.Config).ValidateBot)

	client := botapi.New(cfg.APIBaseURL)
	defer client.Close()

	tg, err := bot.NewTelegram(cfg.TelegramToken)
	if err != nil {
		logger.Error("Failed to connect to Telegram", "error", err)
		os.Exit(1)
	}

	b := bot.New(client, tg)

	ctx, stop := cli.SignalContext()
	defer stop()

	logger.Info("Starting bot", "api", cfg.APIBaseURL)
	if err := tg.Run(ctx, b); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Bot stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Bot stopped")
}
