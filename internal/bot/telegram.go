package bot

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram adapts the Telegram Bot API to the Sender interface and feeds
// incoming updates into the dispatcher.
type Telegram struct {
	client *tgbotapi.BotAPI
}

func NewTelegram(token string) (*Telegram, error) {
	client, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	return &Telegram{client: client}, nil
}

func (t *Telegram) SendMessage(chatID int64, text string) error {
	_, err := t.client.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (t *Telegram) SendKeyboard(chatID int64, text string, rows [][]Button) error {
	markup := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Data))
		}
		markup = append(markup, buttons)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(markup...)
	_, err := t.client.Send(msg)
	return err
}

func (t *Telegram) SendDocument(chatID int64, path, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = caption
	_, err := t.client.Send(doc)
	return err
}

// Run long-polls for updates until the context is cancelled.
func (t *Telegram) Run(ctx context.Context, b *Bot) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := t.client.GetUpdatesChan(cfg)

	slog.Info("Telegram bot started", "username", t.client.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			t.client.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return fmt.Errorf("update channel closed")
			}
			t.dispatch(ctx, b, update)
		}
	}
}

func (t *Telegram) dispatch(ctx context.Context, b *Bot, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		b.HandleMessage(ctx, update.Message.Chat.ID, update.Message.Text)
	case update.CallbackQuery != nil:
		// Acknowledge the press so the client stops its spinner.
		if _, err := t.client.Request(tgbotapi.NewCallback(update.CallbackQuery.ID, "")); err != nil {
			slog.Warn("Failed to answer callback", "error", err)
		}
		if update.CallbackQuery.Message != nil {
			b.HandleCallback(ctx, update.CallbackQuery.Message.Chat.ID, update.CallbackQuery.Data)
		}
	}
}
