// Package notify pushes short HTML messages to the site owner.
package notify

import (
	"context"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Notifier delivers a message to the owner.
type Notifier interface {
	Notify(ctx context.Context, html string) error
}

// Nop drops every message. Used when no channel is configured.
type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }

// Telegram sends messages to a single chat through the Bot API.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram authorises the bot token against the given endpoint. An empty
// endpoint uses the public Bot API.
func NewTelegram(token string, chatID int64, endpoint string, client *http.Client, log *zap.Logger) (*Telegram, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if client == nil {
		client = &http.Client{}
	}
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	if log != nil {
		log.Info("telegram bot authorized", zap.String("account", api.Self.UserName))
	}
	return &Telegram{api: api, chatID: chatID}, nil
}

func (t *Telegram) Notify(ctx context.Context, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, html)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
