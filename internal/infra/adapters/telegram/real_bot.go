package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"newsmap/internal/domain/ports/adapter"
)

var _ adapter.Notifier = (*BotNotifier)(nil)

// BotNotifier sends operator alerts through the Telegram Bot API.
type BotNotifier struct {
	bot *tgbotapi.BotAPI
}

func NewBotNotifier(token string) (*BotNotifier, error) {
	return NewBotNotifierWithEndpoint(token, tgbotapi.APIEndpoint)
}

// NewBotNotifierWithEndpoint points the bot at a custom API endpoint
// ("https://host/bot%s/%s" format).
func NewBotNotifierWithEndpoint(token, endpoint string) (*BotNotifier, error) {
	if token == "" {
		return nil, errors.New("telegram bot token empty")
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, err
	}
	return &BotNotifier{bot: bot}, nil
}

func (b *BotNotifier) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	_, err := b.bot.Send(msg)
	return err
}
