package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"newsmap/internal/domain/ports/adapter"
)

var _ adapter.Notifier = (*NoopNotifier)(nil)

// NoopNotifier logs alerts instead of sending them. Used when no bot token is set.
type NoopNotifier struct {
	logger *zerolog.Logger
}

func NewNoopNotifier(logger *zerolog.Logger) *NoopNotifier {
	l := logger.With().Str("component", "NoopNotifier").Logger()
	return &NoopNotifier{logger: &l}
}

func (n *NoopNotifier) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.logger.Info().Int64("chat_id", chatID).Str("text", text).Msg("alert")
	return nil
}
