// File: internal/infra/telegram/alerts.go
package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"newsmap/internal/domain/model"
	"newsmap/internal/domain/ports/adapter"
)

// Subscriptions is the part of the realtime hub the forwarder needs.
type Subscriptions interface {
	Register() (string, <-chan model.Event)
	Unregister(id string)
}

// AlertForwarder subscribes like any live client and relays job_failed
// events to an operator chat.
type AlertForwarder struct {
	subs     Subscriptions
	notifier adapter.Notifier
	chatID   int64
	interval time.Duration
	logger   *zerolog.Logger
}

func NewAlertForwarder(subs Subscriptions, notifier adapter.Notifier, chatID int64, logger *zerolog.Logger) *AlertForwarder {
	l := logger.With().Str("component", "AlertForwarder").Logger()
	return &AlertForwarder{
		subs:     subs,
		notifier: notifier,
		chatID:   chatID,
		interval: time.Second / 25, // Telegram allows ~30 msg/s per bot
		logger:   &l,
	}
}

// Run blocks until ctx is done or the subscription channel is closed.
func (f *AlertForwarder) Run(ctx context.Context) {
	id, events := f.subs.Register()
	defer f.subs.Unregister(id)

	throttle := time.NewTicker(f.interval)
	defer throttle.Stop()

	f.logger.Info().Int64("chat_id", f.chatID).Msg("alert forwarder started")
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Type != model.EventJobFailed {
				continue
			}
			select {
			case <-throttle.C:
			case <-ctx.Done():
				return
			}
			if err := f.notifier.SendMessage(ctx, f.chatID, FormatFailure(ev)); err != nil {
				f.logger.Warn().Err(err).Str("job_id", ev.JobID).Msg("failed to send alert")
			}
		}
	}
}

func FormatFailure(ev model.Event) string {
	at := time.UnixMilli(ev.Timestamp).UTC().Format(time.RFC3339)
	return fmt.Sprintf("bias job %s failed at %s: %s", ev.JobID, at, ev.Error)
}
