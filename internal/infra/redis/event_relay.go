package redis

import (
	"context"
	"encoding/json"

	"newsmap/internal/domain/model"
	"newsmap/internal/domain/ports/adapter"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

var _ adapter.Broadcaster = (*EventRelay)(nil)

// EventRelay publishes events on a Redis channel and forwards everything it
// receives to the local registry, so every process sees every job's events.
// When publishing fails the event is delivered locally only.
type EventRelay struct {
	cli     *redis.Client
	channel string
	local   adapter.Broadcaster
	log     *zerolog.Logger
}

func NewEventRelay(c *Client, channel string, local adapter.Broadcaster, logger *zerolog.Logger) *EventRelay {
	if channel == "" {
		channel = "bias:events"
	}
	l := logger.With().Str("component", "EventRelay").Logger()
	return &EventRelay{cli: c.cli, channel: channel, local: local, log: &l}
}

func (r *EventRelay) Broadcast(evt model.Event) {
	b, err := json.Marshal(evt)
	if err == nil {
		err = r.cli.Publish(context.Background(), r.channel, b).Err()
	}
	if err != nil {
		r.log.Warn().Err(err).Str("type", string(evt.Type)).Msg("publish failed, delivering locally")
		r.local.Broadcast(evt)
	}
}

// Run subscribes until ctx is done.
func (r *EventRelay) Run(ctx context.Context) error {
	sub := r.cli.Subscribe(ctx, r.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	r.log.Info().Str("channel", r.channel).Msg("event relay subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var evt model.Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				r.log.Warn().Err(err).Msg("dropping malformed event")
				continue
			}
			r.local.Broadcast(evt)
		}
	}
}
