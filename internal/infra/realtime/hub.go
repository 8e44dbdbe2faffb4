// File: internal/infra/realtime/hub.go
package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"newsmap/internal/domain/model"
	"newsmap/internal/domain/ports/adapter"
	"newsmap/internal/infra/metrics"
)

var _ adapter.Broadcaster = (*Hub)(nil)

// Hub is the in-process registry of live subscribers. Each subscriber owns a
// buffered channel; a full buffer drops the event for that subscriber only.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]chan model.Event
	buffer int
	closed bool
	logger *zerolog.Logger
	now    func() time.Time
}

func NewHub(buffer int, logger *zerolog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	l := logger.With().Str("component", "RealtimeHub").Logger()
	return &Hub{
		subs:   make(map[string]chan model.Event),
		buffer: buffer,
		logger: &l,
		now:    time.Now,
	}
}

// Register adds a subscriber and queues its "connected" event. The returned
// channel is closed by Unregister or Close.
func (h *Hub) Register() (string, <-chan model.Event) {
	id := uuid.NewString()
	ch := make(chan model.Event, h.buffer)
	ch <- model.NewConnectedEvent(h.now())

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return id, ch
	}
	h.subs[id] = ch
	n := len(h.subs)
	h.mu.Unlock()

	metrics.SetRealtimeSubscribers(n)
	h.logger.Debug().Str("subscriber", id).Int("subscribers", n).Msg("subscriber registered")
	return id, ch
}

func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	ch, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
		close(ch)
	}
	n := len(h.subs)
	h.mu.Unlock()

	if ok {
		metrics.SetRealtimeSubscribers(n)
		h.logger.Debug().Str("subscriber", id).Int("subscribers", n).Msg("subscriber removed")
	}
}

// Broadcast never blocks on a subscriber.
func (h *Hub) Broadcast(ev model.Event) {
	metrics.IncRealtimeEvent(string(ev.Type))

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			metrics.IncRealtimeDropped()
			h.logger.Warn().Str("subscriber", id).Str("event", string(ev.Type)).Msg("subscriber buffer full, event dropped")
		}
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close disconnects every subscriber; later registrations get a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
	metrics.SetRealtimeSubscribers(0)
}
