package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(realtimeSubscribers, realtimeEventsTotal, realtimeDroppedTotal) }

var (
	realtimeSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_subscribers",
			Help: "Currently registered push subscribers.",
		},
	)

	realtimeEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_events_total",
			Help: "Events broadcast, by type.",
		},
		[]string{"type"},
	)

	realtimeDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "realtime_dropped_total",
			Help: "Per-subscriber deliveries skipped because the subscriber was slow or gone.",
		},
	)
)

func SetRealtimeSubscribers(n int) { realtimeSubscribers.Set(float64(n)) }

func IncRealtimeEvent(eventType string) {
	realtimeEventsTotal.WithLabelValues(norm(eventType)).Inc()
}

func IncRealtimeDropped() { realtimeDroppedTotal.Inc() }
