package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(quotaReservationsTotal, newsFetchTotal, newsChainExhaustedTotal) }

var (
	quotaReservationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "news_quota_reservations_total",
			Help: "Quota reservation decisions for the metered provider.",
		},
		[]string{"result"}, // 'granted'|'denied'|'error'
	)

	newsFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "news_provider_fetch_total",
			Help: "Provider fetch attempts by outcome.",
		},
		[]string{"provider", "result"}, // result: 'success'|'error'|'empty'|'skipped'
	)

	newsChainExhaustedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "news_chain_exhausted_total",
			Help: "Requests where every provider tier failed.",
		},
	)
)

func IncQuotaReservation(result string) {
	quotaReservationsTotal.WithLabelValues(norm(result)).Inc()
}

func IncNewsFetch(provider, result string) {
	newsFetchTotal.WithLabelValues(norm(provider), norm(result)).Inc()
}

func IncNewsChainExhausted() { newsChainExhaustedTotal.Inc() }
