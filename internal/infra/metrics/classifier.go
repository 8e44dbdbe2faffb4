package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		classifierCallsLatencyMs,
		classifierPromptTokens,
		classifierDedupeTotal,
	)
}

var (
	classifierCallsLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "classifier_calls_latency_ms",
			Help:    "Classifier call latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
		[]string{"classifier", "success"},
	)

	classifierPromptTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classifier_prompt_tokens",
			Help: "Sum of prompt tokens sent to LLM classifiers.",
		},
		[]string{"classifier"},
	)

	classifierDedupeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classifier_dedupe_total",
			Help: "Classifications avoided because a stored result existed.",
		},
		[]string{"source"}, // 'store'|'shared'
	)
)

func ObserveClassifierCall(classifier string, latencyMs int64, success bool) {
	classifierCallsLatencyMs.WithLabelValues(norm(classifier), strconv.FormatBool(success)).
		Observe(float64(latencyMs))
}

func AddClassifierPromptTokens(classifier string, n int) {
	classifierPromptTokens.WithLabelValues(norm(classifier)).Add(float64(n))
}

func IncClassifierDedupe(source string) {
	classifierDedupeTotal.WithLabelValues(norm(source)).Inc()
}
