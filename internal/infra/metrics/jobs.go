package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		biasJobsProcessedTotal,
		biasJobRetriesTotal,
		biasJobsSubmittedTotal,
		biasJobsPrunedTotal,
		biasJobsPromotedTotal,
	)
}

var (
	biasJobsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bias_jobs_processed_total",
			Help: "Total number of bias jobs that reached a terminal status.",
		},
		[]string{"mode", "status"}, // mode: 'durable'|'immediate', status: 'completed'|'failed'
	)

	biasJobRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bias_job_retries_total",
			Help: "Attempts rescheduled with backoff after a failure.",
		},
	)

	biasJobsSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bias_jobs_submitted_total",
			Help: "Submissions accepted or rejected at the dispatcher.",
		},
		[]string{"mode", "result"}, // result: 'accepted'|'rejected'|'error'
	)

	biasJobsPrunedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bias_jobs_pruned_total",
			Help: "Terminal job records dropped by the retention sweep.",
		},
	)

	biasJobsPromotedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bias_jobs_promoted_total",
			Help: "Delayed retries moved back to the waiting list.",
		},
	)
)

func IncBiasJob(mode, status string) {
	biasJobsProcessedTotal.WithLabelValues(norm(mode), norm(status)).Inc()
}

func IncBiasJobRetry() { biasJobRetriesTotal.Inc() }

func IncBiasSubmit(mode, result string) {
	biasJobsSubmittedTotal.WithLabelValues(norm(mode), norm(result)).Inc()
}

func AddBiasJobsPruned(n int) { biasJobsPrunedTotal.Add(float64(n)) }

func AddBiasJobsPromoted(n int) { biasJobsPromotedTotal.Add(float64(n)) }
