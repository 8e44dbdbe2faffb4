package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(dbPoolConns, resultStoreOpsTotal) }

var (
	dbPoolConns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_conns",
			Help: "Current state of the result store connection pool.",
		},
		[]string{"state"}, // 'total', 'idle', 'acquired', 'max'
	)

	resultStoreOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "result_store_ops_total",
			Help: "Result store operations by backend, op and outcome.",
		},
		[]string{"backend", "op", "result"},
	)
)

func SetDBPoolConns(total, idle, acquired, max int32) {
	dbPoolConns.WithLabelValues("total").Set(float64(total))
	dbPoolConns.WithLabelValues("idle").Set(float64(idle))
	dbPoolConns.WithLabelValues("acquired").Set(float64(acquired))
	dbPoolConns.WithLabelValues("max").Set(float64(max))
}

func IncResultStoreOp(backend, op, result string) {
	resultStoreOpsTotal.WithLabelValues(norm(backend), norm(op), norm(result)).Inc()
}
