package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(buildInfo, dispatchMode)
}

var (
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "build_info",
			Help: "A constant metric with labels for version and commit hash.",
		},
		[]string{"version", "commit"},
	)

	dispatchMode = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dispatch_mode",
			Help: "Set to 1 for the dispatch mode chosen at startup.",
		},
		[]string{"mode"},
	)
)

func SetBuildInfo(version, commit string) {
	buildInfo.WithLabelValues(version, commit).Set(1)
}

func SetDispatchMode(mode string) {
	dispatchMode.WithLabelValues(norm(mode)).Set(1)
}
