package transform

import "github.com/prometheus/client_golang/prometheus"

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subrules_transform_runs_total",
			Help: "Total transform runs by outcome",
		},
		[]string{"outcome"},
	)
	nodesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subrules_nodes_total",
			Help: "Total input nodes by normalization outcome",
		},
		[]string{"outcome"},
	)
	appErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subrules_app_errors_total",
			Help: "Total aborted runs by stage and error code",
		},
		[]string{"stage", "code"},
	)
)

func init() {
	prometheus.MustRegister(runsTotal, nodesTotal, appErrorsTotal)
}
