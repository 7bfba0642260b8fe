package httpapi

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var httpRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "subrules_http_requests_total",
		Help: "Total HTTP requests by route pattern and status",
	},
	[]string{"route", "status"},
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
}

func metricsIncRequest(route string, status int) {
	if status == 0 {
		status = http.StatusOK
	}
	if route == "" {
		route = "(unmatched)"
	}
	httpRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

func metricsHandler() http.Handler {
	return promhttp.Handler()
}
