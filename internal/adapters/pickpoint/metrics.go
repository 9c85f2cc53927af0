package pickpoint

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pickpoint_console",
		Name:      "upstream_requests_total",
		Help:      "Calls made to the PickPoint API by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pickpoint_console",
		Name:      "upstream_request_duration_seconds",
		Help:      "Latency of PickPoint API calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})
)

func outcomeOf(status int, err error) string {
	switch {
	case status == 0 && err != nil:
		return "unavailable"
	case status >= 500:
		return "server_error"
	case status >= 400:
		return "client_error"
	}
	return "ok"
}
