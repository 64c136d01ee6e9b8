package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPResponseDurationMilliseconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "carrental_api_response_duration_milliseconds",
		Help:    "The duration of time it takes to receive and write a response to an API request",
		Buckets: prometheus.ExponentialBuckets(9.375, 2, 10),
	}, []string{"route", "code"})

	BestEffortFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "carrental_best_effort_failures_total",
		Help: "Number of best-effort operations (storage cleanup, cache invalidation) that failed",
	}, []string{"operation"})
)

func init() {
	prometheus.MustRegister(HTTPResponseDurationMilliseconds)
	prometheus.MustRegister(BestEffortFailuresTotal)
}
