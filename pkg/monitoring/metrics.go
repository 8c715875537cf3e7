package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricDispatches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pipelinemonitor_dispatch_total",
			Help: "Number of records dispatched",
		},
	)
	metricDispatchFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pipelinemonitor_dispatch_failed_total",
			Help: "Number of dispatches aborted before any sink was written",
		},
	)
	metricWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipelinemonitor_writes_total",
			Help: "Number of successful sink writes",
		},
		[]string{"sink"},
	)
	metricWriteFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipelinemonitor_write_failures_total",
			Help: "Number of failed sink writes",
		},
		[]string{"sink"},
	)
	metricDispatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipelinemonitor_dispatch_duration_seconds",
			Help:    "Time taken to refresh a record and write it to all sinks",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		},
	)
)

func init() {
	prometheus.MustRegister(metricDispatches)
	prometheus.MustRegister(metricDispatchFailures)
	prometheus.MustRegister(metricWrites)
	prometheus.MustRegister(metricWriteFailures)
	prometheus.MustRegister(metricDispatchDuration)
}
