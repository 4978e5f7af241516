package api

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the daemon's Prometheus collectors.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	IngestedRecords prometheus.Counter
	RejectedBatches prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dnslens",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by route and status code",
		}, []string{"route", "code"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dnslens",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		IngestedRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dnslens",
			Name:      "ingested_records_total",
			Help:      "Total records inserted through the upload endpoint",
		}),

		RejectedBatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dnslens",
			Name:      "rejected_batches_total",
			Help:      "Total upload batches rejected as malformed",
		}),
	}

	reg.MustRegister(m.Requests, m.RequestDuration, m.IngestedRecords, m.RejectedBatches)
	return m
}
