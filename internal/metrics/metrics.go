// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const prefix = "inventory"

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Invoice pipeline metrics
	InvoicesUploaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_invoices_uploaded_total",
			Help: "Total number of uploaded invoice documents",
		},
	)

	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_extraction_duration_seconds",
			Help:    "Duration of extraction calls in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"result"},
	)

	InvoiceLines = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_invoice_lines_total",
			Help: "Invoice lines processed by apply, by outcome",
		},
		[]string{"outcome"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 open, 2 half-open)",
		},
		[]string{"name"},
	)

	JobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_jobs_processed_total",
			Help: "Background jobs processed, by type and result",
		},
		[]string{"type", "result"},
	)
)

// ObserveExtraction records the duration of one extraction call.
func ObserveExtraction(start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ExtractionDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
}

// RecordApply counts the lines of one successful apply call.
func RecordApply(applied, skipped int) {
	InvoiceLines.WithLabelValues("applied").Add(float64(applied))
	InvoiceLines.WithLabelValues("skipped").Add(float64(skipped))
}
