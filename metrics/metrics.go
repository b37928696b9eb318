// Package metrics provides Prometheus metrics for kvtable operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kvtable_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kvtable_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Conversion metrics
	ConversionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kvtable_conversions_total",
			Help: "Total number of bucket to record conversions",
		},
		[]string{"backend", "status"}, // status: "success", "failure"
	)

	ConversionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kvtable_conversion_duration_seconds",
			Help:    "Bucket conversion duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	RowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kvtable_rows_total",
			Help: "Total number of rows produced by conversions",
		},
		[]string{"backend"},
	)

	// Bucket and key listing metrics
	ListingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kvtable_listings_total",
			Help: "Total number of bucket and key listings by source",
		},
		[]string{"backend", "source"}, // source: "backend", "cache"
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kvtable_errors_total",
			Help: "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)
)

// Conversion outcome labels
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Listing source labels
const (
	SourceBackend = "backend"
	SourceCache   = "cache"
)
