// Package metrics provides Prometheus metrics for the CMS server, the site
// and the content client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal tracks served requests by route and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "khadimy",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests served",
		},
		[]string{"server", "method", "route", "status_code"},
	)

	// HTTPRequestDuration tracks served request duration
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "khadimy",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"server", "method", "route"},
	)

	// CMSRequestsTotal tracks outbound content API requests
	CMSRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "khadimy",
			Subsystem: "cms_client",
			Name:      "requests_total",
			Help:      "Total number of content API requests by outcome",
		},
		[]string{"method", "outcome"},
	)

	// CMSRequestDuration tracks outbound content API request duration
	CMSRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "khadimy",
			Subsystem: "cms_client",
			Name:      "request_duration_seconds",
			Help:      "Duration of content API requests in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method"},
	)

	// SeedStepsTotal tracks bootstrap seeding outcomes per step
	SeedStepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "khadimy",
			Subsystem: "seed",
			Name:      "steps_total",
			Help:      "Total number of seeding operations by step and outcome",
		},
		[]string{"step", "outcome"},
	)

	// UploadsTotal tracks media uploads
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "khadimy",
			Subsystem: "upload",
			Name:      "files_total",
			Help:      "Total number of uploaded files by outcome",
		},
		[]string{"outcome"},
	)
)
