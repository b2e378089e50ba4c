// Package metrics exposes the process's prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DocumentsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autopdf_documents_generated_total",
		Help: "Total number of filled documents produced.",
	})

	GenerationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autopdf_generation_failures_total",
		Help: "Total number of fill or write errors while producing documents.",
	})

	DeliveryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autopdf_delivery_failures_total",
		Help: "Total number of documents that could not be pushed to their owner.",
	})

	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "autopdf_sessions_active",
		Help: "Number of form-filling conversations currently in progress.",
	})

	DocumentsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autopdf_documents_swept_total",
		Help: "Total number of expired documents removed by the retention sweep.",
	})

	SubmissionsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autopdf_submissions_recorded_total",
		Help: "Total number of completed submissions appended to the ledger.",
	})
)
