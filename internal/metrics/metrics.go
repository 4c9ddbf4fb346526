package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Record flow metrics
	RecordsRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neurotrace_pipeline_records_read_total",
			Help: "Total number of raw records read",
		},
		[]string{"source"},
	)

	RecordsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neurotrace_pipeline_records_rejected_total",
			Help: "Total number of records routed to the rejection sink",
		},
		[]string{"source", "stage"},
	)

	RecordsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neurotrace_pipeline_records_loaded_total",
			Help: "Total number of records upserted into measurements",
		},
		[]string{"source", "outcome"},
	)

	// Load path metrics
	LoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "neurotrace_pipeline_load_duration_seconds",
			Help:    "Duration of single-record load operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	LoadRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "neurotrace_pipeline_load_retries_total",
			Help: "Total number of load attempts beyond the first",
		},
	)

	// Audit trail metrics
	SinkWriteErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "neurotrace_pipeline_sink_write_errors_total",
			Help: "Total number of failed rejection sink writes",
		},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "neurotrace_pipeline_run_duration_seconds",
			Help:    "Duration of full pipeline runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)
)
