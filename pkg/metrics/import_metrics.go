package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ImportRowsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nrpti_import_rows_processed_total",
		Help: "Rows imported successfully, by data source.",
	}, []string{"source"})

	ImportRowsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nrpti_import_rows_failed_total",
		Help: "Rows skipped due to transform or persistence errors, by data source.",
	}, []string{"source"})

	ImportTasksFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nrpti_import_tasks_finished_total",
		Help: "Import tasks finished, by terminal status.",
	}, []string{"status"})

	ImportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nrpti_import_duration_seconds",
		Help:    "Wall time of one import task, by data source.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"source"})

	RedactionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nrpti_redaction_failures_total",
		Help: "Redacted subset maintenance operations that failed.",
	})
)
