// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StoreOperationsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_store_operations_completed_total",
			Help: "Total number of store operations completed",
		},
		[]string{"operation"},
	)

	StoreOperationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_store_operations_failed_total",
			Help: "Total number of store operations failed",
		},
		[]string{"operation", "error_code"},
	)

	StoreDataFileMissing = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "activity_store_data_file_missing_total",
			Help: "Loads that found no data file and returned an empty collection",
		},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "activity_store_operation_duration_seconds",
			Help: "Duration of store operations in seconds",
		},
		[]string{"operation"},
	)

	StoreActivities = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "activity_store_activities",
			Help: "Number of activities in the last collection loaded or saved",
		},
	)
)
