package manager

import (
	"github.com/coldbrook-labs/shale/pkg/debug"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// openBuckets tracks the number of buckets currently open
	openBuckets = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "shale",
		Subsystem: "manager",
		Name:      "open_buckets",
		Help:      "Number of buckets currently open",
	})

	// BucketOperations tracks lifecycle operations by type
	BucketOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shale",
		Subsystem: "manager",
		Name:      "bucket_operations_total",
		Help:      "Total number of bucket lifecycle operations",
	}, []string{"operation"}) // operation: "create", "open", "remove", "destroy"
)

func init() {
	debug.Registry().MustRegister(
		openBuckets,
		BucketOperations,
	)
}
