package backend

import (
	"github.com/coldbrook-labs/shale/pkg/debug"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// OpenBackends tracks the number of backends currently managed
	OpenBackends = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "shale",
		Subsystem: "storage",
		Name:      "open_backends",
		Help:      "Number of storage backends currently open",
	})

	// Operations tracks backend operations by type and result
	Operations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shale",
		Subsystem: "storage",
		Name:      "operations_total",
		Help:      "Total number of storage backend operations",
	}, []string{"operation", "result"}) // operation: "write", "read", "delete"; result: "ok", "error"

	// BytesWritten tracks total bytes committed to backends
	BytesWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shale",
		Subsystem: "storage",
		Name:      "bytes_written_total",
		Help:      "Total bytes written to storage backends",
	})

	// BytesRead tracks total bytes served from backends
	BytesRead = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shale",
		Subsystem: "storage",
		Name:      "bytes_read_total",
		Help:      "Total bytes read from storage backends",
	})
)

func init() {
	debug.Registry().MustRegister(
		OpenBackends,
		Operations,
		BytesWritten,
		BytesRead,
	)
}
