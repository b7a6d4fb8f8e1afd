// Package debug exposes the operational HTTP surface: Prometheus
// metrics, pprof profiles, and health/readiness probes.
package debug

import (
	"encoding/json"
	"net/http"
	"net/http/pprof"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ready atomic.Bool

	// Optional readiness check supplied by the server once its
	// dependencies are wired.
	readyCheckMu sync.RWMutex
	readyCheck   func() bool

	// Registry for metrics owned by this process. Exported on /metrics
	// alongside the default Go runtime metrics.
	registry = prometheus.NewRegistry()

	// Version is stamped by the build and reported on /version.
	Version = "dev"
)

func SetReady()    { ready.Store(true) }
func SetNotReady() { ready.Store(false) }

// SetReadyCheck registers an additional readiness condition. When set,
// /ready returns 200 only if SetReady has been called and the check
// returns true.
func SetReadyCheck(check func() bool) {
	readyCheckMu.Lock()
	defer readyCheckMu.Unlock()
	readyCheck = check
}

func IsReady() bool {
	if !ready.Load() {
		return false
	}

	readyCheckMu.RLock()
	check := readyCheck
	readyCheckMu.RUnlock()

	if check != nil {
		return check()
	}
	return true
}

// Registry returns the Prometheus registerer for process metrics.
func Registry() prometheus.Registerer {
	return registry
}

// Mux builds the operational mux. Call after all packages have
// registered their metrics.
func Mux() *http.ServeMux {
	mux := http.NewServeMux()

	gatherers := prometheus.Gatherers{
		prometheus.DefaultGatherer,
		registry,
	}
	mux.Handle("/metrics", promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{}))

	mux.Handle("/debug/pprof/", http.HandlerFunc(pprof.Index))
	mux.Handle("/debug/pprof/cmdline", http.HandlerFunc(pprof.Cmdline))
	mux.Handle("/debug/pprof/profile", http.HandlerFunc(pprof.Profile))
	mux.Handle("/debug/pprof/symbol", http.HandlerFunc(pprof.Symbol))
	mux.Handle("/debug/pprof/trace", http.HandlerFunc(pprof.Trace))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if IsReady() {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})

	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"version": Version,
			"go":      runtime.Version(),
		})
	})

	return mux
}
