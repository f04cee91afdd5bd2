// Package metrics exposes the optional Prometheus counters and histogram
// the CLI binaries serve when run with --metrics-addr, the same way
// cmd/codefang wires github.com/prometheus/client_golang behind an optional
// flag rather than always running a metrics server.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// readHeaderTimeout bounds how long the metrics server waits for request
// headers, matching the hardening cmd/codefang applies to its own pprof
// HTTP server.
const readHeaderTimeout = 10 * time.Second

// Registry groups the counters and histogram both CLI binaries report.
type Registry struct {
	FingerprintsRead prometheus.Counter
	PairsEmitted     prometheus.Counter
	ClustersFound    prometheus.Counter
	ScanDuration     prometheus.Histogram

	registry *prometheus.Registry
}

// NewRegistry constructs a fresh, unregistered-with-the-default-registerer
// metric set rooted under the simhash namespace.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		registry: reg,
		FingerprintsRead: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "simhash",
			Name:      "fingerprints_read_total",
			Help:      "Number of fingerprints read from the input stream.",
		}),
		PairsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "simhash",
			Name:      "pairs_emitted_total",
			Help:      "Number of near-duplicate pairs emitted.",
		}),
		ClustersFound: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "simhash",
			Name:      "clusters_found_total",
			Help:      "Number of connected-component clusters found.",
		}),
		ScanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "simhash",
			Name:      "permutation_scan_duration_seconds",
			Help:      "Time spent on the whole near-duplicate search of one run, across all permutations.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Serve starts an HTTP server exposing /metrics on addr. It blocks until
// ctx is canceled, then shuts the server down gracefully.
func (r *Registry) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics: serve %s: %w", addr, err)
			return
		}
		errCh <- nil
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("metrics: shutdown: %w", err)
	}
	return <-errCh
}
