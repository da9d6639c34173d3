// Package metrics exposes enrichment and ingestion counters in the
// Prometheus text format.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "flowlens"

// Collector holds every metric flowlens records. It owns its registry so
// several collectors can coexist in tests.
type Collector struct {
	registry *prometheus.Registry

	Enriched       *prometheus.CounterVec
	RequestTypes   *prometheus.CounterVec
	Decodes        *prometheus.CounterVec
	DecodeCache    *prometheus.CounterVec
	StoredFlows    prometheus.Gauge
	RefreshSeconds prometheus.Histogram
	RefreshErrors  prometheus.Counter
}

// NewCollector creates and registers all metrics. Go runtime and process
// collectors are included when withRuntime is set.
func NewCollector(withRuntime bool) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		Enriched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enriched_flows_total",
			Help:      "Flows enriched, by application category.",
		}, []string{"category"}),
		RequestTypes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_types_total",
			Help:      "Request type classifications, by resource type.",
		}, []string{"type"}),
		Decodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decodes_total",
			Help:      "Decode analyses, by best method and outcome.",
		}, []string{"method", "outcome"}),
		DecodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_cache_lookups_total",
			Help:      "Decode cache lookups, by result.",
		}, []string{"result"}),
		StoredFlows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stored_flows",
			Help:      "Flows currently held in the store.",
		}),
		RefreshSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Time spent refreshing a session from the capture backend.",
			Buckets:   prometheus.DefBuckets,
		}),
		RefreshErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_errors_total",
			Help:      "Failed session refreshes.",
		}),
	}

	c.registry.MustRegister(
		c.Enriched,
		c.RequestTypes,
		c.Decodes,
		c.DecodeCache,
		c.StoredFlows,
		c.RefreshSeconds,
		c.RefreshErrors,
	)
	if withRuntime {
		c.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return c
}

// Registry returns the registry metrics are registered with.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveDecode records the outcome of a decode analysis.
func (c *Collector) ObserveDecode(method string, success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	c.Decodes.WithLabelValues(method, outcome).Inc()
}

// ObserveCache records a cache hit or miss.
func (c *Collector) ObserveCache(hit bool) {
	if hit {
		c.DecodeCache.WithLabelValues("hit").Inc()
		return
	}
	c.DecodeCache.WithLabelValues("miss").Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("metrics server listening", slog.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving metrics: %w", err)
	}
	return nil
}
