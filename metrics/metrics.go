// Package metrics exposes ingestion counters and embedding latency to Prometheus.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/poiesic/doxa/core"
	"github.com/poiesic/doxa/ingestion"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "doxa"

// Metrics holds an isolated registry and the collectors an ingestion run reports to.
type Metrics struct {
	Registry *prometheus.Registry

	statements        *prometheus.CounterVec
	embeddingDuration prometheus.Histogram
	embeddingErrors   prometheus.Counter

	logger *slog.Logger
}

var _ ingestion.Recorder = (*Metrics)(nil)

// Option configures Metrics.
type Option func(*options)

type options struct {
	defaultCollectors bool
	logger            *slog.Logger
}

// WithDefaultCollectors also registers Go runtime and process collectors.
func WithDefaultCollectors() Option {
	return func(o *options) {
		o.defaultCollectors = true
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates the collectors on a fresh registry.
func New(opts ...Option) *Metrics {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		statements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "statements_total",
			Help:      "Statements that reached a terminal state, by state.",
		}, []string{"state"}),
		embeddingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_duration_seconds",
			Help:      "Latency of embedding service calls.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		embeddingErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_errors_total",
			Help:      "Embedding service calls that failed.",
		}),
		logger: o.logger.With("component", "metrics"),
	}

	m.Registry.MustRegister(m.statements, m.embeddingDuration, m.embeddingErrors)
	if o.defaultCollectors {
		m.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// RecordOutcome counts one statement under its terminal state.
func (m *Metrics) RecordOutcome(state core.ItemState) {
	m.statements.WithLabelValues(state.String()).Inc()
}

// RecordEmbedding observes the latency of one embedding call.
func (m *Metrics) RecordEmbedding(d time.Duration, err error) {
	m.embeddingDuration.Observe(d.Seconds())
	if err != nil {
		m.embeddingErrors.Inc()
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
// It returns once the listener is closed.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		m.logger.Info("serving metrics", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
