// Package telemetry exposes Prometheus metrics and the OpenTelemetry tracer
// for verdict checks.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "newsverdict"

// Metrics holds the newsverdict Prometheus collectors
type Metrics struct {
	Checks                *prometheus.CounterVec
	Verdicts              *prometheus.CounterVec
	ClassificationSeconds prometheus.Histogram
	UpstreamFailures      *prometheus.CounterVec
	ExtractionFailures    prometheus.Counter
	Published             *prometheus.CounterVec
	HTTPRequests          *prometheus.CounterVec
	HTTPDuration          *prometheus.HistogramVec
}

// Provider bundles metrics, their registry and the tracer
type Provider struct {
	Tracer   trace.Tracer
	Metrics  *Metrics
	registry *prometheus.Registry
}

// NewProvider creates a provider with its own registry, so several can
// coexist in one process (tests, embedded use)
func NewProvider() *Provider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Provider{
		Tracer:   otel.Tracer(serviceName),
		Metrics:  initMetrics(promauto.With(reg)),
		registry: reg,
	}
}

func initMetrics(f promauto.Factory) *Metrics {
	return &Metrics{
		Checks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "newsverdict_checks_total",
			Help: "Checks by input source and terminal outcome",
		}, []string{"source", "outcome"}),

		Verdicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "newsverdict_verdicts_total",
			Help: "Verdicts by input source and label",
		}, []string{"source", "verdict"}),

		ClassificationSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "newsverdict_classification_duration_seconds",
			Help:    "Time spent in feature transform and classification",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		UpstreamFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "newsverdict_upstream_failures_total",
			Help: "News provider failures by provider",
		}, []string{"provider"}),

		ExtractionFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "newsverdict_extraction_failures_total",
			Help: "URLs that produced no article text",
		}),

		Published: f.NewCounterVec(prometheus.CounterOpts{
			Name: "newsverdict_events_published_total",
			Help: "Verdict events delivered by publisher and result",
		}, []string{"publisher", "result"}),

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "newsverdict_http_requests_total",
			Help: "Web UI and API requests",
		}, []string{"method", "route", "status"}),

		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "newsverdict_http_request_duration_seconds",
			Help:    "Web UI and API latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Handler serves the provider's registry for /metrics
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// RecordCheck counts a terminal outcome
func (p *Provider) RecordCheck(ctx context.Context, source, outcome string) {
	p.Metrics.Checks.WithLabelValues(source, outcome).Inc()
}

// RecordVerdict counts a verdict and observes classification latency
func (p *Provider) RecordVerdict(ctx context.Context, source, verdict string, duration time.Duration) {
	p.Metrics.Verdicts.WithLabelValues(source, verdict).Inc()
	p.Metrics.ClassificationSeconds.Observe(duration.Seconds())
}

// RecordUpstreamFailure counts a failed provider batch
func (p *Provider) RecordUpstreamFailure(ctx context.Context, provider string) {
	p.Metrics.UpstreamFailures.WithLabelValues(provider).Inc()
}

// RecordExtractionFailure counts a URL without extractable text
func (p *Provider) RecordExtractionFailure(ctx context.Context) {
	p.Metrics.ExtractionFailures.Inc()
}

// RecordPublish counts an event delivery attempt
func (p *Provider) RecordPublish(ctx context.Context, publisher string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	p.Metrics.Published.WithLabelValues(publisher, result).Inc()
}

// RecordHTTPRequest records one served request
func (p *Provider) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	p.Metrics.HTTPRequests.WithLabelValues(method, route, status).Inc()
	p.Metrics.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// StartSpan starts a span; the caller ends it.
//
//nolint:spancheck // Caller is responsible for ending the span
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return p.Tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
