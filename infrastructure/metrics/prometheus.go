// Package metrics provides Prometheus metrics for processing runs and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "readaloud"

// Pipeline implements interfaces.PipelineMetrics on a Prometheus registry
type Pipeline struct {
	registry *prometheus.Registry

	runs        *prometheus.CounterVec
	stages      *prometheus.HistogramVec
	tiers       *prometheus.CounterVec
	httpTotal   *prometheus.CounterVec
	httpLatency *prometheus.HistogramVec
}

// NewPipeline registers the collectors on a fresh registry
func NewPipeline() *Pipeline {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Pipeline{
		registry: reg,
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Processing runs by outcome",
			},
			[]string{"outcome"},
		),
		stages: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Pipeline stage duration in seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"stage", "result"},
		),
		tiers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "extraction_tier_total",
				Help:      "Extractions by the tier that produced the accepted result",
			},
			[]string{"tier"},
		),
		httpTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "status"},
		),
		httpLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// ObserveStage implements interfaces.PipelineMetrics
func (p *Pipeline) ObserveStage(stage string, duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	p.stages.WithLabelValues(stage, result).Observe(duration.Seconds())
}

// RunFinished implements interfaces.PipelineMetrics
func (p *Pipeline) RunFinished(outcome string) {
	p.runs.WithLabelValues(outcome).Inc()
}

// ExtractionTier implements interfaces.PipelineMetrics
func (p *Pipeline) ExtractionTier(tier string) {
	p.tiers.WithLabelValues(tier).Inc()
}

// ObserveRequest records one served HTTP request
func (p *Pipeline) ObserveRequest(method, route string, status int, duration time.Duration) {
	p.httpTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (p *Pipeline) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
