// Package telemetry provides observability with Prometheus metrics and
// structured logging setup.
package telemetry

import (
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for promptgate.
type Metrics struct {
	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Semantic cache metrics
	CacheHits          *prometheus.CounterVec
	CacheMisses        *prometheus.CounterVec
	CacheEntries       prometheus.Gauge
	CacheLookupLatency prometheus.Histogram
	CacheTokensSaved   *prometheus.CounterVec

	// Compression metrics
	CompressionRatio         prometheus.Histogram
	CompressionStageFailures *prometheus.CounterVec

	// Provider metrics
	ProviderRequests *prometheus.CounterVec
	ProviderErrors   *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates and registers all metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "promptgate_requests_total",
			Help: "Total chat requests by model and cache outcome",
		}, []string{"model", "cache"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "promptgate_request_duration_seconds",
			Help:    "End-to-end request duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"model"}),
		CacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "promptgate_cache_hits_total",
			Help: "Semantic cache hits by model",
		}, []string{"model"}),
		CacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "promptgate_cache_misses_total",
			Help: "Semantic cache misses by model",
		}, []string{"model"}),
		CacheEntries: factory.NewGauge(prometheus.GaugeOpts{
			Name: "promptgate_cache_entries",
			Help: "Number of live cache entries",
		}),
		CacheLookupLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "promptgate_cache_lookup_seconds",
			Help:    "Cache lookup latency",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}),
		CacheTokensSaved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "promptgate_cache_tokens_saved_total",
			Help: "Prompt and completion tokens saved by cache hits",
		}, []string{"model"}),
		CompressionRatio: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "promptgate_compression_ratio",
			Help:    "Compressed over original prompt length",
			Buckets: []float64{.1, .2, .3, .4, .5, .6, .7, .8, .9, 1},
		}),
		CompressionStageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "promptgate_compression_stage_failures_total",
			Help: "Transform stage failures by transform and operation",
		}, []string{"transform", "op"}),
		ProviderRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "promptgate_provider_requests_total",
			Help: "Upstream provider calls by provider",
		}, []string{"provider"}),
		ProviderErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "promptgate_provider_errors_total",
			Help: "Upstream provider errors by provider",
		}, []string{"provider"}),
		registry: reg,
	}
}

// Handler returns the Prometheus scrape handler for these metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SetupLogging configures the default slog logger from config values.
func SetupLogging(format, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	var handler slog.Handler
	if strings.ToLower(format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
