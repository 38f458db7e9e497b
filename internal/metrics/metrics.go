// Package metrics exposes word pool and request metrics to Prometheus.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/serroba/wordlink/internal/shortener"
	"go.uber.org/zap"
)

const namespace = "wordlink"

var (
	poolWordsDesc = prometheus.NewDesc(
		namespace+"_pool_words",
		"Number of dictionary words by state",
		[]string{"state"},
		nil,
	)
	recordsDesc = prometheus.NewDesc(
		namespace+"_records",
		"Number of live records",
		nil,
		nil,
	)
)

// StatsSource reports the current store statistics.
type StatsSource interface {
	Stats(ctx context.Context) (shortener.Stats, error)
}

// PoolCollector is a custom Prometheus collector that reads pool and record
// counts from the store on each scrape.
type PoolCollector struct {
	source  StatsSource
	timeout time.Duration
	logger  *zap.Logger
}

// NewPoolCollector creates a collector reading from source.
func NewPoolCollector(source StatsSource, logger *zap.Logger) *PoolCollector {
	return &PoolCollector{source: source, timeout: 5 * time.Second, logger: logger}
}

// Describe sends the metric descriptors to the channel.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- poolWordsDesc
	ch <- recordsDesc
}

// Collect queries the store and emits the pool gauges.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	stats, err := c.source.Stats(ctx)
	if err != nil {
		c.logger.Error("failed to collect pool metrics", zap.Error(err))

		return
	}

	ch <- prometheus.MustNewConstMetric(poolWordsDesc, prometheus.GaugeValue, float64(stats.UsedWords), "used")
	ch <- prometheus.MustNewConstMetric(poolWordsDesc, prometheus.GaugeValue, float64(stats.Words-stats.UsedWords), "unused")
	ch <- prometheus.MustNewConstMetric(recordsDesc, prometheus.GaugeValue, float64(stats.Records))
}

// Metrics owns the registry served on /metrics.
type Metrics struct {
	registry   *prometheus.Registry
	Operations *prometheus.CounterVec
}

// New registers the pool collector, the operation counter and the Go runtime collectors.
func New(source StatsSource, logger *zap.Logger) *Metrics {
	registry := prometheus.NewRegistry()

	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Handled API operations by operation id and status code",
	}, []string{"operation", "status"})

	registry.MustRegister(
		NewPoolCollector(source, logger),
		operations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{registry: registry, Operations: operations}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
