// Package metrics exposes client-side Prometheus metrics: fetch outcomes,
// stale-response discards and optimistic-mutation rollbacks.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector registers and records all client metrics.
type Collector struct {
	fetchSuccess *prometheus.CounterVec
	fetchFail    *prometheus.CounterVec
	staleDiscard *prometheus.CounterVec
	fetchLatency prometheus.Histogram
	rollbacks    prometheus.Counter
	generates    *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		fetchSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "koma_feed_fetch_success_total",
			Help: "Feed fetches that were applied, per tab.",
		}, []string{"tab"}),
		fetchFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "koma_feed_fetch_fail_total",
			Help: "Feed fetches that ended in the error state, per tab.",
		}, []string{"tab"}),
		staleDiscard: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "koma_feed_stale_discard_total",
			Help: "Feed responses discarded by the epoch or generation guard, per tab.",
		}, []string{"tab"}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "koma_feed_fetch_latency_seconds",
			Help:    "Feed fetch latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		rollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "koma_mutation_rollback_total",
			Help: "Optimistic edits reverted after a failed mutation.",
		}),
		generates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "koma_generate_total",
			Help: "Generation requests by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		c.fetchSuccess,
		c.fetchFail,
		c.staleDiscard,
		c.fetchLatency,
		c.rollbacks,
		c.generates,
	)

	return c
}

func (c *Collector) RecordFetchSuccess(tab string) {
	c.fetchSuccess.WithLabelValues(tab).Inc()
}

func (c *Collector) RecordFetchFailure(tab string) {
	c.fetchFail.WithLabelValues(tab).Inc()
}

func (c *Collector) RecordStaleDiscard(tab string) {
	c.staleDiscard.WithLabelValues(tab).Inc()
}

func (c *Collector) RecordFetchLatency(d time.Duration) {
	c.fetchLatency.Observe(d.Seconds())
}

func (c *Collector) RecordRollback() {
	c.rollbacks.Inc()
}

func (c *Collector) RecordGenerate(outcome string) {
	c.generates.WithLabelValues(outcome).Inc()
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}
