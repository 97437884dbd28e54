// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the service layer reports to.
type Recorder interface {
	RecordSuggestion(state string)
	RecordBalanceComputation(duration time.Duration)
	RecordDayFallbacks(count int)
	RecordEntriesUpserted(count int)
}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Nop{}
)

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	suggestions    *prometheus.CounterVec
	balances       prometheus.Counter
	dayFallbacks   prometheus.Counter
	upserted       prometheus.Counter
	computeLatency prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		suggestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carpool_suggestions_total",
			Help: "Driver suggestions served, by state.",
		}, []string{"state"}),
		balances: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "carpool_balance_computations_total",
			Help: "Balance computations over a group's history.",
		}),
		dayFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "carpool_day_parse_fallbacks_total",
			Help: "Stored days that could not be parsed and were read as today.",
		}),
		upserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "carpool_entries_upserted_total",
			Help: "Role entries written.",
		}),
		computeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "carpool_balance_computation_seconds",
			Help:    "Time spent computing balances.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.suggestions,
		c.balances,
		c.dayFallbacks,
		c.upserted,
		c.computeLatency,
	)

	return c
}

// RecordSuggestion counts a served suggestion under its state label.
func (c *Collector) RecordSuggestion(state string) {
	c.suggestions.WithLabelValues(state).Inc()
}

// RecordBalanceComputation counts one balance computation and observes its duration.
func (c *Collector) RecordBalanceComputation(duration time.Duration) {
	c.balances.Inc()
	c.computeLatency.Observe(duration.Seconds())
}

// RecordDayFallbacks adds stored days that were read as today.
func (c *Collector) RecordDayFallbacks(count int) {
	c.dayFallbacks.Add(float64(count))
}

// RecordEntriesUpserted adds role entries written by a save.
func (c *Collector) RecordEntriesUpserted(count int) {
	c.upserted.Add(float64(count))
}

// Handler serves the gathered metrics for Prometheus scraping.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything. Used by the CLI and tests.
type Nop struct{}

// RecordSuggestion does nothing.
func (Nop) RecordSuggestion(string) {}

// RecordBalanceComputation does nothing.
func (Nop) RecordBalanceComputation(time.Duration) {}

// RecordDayFallbacks does nothing.
func (Nop) RecordDayFallbacks(int) {}

// RecordEntriesUpserted does nothing.
func (Nop) RecordEntriesUpserted(int) {}
