package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"MarketPulse/internal/collector"
	"MarketPulse/internal/model"
)

// Metrics holds all Prometheus metrics of the refresh loop.
type Metrics struct {
	Registry *prometheus.Registry

	RunsTotal       *prometheus.CounterVec // labels: status=ok|partial|failed
	FetchFailures   *prometheus.CounterVec // labels: instrument
	RunDuration     prometheus.Histogram
	FetchDuration   *prometheus.HistogramVec // labels: instrument
	ActiveSignals   *prometheus.GaugeVec     // labels: instrument, signal
	LastSuccess     prometheus.Gauge
	InstrumentsSeen prometheus.Gauge
}

var signalNames = []string{"golden_cross", "death_cross", "top_divergence", "bottom_divergence"}

// NewMetrics registers all metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketpulse_runs_total",
			Help: "Refresh runs by outcome",
		}, []string{"status"}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketpulse_fetch_failures_total",
			Help: "Instruments that fell back to an empty snapshot",
		}, []string{"instrument"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketpulse_run_duration_seconds",
			Help:    "Wall time of a full refresh",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marketpulse_instrument_duration_seconds",
			Help:    "Fetch and compute time per instrument",
			Buckets: prometheus.DefBuckets,
		}, []string{"instrument"}),
		ActiveSignals: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "marketpulse_signal_active",
			Help: "1 when the signal fired on the latest bar",
		}, []string{"instrument", "signal"}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "marketpulse_last_success_timestamp_seconds",
			Help: "Unix time of the last run with at least one snapshot",
		}),
		InstrumentsSeen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "marketpulse_instruments",
			Help: "Instruments on the latest board",
		}),
	}
	m.Registry.MustRegister(
		m.RunsTotal,
		m.FetchFailures,
		m.RunDuration,
		m.FetchDuration,
		m.ActiveSignals,
		m.LastSuccess,
		m.InstrumentsSeen,
	)
	return m
}

// ObserveRun records the outcome of one refresh.
func (m *Metrics) ObserveRun(board *model.Board, results []collector.Result, elapsed time.Duration, now time.Time) {
	failed := 0
	for _, r := range results {
		key := r.Instrument.Key
		m.FetchDuration.WithLabelValues(key).Observe(r.Duration.Seconds())
		if r.Err != nil {
			failed++
			m.FetchFailures.WithLabelValues(key).Inc()
		}
	}

	status := "ok"
	switch {
	case len(results) > 0 && failed == len(results):
		status = "failed"
	case failed > 0:
		status = "partial"
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(elapsed.Seconds())
	if status != "failed" {
		m.LastSuccess.Set(float64(now.Unix()))
	}

	m.ActiveSignals.Reset()
	m.InstrumentsSeen.Set(float64(board.Len()))
	for _, key := range board.Keys() {
		snap, _ := board.Get(key)
		fired := make(map[string]bool)
		for _, name := range snap.Signals().Names() {
			fired[name] = true
		}
		for _, name := range signalNames {
			v := 0.0
			if fired[name] {
				v = 1
			}
			m.ActiveSignals.WithLabelValues(key, name).Set(v)
		}
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
