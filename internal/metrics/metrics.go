package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bench_items_total",
		Help: "Run items processed, by service type and terminal status",
	}, []string{"service", "status"})

	RunsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bench_runs_active",
		Help: "Runs currently in the running state",
	})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bench_stage_duration_seconds",
		Help:    "Per-stage latency (tts, stt, e2e)",
		Buckets: []float64{0.05, 0.1, 0.2, 0.3, 0.5, 0.8, 1.0, 2.0, 5.0, 10.0},
	}, []string{"stage"})

	WERObserved = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bench_wer",
		Help:    "Observed word error rate across run items",
		Buckets: []float64{0, 0.01, 0.05, 0.1, 0.2, 0.3, 0.5, 1.0},
	})

	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bench_errors_total",
		Help: "Adapter error counts by stage and error type",
	}, []string{"stage", "error_type"})

	RetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bench_vendor_retries_total",
		Help: "Bounded retry attempts issued against a vendor adapter",
	}, []string{"vendor", "capability"})

	AnomaliesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bench_anomalies_total",
		Help: "Run items flagged with an out-of-envelope RTF or duration",
	}, []string{"metric"})
)
