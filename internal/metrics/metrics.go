// Package metrics exposes reconciliation counters for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pricebid-recon/internal/reconcile/model"
)

// Recorder implements service.Recorder on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	rows          *prometheus.CounterVec
	prices        *prometheus.CounterVec
	batchRows     *prometheus.HistogramVec
	batchDuration *prometheus.HistogramVec
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		rows: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pricebid",
				Subsystem: "reconcile",
				Name:      "rows_total",
				Help:      "Rows processed by outcome (matched, unmatched, skipped)",
			},
			[]string{"kind", "outcome"},
		),
		prices: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pricebid",
				Subsystem: "reconcile",
				Name:      "price_comparisons_total",
				Help:      "Price comparisons by status",
			},
			[]string{"kind", "status"},
		),
		batchRows: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "pricebid",
				Subsystem: "reconcile",
				Name:      "batch_rows",
				Help:      "Rows per uploaded batch",
				Buckets:   []float64{1, 10, 50, 100, 250, 500, 1000, 2500, 5000},
			},
			[]string{"kind"},
		),
		batchDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "pricebid",
				Subsystem: "reconcile",
				Name:      "batch_duration_seconds",
				Help:      "Duration of batch reconciliation in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
			[]string{"kind"},
		),
	}
}

func (r *Recorder) ObserveRow(kind model.FileType, outcome string) {
	r.rows.WithLabelValues(kind.String(), outcome).Inc()
}

func (r *Recorder) ObservePrice(kind model.FileType, status model.PriceStatus) {
	r.prices.WithLabelValues(kind.String(), string(status)).Inc()
}

func (r *Recorder) ObserveBatch(kind model.FileType, rows int, took time.Duration) {
	r.batchRows.WithLabelValues(kind.String()).Observe(float64(rows))
	r.batchDuration.WithLabelValues(kind.String()).Observe(took.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
