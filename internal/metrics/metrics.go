// Package metrics exposes fetch outcomes as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robotomize/ratewatch/provider"
)

const namespace = "ratewatch"

const (
	resultOK    = "ok"
	resultError = "error"
)

// Counter reports the number of known symbols
type Counter interface {
	Len() int
}

// Recorder implements scheduler.Observer
type Recorder struct {
	fetchTotal    *prometheus.CounterVec
	fetchErrors   *prometheus.CounterVec
	ticksSkipped  *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
}

// New registers the collectors on reg. A nil store disables the known symbols gauge
func New(reg prometheus.Registerer, store Counter) *Recorder {
	factory := promauto.With(reg)

	r := &Recorder{
		fetchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_total",
				Help:      "Number of finished fetches by result",
			},
			[]string{"task", "result"},
		),
		fetchErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_errors_total",
				Help:      "Number of failed fetches by error kind",
			},
			[]string{"task", "kind"},
		),
		ticksSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ticks_skipped_total",
				Help:      "Ticks skipped because the previous fetch was still running",
			},
			[]string{"task"},
		),
		fetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Fetch duration in seconds, retries included",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 11), // 10ms .. ~10s
			},
			[]string{"task"},
		),
	}

	if store != nil {
		factory.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "known_symbols",
				Help:      "Number of symbols with a known price",
			},
			func() float64 {
				return float64(store.Len())
			},
		)
	}

	return r
}

func (r *Recorder) TickSkipped(task string) {
	r.ticksSkipped.WithLabelValues(task).Inc()
}

func (r *Recorder) FetchSucceeded(task string, _ int, took time.Duration) {
	r.fetchTotal.WithLabelValues(task, resultOK).Inc()
	r.fetchDuration.WithLabelValues(task).Observe(took.Seconds())
}

func (r *Recorder) FetchFailed(task string, err error, took time.Duration) {
	r.fetchTotal.WithLabelValues(task, resultError).Inc()
	r.fetchErrors.WithLabelValues(task, provider.Kind(err)).Inc()
	r.fetchDuration.WithLabelValues(task).Observe(took.Seconds())
}

// Handler serves the metrics gathered by g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
