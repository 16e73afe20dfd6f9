// Package metrics exports evaluation results to Prometheus.
package metrics

import (
	"errors"
	"time"

	"github.com/etnz/tracker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Evaluation results, the values of the "result" label.
const (
	ResultOK       = "ok"
	ResultDegraded = "degraded"
	ResultStorage  = "storage_error"
	ResultInvalid  = "invalid_ledger"
	ResultError    = "error"
)

// Recorder holds the tracker collectors.
type Recorder struct {
	evaluations   *prometheus.CounterVec
	duration      prometheus.Histogram
	fallbacks     *prometheus.CounterVec
	orphans       prometheus.Gauge
	marketValue   *prometheus.GaugeVec
	unrealizedPnL *prometheus.GaugeVec
	realizedPnL   *prometheus.GaugeVec
	openPositions prometheus.Gauge
}

// NewRecorder registers the collectors with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		evaluations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracker_evaluations_total",
				Help: "Total number of ledger evaluations by result",
			},
			[]string{"result"},
		),
		duration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tracker_evaluation_duration_seconds",
				Help:    "Ledger evaluation duration in seconds, quotes included",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
		),
		fallbacks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracker_quote_fallback_total",
				Help: "Total number of positions valued at cost because their quote failed",
			},
			[]string{"kind"},
		),
		orphans: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "tracker_orphan_sells",
				Help: "Number of sells without buy history in the last evaluation",
			},
		),
		marketValue: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tracker_market_value",
				Help: "Total market value of open positions",
			},
			[]string{"currency"},
		),
		unrealizedPnL: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tracker_unrealized_pnl",
				Help: "Total unrealized profit and loss",
			},
			[]string{"currency"},
		),
		realizedPnL: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tracker_realized_pnl",
				Help: "Total realized profit and loss",
			},
			[]string{"currency"},
		),
		openPositions: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "tracker_open_positions",
				Help: "Number of open positions",
			},
		),
	}
}

// Observe records one evaluation. Gauges keep their previous values when
// the evaluation failed.
func (r *Recorder) Observe(s tracker.Snapshot, d time.Duration, err error) {
	r.duration.Observe(d.Seconds())
	r.evaluations.WithLabelValues(result(s, err)).Inc()
	if err != nil {
		return
	}

	for _, v := range s.Stale() {
		r.fallbacks.WithLabelValues(v.QuoteErr.Kind.String()).Inc()
	}
	r.orphans.Set(float64(len(s.Orphans)))
	r.openPositions.Set(float64(len(s.Positions)))
	r.marketValue.WithLabelValues(s.Currency).Set(s.TotalMarketValue.AsFloat())
	r.unrealizedPnL.WithLabelValues(s.Currency).Set(s.TotalUnrealizedPnL.AsFloat())
	r.realizedPnL.WithLabelValues(s.Currency).Set(s.TotalRealizedPnL.AsFloat())
}

func result(s tracker.Snapshot, err error) string {
	switch {
	case errors.Is(err, tracker.ErrStorage):
		return ResultStorage
	case errors.Is(err, tracker.ErrInvalidRecord):
		return ResultInvalid
	case err != nil:
		return ResultError
	case s.Degraded():
		return ResultDegraded
	default:
		return ResultOK
	}
}
