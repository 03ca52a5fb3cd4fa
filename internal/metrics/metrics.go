package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Alias1177/MarketRegime/internal/regime"
)

// Recorder holds the Prometheus metrics of the regime service
type Recorder struct {
	Evaluations        *prometheus.CounterVec
	Failures           prometheus.Counter
	Qualified          *prometheus.GaugeVec
	AdditionalRatio    *prometheus.GaugeVec
	Current            *prometheus.GaugeVec
	Switches           *prometheus.CounterVec
	EvaluationDuration prometheus.Histogram

	gatherer prometheus.Gatherer
}

// NewRecorder creates the metrics and registers them with reg. A nil reg
// uses a private registry.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	r := &Recorder{
		Evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regime_evaluations_total",
				Help: "Total number of evaluations by resulting regime",
			},
			[]string{"regime"},
		),

		Failures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "regime_evaluation_failures_total",
				Help: "Total number of evaluations that could not complete",
			},
		),

		Qualified: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "regime_qualified",
				Help: "Whether the regime qualified in the latest evaluation (0 or 1)",
			},
			[]string{"regime"},
		),

		AdditionalRatio: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "regime_additional_ratio",
				Help: "Soft-condition ratio of the regime in the latest evaluation",
			},
			[]string{"regime"},
		),

		Current: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "regime_current",
				Help: "1 for the active regime, 0 otherwise",
			},
			[]string{"regime"},
		),

		Switches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regime_switches_total",
				Help: "Total number of regime switches by from/to regime",
			},
			[]string{"from_regime", "to_regime"},
		),

		EvaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "regime_evaluation_duration_seconds",
				Help:    "Duration of a full fetch and evaluate cycle in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),

		gatherer: reg,
	}

	reg.MustRegister(
		r.Evaluations,
		r.Failures,
		r.Qualified,
		r.AdditionalRatio,
		r.Current,
		r.Switches,
		r.EvaluationDuration,
	)

	return r
}

// ObserveEvaluation records the outcome of one engine run
func (r *Recorder) ObserveEvaluation(ev *regime.Evaluation, took time.Duration) {
	r.Evaluations.WithLabelValues(ev.Regime.String()).Inc()
	r.EvaluationDuration.Observe(took.Seconds())

	for _, res := range ev.Results {
		qualified := 0.0
		if res.Qualified {
			qualified = 1
		}
		r.Qualified.WithLabelValues(res.Regime.String()).Set(qualified)
		r.AdditionalRatio.WithLabelValues(res.Regime.String()).Set(res.AdditionalRatio)
	}

	for _, code := range append([]regime.Code{regime.None}, regime.Priority...) {
		active := 0.0
		if code == ev.Regime {
			active = 1
		}
		r.Current.WithLabelValues(code.String()).Set(active)
	}
}

// ObserveSwitch counts a regime change
func (r *Recorder) ObserveSwitch(from, to regime.Code) {
	r.Switches.WithLabelValues(from.String(), to.String()).Inc()
}

// ObserveFailure counts an evaluation that did not complete
func (r *Recorder) ObserveFailure() {
	r.Failures.Inc()
}

// Handler serves the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
