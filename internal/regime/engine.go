// Package regime classifies the broad equity market into one of five
// regimes. Each regime is a rule table of essential checks, which must all
// pass, and additional soft signals, whose ratio gates qualification. When
// several regimes qualify the one listed first in Priority wins.
package regime

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Alias1177/MarketRegime/models"
)

// Breadth supplies market-wide sentiment readings
type Breadth interface {
	PutCallRatio() (float64, bool)
	HighLowIndex(ds models.IndexDataset) (float64, bool)
	AdvanceDeclineTrend(ds models.IndexDataset) (float64, bool)
}

// MarketContext holds the readings shared by every evaluator of one call
type MarketContext struct {
	VIX            Reading `json:"vix"`
	PutCallRatio   Reading `json:"put_call_ratio"`
	HighLowIndex   Reading `json:"high_low_index"`
	AdvanceDecline Reading `json:"advance_decline_trend"`
}

// Input is what an evaluator sees. It must be treated as read-only.
type Input struct {
	Dataset models.IndexDataset
	Market  MarketContext
}

// Evaluation is the outcome of one engine call
type Evaluation struct {
	Regime    Code              `json:"regime"`
	Qualified []Code            `json:"qualified"`
	Results   []ConditionResult `json:"results"`
	Market    MarketContext     `json:"market"`
	AsOf      string            `json:"as_of"`
}

// Classified reports whether any regime qualified
func (e *Evaluation) Classified() bool {
	return e.Regime != None
}

// Result returns the diagnostic record of one regime
func (e *Evaluation) Result(code Code) (ConditionResult, bool) {
	for _, r := range e.Results {
		if r.Regime == code {
			return r, true
		}
	}
	return ConditionResult{}, false
}

// Details indexes the results by regime code
func (e *Evaluation) Details() map[Code]ConditionResult {
	out := make(map[Code]ConditionResult, len(e.Results))
	for _, r := range e.Results {
		out[r.Regime] = r
	}
	return out
}

// Engine runs every evaluator over a dataset and arbitrates the outcome.
// It holds no state between calls.
type Engine struct {
	evaluators  []Evaluator
	breadth     Breadth
	concurrency int
	logger      zerolog.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine logger
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = l.With().Str("component", "regime_engine").Logger()
	}
}

// WithConcurrency caps how many evaluators run at once. 1 runs them
// sequentially.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithEvaluator replaces the evaluator registered for ev.Code()
func WithEvaluator(ev Evaluator) Option {
	return func(e *Engine) {
		for i, existing := range e.evaluators {
			if existing.Code() == ev.Code() {
				e.evaluators[i] = ev
				return
			}
		}
	}
}

// NewEngine builds an engine over the default rule tables. b may be nil, in
// which case every breadth reading is unavailable.
func NewEngine(th Thresholds, b Breadth, opts ...Option) *Engine {
	e := &Engine{
		evaluators:  DefaultEvaluators(th),
		breadth:     b,
		concurrency: len(Priority),
		logger:      log.With().Str("component", "regime_engine").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	sort.SliceStable(e.evaluators, func(i, j int) bool {
		return e.evaluators[i].Code().Rank() < e.evaluators[j].Code().Rank()
	})
	return e
}

// DetermineRegime classifies the dataset and returns every regime's record
func (e *Engine) DetermineRegime(ds models.IndexDataset) (Code, map[Code]ConditionResult, error) {
	ev, err := e.Evaluate(ds)
	if err != nil {
		return None, nil, err
	}
	return ev.Regime, ev.Details(), nil
}

// Evaluate validates the dataset, runs all evaluators and applies the
// priority rule. Malformed input fails with models.ErrMalformedInput.
func (e *Engine) Evaluate(ds models.IndexDataset) (*Evaluation, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	in := &Input{Dataset: ds, Market: e.marketContext(ds)}
	results := make([]ConditionResult, len(e.evaluators))

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, ev := range e.evaluators {
		g.Go(func() error {
			res, err := ev.Evaluate(in)
			if err != nil {
				return fmt.Errorf("evaluating %s: %w", ev.Code(), err)
			}
			res.Regime = ev.Code()
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Evaluation{
		Regime:    None,
		Qualified: []Code{},
		Results:   results,
		Market:    in.Market,
		AsOf:      asOf(ds),
	}
	for _, r := range results {
		if r.Qualified {
			out.Qualified = append(out.Qualified, r.Regime)
		}
	}
	if len(out.Qualified) > 0 {
		out.Regime = out.Qualified[0]
	}

	if len(out.Qualified) > 1 {
		e.logger.Debug().
			Strs("qualified", codeStrings(out.Qualified)).
			Str("selected", out.Regime.String()).
			Msg("Several regimes qualified, resolved by priority")
	}
	e.logger.Debug().
		Str("regime", out.Regime.String()).
		Str("as_of", out.AsOf).
		Msg("Regime evaluated")

	return out, nil
}

func (e *Engine) marketContext(ds models.IndexDataset) MarketContext {
	var mc MarketContext
	if vix, ok := ds.Get(models.VIX); ok {
		latest, _ := vix.Latest()
		mc.VIX = ReadingOf(latest.Close, latest.Close > 0)
	}
	if e.breadth == nil {
		return mc
	}
	mc.PutCallRatio = ReadingOf(e.breadth.PutCallRatio())
	mc.HighLowIndex = ReadingOf(e.breadth.HighLowIndex(ds))
	mc.AdvanceDecline = ReadingOf(e.breadth.AdvanceDeclineTrend(ds))
	return mc
}

// asOf is the SPY session date, or the newest session of any series
func asOf(ds models.IndexDataset) string {
	if spy, ok := ds.Get(models.SPY); ok {
		latest, _ := spy.Latest()
		return latest.Datetime
	}
	var newest string
	for _, s := range ds {
		if latest, ok := s.Latest(); ok && latest.Datetime > newest {
			newest = latest.Datetime
		}
	}
	return newest
}

func codeStrings(codes []Code) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = c.String()
	}
	return out
}
