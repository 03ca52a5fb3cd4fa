package backtest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/MarketRegime/internal/breadth"
	"github.com/Alias1177/MarketRegime/internal/regime"
	"github.com/Alias1177/MarketRegime/models"
)

// Classifier evaluates a dataset snapshot
type Classifier interface {
	Evaluate(ds models.IndexDataset) (*regime.Evaluation, error)
}

// Options controls a replay
type Options struct {
	// Anchor is the ticker whose sessions drive the replay
	Anchor string
	// Forward is the horizon, in sessions, of the forward return
	Forward int
	// Warmup sessions are skipped before the first classification
	Warmup int
}

// DayResult is the classification of one session
type DayResult struct {
	Date          string        `json:"date"`
	Regime        regime.Code   `json:"regime"`
	Qualified     []regime.Code `json:"qualified"`
	ForwardReturn float64       `json:"forward_return"`
	HasForward    bool          `json:"has_forward"`
}

// RegimeStats aggregates the sessions spent in one regime
type RegimeStats struct {
	Days             int     `json:"days"`
	ForwardSamples   int     `json:"forward_samples"`
	AvgForwardReturn float64 `json:"avg_forward_return"`
}

// Transition marks a session where the regime changed
type Transition struct {
	Date string      `json:"date"`
	From regime.Code `json:"from"`
	To   regime.Code `json:"to"`
}

// Results is the outcome of a replay
type Results struct {
	Anchor       string                       `json:"anchor"`
	Forward      int                          `json:"forward"`
	Days         int                          `json:"days"`
	Unclassified int                          `json:"unclassified"`
	ByRegime     map[regime.Code]*RegimeStats `json:"by_regime"`
	Transitions  []Transition                 `json:"transitions"`
	Timeline     []DayResult                  `json:"timeline"`
}

// Engine replays history through a classifier one session at a time
type Engine struct {
	classifier Classifier
	opts       Options
	logger     zerolog.Logger
}

// NewEngine creates a new replay engine
func NewEngine(classifier Classifier, opts Options) *Engine {
	if opts.Anchor == "" {
		opts.Anchor = models.SPY
	}
	if opts.Forward <= 0 {
		opts.Forward = 22
	}
	if opts.Warmup < 0 {
		opts.Warmup = 0
	}

	return &Engine{
		classifier: classifier,
		opts:       opts,
		logger:     log.With().Str("component", "backtest").Logger(),
	}
}

// Run classifies every anchor session using only data available on that
// session, then scores each regime by the anchor's forward return
func (e *Engine) Run(ctx context.Context, ds models.IndexDataset) (*Results, error) {
	anchor, ok := ds.Get(e.opts.Anchor)
	if !ok {
		return nil, fmt.Errorf("anchor %s is missing from the dataset", e.opts.Anchor)
	}
	if len(anchor) <= e.opts.Warmup {
		return nil, fmt.Errorf("insufficient history for backtesting, got %d sessions", len(anchor))
	}

	results := &Results{
		Anchor:   e.opts.Anchor,
		Forward:  e.opts.Forward,
		ByRegime: make(map[regime.Code]*RegimeStats, len(regime.Priority)),
	}
	forwardSums := make(map[regime.Code]float64, len(regime.Priority))

	for i := e.opts.Warmup; i < len(anchor); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		date := anchor[i].Datetime
		ev, err := e.classifier.Evaluate(ds.Through(date))
		if err != nil {
			return nil, fmt.Errorf("evaluating %s: %w", date, err)
		}

		day := DayResult{Date: date, Regime: ev.Regime, Qualified: ev.Qualified}
		if end := i + e.opts.Forward; end < len(anchor) {
			day.ForwardReturn, day.HasForward = breadth.ReturnPct(anchor[i:end+1], e.opts.Forward+1)
		}

		if n := len(results.Timeline); n > 0 && results.Timeline[n-1].Regime != day.Regime {
			results.Transitions = append(results.Transitions, Transition{
				Date: date,
				From: results.Timeline[n-1].Regime,
				To:   day.Regime,
			})
		}
		results.Timeline = append(results.Timeline, day)
		results.Days++

		if day.Regime == regime.None {
			results.Unclassified++
			continue
		}

		stats, ok := results.ByRegime[day.Regime]
		if !ok {
			stats = &RegimeStats{}
			results.ByRegime[day.Regime] = stats
		}
		stats.Days++
		if day.HasForward {
			stats.ForwardSamples++
			forwardSums[day.Regime] += day.ForwardReturn
		}
	}

	for code, stats := range results.ByRegime {
		if stats.ForwardSamples > 0 {
			stats.AvgForwardReturn = forwardSums[code] / float64(stats.ForwardSamples)
		}
	}

	e.logger.Info().
		Int("days", results.Days).
		Int("unclassified", results.Unclassified).
		Int("transitions", len(results.Transitions)).
		Msg("Backtest completed")

	return results, nil
}

// FormatResults creates a human-readable summary of backtest results
func FormatResults(results *Results) string {
	if results == nil {
		return "No backtest results available"
	}

	output := "\n===== REGIME BACKTEST =====\n"
	output += fmt.Sprintf("Anchor: %s | Sessions: %d | Forward horizon: %d\n",
		results.Anchor, results.Days, results.Forward)
	if len(results.Timeline) > 0 {
		output += fmt.Sprintf("Period: %s to %s\n",
			results.Timeline[0].Date, results.Timeline[len(results.Timeline)-1].Date)
	}

	output += "\nSessions by regime:\n"
	for _, code := range regime.Priority {
		stats, ok := results.ByRegime[code]
		if !ok {
			continue
		}
		share := float64(stats.Days) / float64(results.Days) * 100
		output += fmt.Sprintf("- %s: %d (%.1f%%)", code.Label(), stats.Days, share)
		if stats.ForwardSamples > 0 {
			sign := ""
			if stats.AvgForwardReturn > 0 {
				sign = "+"
			}
			output += fmt.Sprintf(", avg forward return %s%.2f%%", sign, stats.AvgForwardReturn)
		}
		output += "\n"
	}
	if results.Days > 0 {
		output += fmt.Sprintf("- Unclassified: %d (%.1f%%)\n",
			results.Unclassified, float64(results.Unclassified)/float64(results.Days)*100)
	}

	if len(results.Transitions) > 0 {
		output += fmt.Sprintf("\nTransitions (%d):\n", len(results.Transitions))
		for _, tr := range results.Transitions {
			output += fmt.Sprintf("- %s: %s -> %s\n", tr.Date, tr.From.Label(), tr.To.Label())
		}
	}

	return output
}
