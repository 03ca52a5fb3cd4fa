// Package watch runs the fetch, classify, persist and alert cycle on a
// cron schedule.
package watch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/MarketRegime/internal/api/twelvedata"
	"github.com/Alias1177/MarketRegime/internal/metrics"
	"github.com/Alias1177/MarketRegime/internal/regime"
	"github.com/Alias1177/MarketRegime/models"
)

// DefaultSchedule runs after the US close on weekdays
const DefaultSchedule = "0 22 * * 1-5"

// Classifier evaluates a dataset snapshot
type Classifier interface {
	Evaluate(ds models.IndexDataset) (*regime.Evaluation, error)
}

// Store persists evaluations and remembers the last regime
type Store interface {
	SaveEvaluation(ctx context.Context, ev *regime.Evaluation) (int64, error)
	LatestRegime(ctx context.Context) (regime.Code, bool, error)
}

// Notifier is told about regime changes
type Notifier interface {
	NotifyChange(ctx context.Context, previous regime.Code, ev *regime.Evaluation) error
}

// Options configures a Service. Store, Notifier and Metrics are optional.
type Options struct {
	Source     models.DatasetSource
	Classifier Classifier
	Tickers    []string
	Bars       int
	Store      Store
	Notifier   Notifier
	Metrics    *metrics.Recorder
	RunTimeout time.Duration
}

// Service owns one watch loop
type Service struct {
	opts   Options
	logger zerolog.Logger

	mu       sync.Mutex
	last     regime.Code
	haveLast bool
}

// NewService validates the required collaborators
func NewService(opts Options) (*Service, error) {
	if opts.Source == nil || opts.Classifier == nil {
		return nil, fmt.Errorf("watch service needs a data source and a classifier")
	}
	if len(opts.Tickers) == 0 {
		opts.Tickers = models.DefaultTickers
	}
	if opts.Bars <= 0 {
		opts.Bars = twelvedata.HistoryBars(regime.DefaultThresholds().DrawdownWindow)
	}
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = 10 * time.Minute
	}

	return &Service{
		opts:   opts,
		logger: log.With().Str("component", "regime_watch").Logger(),
	}, nil
}

// RunOnce fetches a fresh dataset, classifies it, persists the result and
// alerts when the regime differs from the previous one. The first regime
// ever observed is recorded without an alert.
func (s *Service) RunOnce(ctx context.Context) (*regime.Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()

	ds, err := s.opts.Source.FetchDataset(ctx, s.opts.Tickers, s.opts.Bars)
	if err != nil {
		s.observeFailure()
		return nil, fmt.Errorf("fetching dataset: %w", err)
	}

	ev, err := s.opts.Classifier.Evaluate(ds)
	if err != nil {
		s.observeFailure()
		return nil, fmt.Errorf("evaluating regime: %w", err)
	}

	if s.opts.Metrics != nil {
		s.opts.Metrics.ObserveEvaluation(ev, time.Since(start))
	}

	s.logger.Info().
		Str("regime", ev.Regime.String()).
		Str("as_of", ev.AsOf).
		Int("qualified", len(ev.Qualified)).
		Dur("took", time.Since(start)).
		Msg("Regime evaluated")

	previous, known := s.previous(ctx)

	if s.opts.Store != nil {
		if _, err := s.opts.Store.SaveEvaluation(ctx, ev); err != nil {
			s.observeFailure()
			return ev, fmt.Errorf("persisting evaluation: %w", err)
		}
	}

	s.last, s.haveLast = ev.Regime, true

	if !known || previous == ev.Regime {
		return ev, nil
	}

	s.logger.Info().
		Str("from", previous.String()).
		Str("to", ev.Regime.String()).
		Msg("Regime changed")

	if s.opts.Metrics != nil {
		s.opts.Metrics.ObserveSwitch(previous, ev.Regime)
	}
	if s.opts.Notifier != nil {
		if err := s.opts.Notifier.NotifyChange(ctx, previous, ev); err != nil {
			return ev, fmt.Errorf("notifying regime change: %w", err)
		}
	}

	return ev, nil
}

// previous is the last regime seen by this process, falling back to the
// store on the first run
func (s *Service) previous(ctx context.Context) (regime.Code, bool) {
	if s.haveLast {
		return s.last, true
	}
	if s.opts.Store == nil {
		return regime.None, false
	}

	code, ok, err := s.opts.Store.LatestRegime(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Could not load previous regime")
		return regime.None, false
	}
	return code, ok
}

func (s *Service) observeFailure() {
	if s.opts.Metrics != nil {
		s.opts.Metrics.ObserveFailure()
	}
}

// Start runs RunOnce on the cron schedule until ctx is done
func (s *Service) Start(ctx context.Context, schedule string) error {
	if schedule == "" {
		schedule = DefaultSchedule
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		runCtx, cancel := context.WithTimeout(ctx, s.opts.RunTimeout)
		defer cancel()

		if _, err := s.RunOnce(runCtx); err != nil {
			s.logger.Error().Err(err).Msg("Scheduled evaluation failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	c.Start()
	s.logger.Info().Str("schedule", schedule).Msg("Regime watch started")

	<-ctx.Done()

	// Wait for a running evaluation to finish
	<-c.Stop().Done()
	s.logger.Info().Msg("Regime watch stopped")
	return nil
}
