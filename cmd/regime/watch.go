package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Alias1177/MarketRegime/internal/database"
	"github.com/Alias1177/MarketRegime/internal/metrics"
	"github.com/Alias1177/MarketRegime/internal/notify"
	"github.com/Alias1177/MarketRegime/internal/watch"
)

func watchCmd(a *app) *cobra.Command {
	var (
		schedule string
		runNow   bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Classify on a schedule and alert on regime changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if schedule == "" {
				schedule = a.cfg.WatchSchedule
			}

			opts, _, closeFn, err := a.watchOptions(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if a.cfg.MetricsAddr != "" {
				stop := serveMetrics(a.cfg.MetricsAddr, opts.Metrics)
				defer stop()
			}

			svc, err := watch.NewService(opts)
			if err != nil {
				return err
			}

			if runNow {
				if _, err := svc.RunOnce(ctx); err != nil {
					log.Error().Err(err).Msg("Initial evaluation failed")
				}
			}

			return svc.Start(ctx, schedule)
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "cron expression (defaults to WATCH_SCHEDULE)")
	cmd.Flags().BoolVar(&runNow, "run-now", false, "evaluate once before waiting for the schedule")
	return cmd
}

// watchOptions wires the optional store and notifier from configuration.
// The returned DB is nil when persistence is disabled.
func (a *app) watchOptions(ctx context.Context) (watch.Options, *database.DB, func(), error) {
	closeFn := func() {}

	client, err := a.newClient()
	if err != nil {
		return watch.Options{}, nil, closeFn, err
	}

	opts := watch.Options{
		Source:     client,
		Classifier: a.newEngine(a.cfg.PutCallRatio),
		Tickers:    a.cfg.Tickers,
		Bars:       a.cfg.HistoryBars,
		Metrics:    metrics.NewRecorder(nil),
	}

	var db *database.DB
	if a.cfg.Database.Enabled() {
		db, err = database.New(ctx, database.ConnectionParams{
			Host:     a.cfg.Database.Host,
			Port:     a.cfg.Database.Port,
			User:     a.cfg.Database.User,
			Password: a.cfg.Database.Password,
			DBName:   a.cfg.Database.Name,
			SSLMode:  a.cfg.Database.SSLMode,
		})
		if err != nil {
			return watch.Options{}, nil, closeFn, fmt.Errorf("failed to connect to database: %w", err)
		}
		closeFn = func() { db.Close() }
		opts.Store = db
	} else {
		log.Warn().Msg("DB_HOST not set, evaluations will not be persisted")
	}

	if a.cfg.Telegram.Enabled() {
		tg, err := notify.NewTelegram(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID)
		if err != nil {
			closeFn()
			return watch.Options{}, nil, func() {}, err
		}
		opts.Notifier = tg
	} else {
		log.Warn().Msg("Telegram not configured, regime changes will only be logged")
	}

	return opts, db, closeFn, nil
}

// serveMetrics exposes the recorder on addr and returns a shutdown func
func serveMetrics(addr string, rec *metrics.Recorder) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", rec.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info().Str("addr", addr).Msg("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
