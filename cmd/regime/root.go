package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Alias1177/MarketRegime/internal/api/twelvedata"
	"github.com/Alias1177/MarketRegime/internal/breadth"
	"github.com/Alias1177/MarketRegime/internal/config"
	"github.com/Alias1177/MarketRegime/internal/indicators"
	"github.com/Alias1177/MarketRegime/internal/regime"
	"github.com/Alias1177/MarketRegime/models"
)

// app carries what every subcommand needs once flags are parsed
type app struct {
	cfg        *config.Config
	thresholds regime.Thresholds
}

// Execute builds the command tree and runs it
func Execute(ctx context.Context) error {
	var (
		logLevel       string
		thresholdsPath string
		a              = &app{}
	)

	root := &cobra.Command{
		Use:           "regime",
		Short:         "Classify the US equity market into a regime",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if thresholdsPath != "" {
				cfg.RegimeConfig = thresholdsPath
			}
			setupLogging(cfg.LogLevel)

			th, err := config.LoadThresholds(cfg.RegimeConfig)
			if err != nil {
				return err
			}

			a.cfg, a.thresholds = cfg, th
			log.Debug().
				Strs("tickers", cfg.Tickers).
				Int("history_bars", cfg.HistoryBars).
				Str("thresholds", cfg.RegimeConfig).
				Msg("Configuration loaded")
			return nil
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&thresholdsPath, "thresholds", "", "YAML file overriding the default thresholds")

	root.AddCommand(evaluateCmd(a), backtestCmd(a), watchCmd(a), botCmd(a))
	return root.ExecuteContext(ctx)
}

// newEngine wires the breadth calculator and the configured put/call ratio
func (a *app) newEngine(putCall float64) *regime.Engine {
	calc := breadth.NewCalculator(breadth.DefaultOptions()).WithPutCallRatio(putCall)
	return regime.NewEngine(a.thresholds, calc, regime.WithLogger(log.Logger))
}

func (a *app) newClient() (*twelvedata.Client, error) {
	if a.cfg.TwelveAPIKey == "" {
		return nil, fmt.Errorf("TWELVE_API_KEY is not set; pass --dataset to work offline")
	}
	return twelvedata.NewClient(twelvedata.ClientOptions{
		APIKey:         a.cfg.TwelveAPIKey,
		RequestTimeout: time.Duration(a.cfg.RequestTimeout) * time.Second,
		RequestsPerSec: a.cfg.RequestsPerSec,
	}), nil
}

// loadDataset reads a dataset file, or fetches bars from Twelve Data when
// path is empty
func (a *app) loadDataset(ctx context.Context, path string, bars int) (models.IndexDataset, error) {
	if path == "" {
		client, err := a.newClient()
		if err != nil {
			return nil, err
		}
		return client.FetchDataset(ctx, a.cfg.Tickers, bars)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	ds, err := models.DecodeDataset(f)
	if err != nil {
		return nil, err
	}
	return indicators.EnsureMovingAverages(ds), nil
}
