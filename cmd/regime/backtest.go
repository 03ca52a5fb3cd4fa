package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Alias1177/MarketRegime/internal/backtest"
	"github.com/Alias1177/MarketRegime/internal/indicators"
)

func backtestCmd(a *app) *cobra.Command {
	var (
		dataset string
		forward int
		bars    int
	)

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Replay history one session at a time",
		RunE: func(cmd *cobra.Command, args []string) error {
			if bars <= 0 {
				// One extra trading year on top of the live lookback
				bars = a.cfg.HistoryBars + 252
			}

			ds, err := a.loadDataset(cmd.Context(), dataset, bars)
			if err != nil {
				return err
			}

			// The put/call ratio is a point-in-time reading, so history
			// is replayed without it
			engine := backtest.NewEngine(a.newEngine(0), backtest.Options{
				Forward: forward,
				Warmup:  indicators.LongPeriod - 1,
			})

			results, err := engine.Run(cmd.Context(), ds)
			if err != nil {
				return fmt.Errorf("backtest failed: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), backtest.FormatResults(results))
			return nil
		},
	}

	cmd.Flags().StringVar(&dataset, "dataset", "", "JSON dataset file instead of fetching from Twelve Data")
	cmd.Flags().IntVar(&forward, "forward", 22, "forward return horizon in sessions")
	cmd.Flags().IntVar(&bars, "bars", 0, "sessions to fetch when no dataset is given")
	return cmd
}
