package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Alias1177/MarketRegime/internal/regime"
)

func evaluateCmd(a *app) *cobra.Command {
	var (
		dataset string
		putCall float64
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Classify the latest session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("put-call") {
				putCall = a.cfg.PutCallRatio
			}

			ds, err := a.loadDataset(cmd.Context(), dataset, a.cfg.HistoryBars)
			if err != nil {
				return err
			}

			ev, err := a.newEngine(putCall).Evaluate(ds)
			if err != nil {
				return fmt.Errorf("evaluating regime: %w", err)
			}

			if asJSON {
				out, err := json.MarshalIndent(ev, "", "  ")
				if err != nil {
					return fmt.Errorf("encoding evaluation: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), regime.FormatReport(ev))
			return nil
		},
	}

	cmd.Flags().StringVar(&dataset, "dataset", "", "JSON dataset file instead of fetching from Twelve Data")
	cmd.Flags().Float64Var(&putCall, "put-call", 0, "equity put/call ratio (overrides PUT_CALL_RATIO)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full evaluation as JSON")
	return cmd
}
