package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/forecast-trader/internal/app"
	"github.com/rustyeddy/forecast-trader/journal"
	"github.com/rustyeddy/forecast-trader/report"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate trading over stored history",
	Long: `Load Data_<ticker>.csv history and the configured forecast for each
ticker, run the portfolio simulation and print the result.

Examples:
  forecast-trader simulate -c sim.yaml
  forecast-trader simulate --tickers AAPL,MSFT --steps 50 --json`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

var (
	simTickers string
	simSteps   int
	simJSON    bool
	simExplain string
)

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVarP(&simTickers, "tickers", "t", "", "comma separated tickers (overrides config)")
	simulateCmd.Flags().IntVar(&simSteps, "steps", 0, "downsampling stride (overrides config)")
	simulateCmd.Flags().BoolVar(&simJSON, "json", false, "print the JSON payload instead of a summary")
	simulateCmd.Flags().StringVar(&simExplain, "explain", "", "explain mode override: off|static|gemini")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	if simTickers != "" {
		cfg.Data.Tickers = strings.Split(simTickers, ",")
	}
	if simSteps > 0 {
		cfg.Data.Steps = simSteps
	}
	if simExplain != "" {
		cfg.Explain.Mode = simExplain
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	series, err := a.Builder.Build(ctx, cfg.Data.Tickers)
	if err != nil {
		return fmt.Errorf("build input: %w", err)
	}

	res, err := a.Engine.Run(ctx, series)
	if err != nil && res.RunID == "" {
		return fmt.Errorf("simulate: %w", err)
	}

	if simJSON {
		if werr := report.WriteJSON(cmd.OutOrStdout(), report.NewPayload(res)); werr != nil {
			return werr
		}
	} else {
		rec := journal.RunRecord{
			RunID:          res.RunID,
			Instruments:    cfg.Data.Tickers,
			Days:           res.Days,
			Lookahead:      cfg.Simulation.Lookahead,
			Threshold:      cfg.Simulation.Threshold,
			InitialBalance: cfg.Simulation.InitialBalance,
			FinalBalance:   res.FinalBalance,
			Profit:         res.Profit,
			Entries:        len(res.Log),
		}
		report.PrintSummary(cmd.OutOrStdout(), rec, res.Log)

		switch cfg.Journal.Type {
		case "csv":
			fmt.Fprintf(cmd.OutOrStdout(), "\nResults saved to:\n  - %s\n  - %s\n", cfg.Journal.EntriesFile, cfg.Journal.RunsFile)
		case "sqlite":
			fmt.Fprintf(cmd.OutOrStdout(), "\nResults saved to: %s\n", cfg.Journal.DBPath)
		}
	}

	// a completed run whose journal or enrichment failed
	return err
}
