package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/forecast-trader/internal/app"
	"github.com/rustyeddy/forecast-trader/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve simulations over HTTP",
	Long: `Start an HTTP server with:

  GET  /simulate?tickers=AAPL,MSFT&steps=50   simulate stored history
  POST /simulate                              simulate {"<ticker>": [[actual], [predicted]]}
  GET  /healthz

Example:
  forecast-trader serve -c sim.yaml --addr :5000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":5000", "listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	srv, err := server.New(server.Config{
		Addr:    serveAddr,
		Engine:  a.Engine,
		Builder: a.Builder,
		Tickers: cfg.Data.Tickers,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}
