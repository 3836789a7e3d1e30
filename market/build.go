package market

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rustyeddy/forecast-trader/internal/logging"
	"github.com/rustyeddy/forecast-trader/sim"
)

// Builder assembles simulator input from a price loader and an
// optional predictor.
type Builder struct {
	Loader    Loader
	Predictor Predictor
	Steps     int // downsampling stride and forecast horizon
	SeqLength int // observations handed to the predictor
	Logger    *zap.Logger
}

// Build loads each ticker, keeps every Steps-th close and pairs it with
// the predictor's forecast. A forecast whose length differs from the
// downsampled history is kept whole and marked Unaligned, so each day
// averages whatever forecast values its window reaches.
func (b Builder) Build(ctx context.Context, tickers []string) ([]sim.Series, error) {
	if b.Loader == nil {
		return nil, fmt.Errorf("%w: no loader", sim.ErrValidation)
	}
	logger := logging.OrNop(b.Logger)

	out := make([]sim.Series, 0, len(tickers))
	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bars, err := b.Loader.Load(ctx, ticker)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", ticker, err)
		}
		actual := Downsample(Closes(bars), b.Steps)
		pred := PredictOrEmpty(ctx, b.Predictor, logger, ticker, b.Steps, b.SeqLength)

		unaligned := len(pred) > 0 && len(pred) != len(actual)
		if unaligned {
			logger.Debug("forecast and history lengths differ",
				zap.String("instrument", ticker),
				zap.Int("predicted", len(pred)),
				zap.Int("actual", len(actual)),
			)
		}

		out = append(out, sim.Series{Instrument: ticker, Actual: actual, Predicted: pred, Unaligned: unaligned})
	}
	return out, nil
}

// Build is a convenience wrapper around Builder.
func Build(ctx context.Context, loader Loader, predictor Predictor, tickers []string, steps, seqLength int) ([]sim.Series, error) {
	return Builder{Loader: loader, Predictor: predictor, Steps: steps, SeqLength: seqLength}.Build(ctx, tickers)
}
