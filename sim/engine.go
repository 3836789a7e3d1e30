package sim

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/forecast-trader/explain"
	"github.com/rustyeddy/forecast-trader/internal/id"
	"github.com/rustyeddy/forecast-trader/internal/logging"
	"github.com/rustyeddy/forecast-trader/journal"
)

// Engine runs simulations and hands finished runs to the explanation
// enricher and the journal sinks. The financial result is fixed before
// either of them is involved.
type Engine struct {
	opts     Options
	enricher *explain.Enricher
	sinks    []journal.Sink
	logger   *zap.Logger
	now      func() time.Time
}

func NewEngine(opts Options, sinks ...journal.Sink) *Engine {
	return &Engine{
		opts:   opts,
		sinks:  sinks,
		logger: zap.NewNop(),
		now:    time.Now,
	}
}

// SetEnricher enables reason lookups. nil disables them.
func (e *Engine) SetEnricher(en *explain.Enricher) { e.enricher = en }

func (e *Engine) SetLogger(l *zap.Logger) { e.logger = logging.OrNop(l) }

func (e *Engine) Options() Options { return e.opts }

// Run simulates series, enriches the log and records the run. On a sink
// error the completed result is still returned alongside the error.
func (e *Engine) Run(ctx context.Context, series []Series) (Result, error) {
	created := e.now()
	runID := id.At(created)
	log := e.logger.With(zap.String("run_id", runID))

	log.Info("simulation started",
		zap.Int("instruments", len(series)),
		zap.Float64("initial_balance", e.opts.InitialBalance),
		zap.Int("lookahead", e.opts.Lookahead),
		zap.Float64("threshold", e.opts.Threshold),
	)

	res, err := Run(ctx, series, e.opts)
	if err != nil {
		log.Error("simulation failed", zap.Error(err))
		return Result{}, err
	}
	res.RunID = runID

	for _, entry := range res.Log {
		log.Debug("trade",
			zap.Int("day", entry.Day),
			zap.String("instrument", entry.Instrument),
			zap.String("action", string(entry.Action)),
			zap.Float64("price", entry.Price),
			zap.Float64("balance", entry.Balance),
		)
	}

	if e.enricher != nil {
		enriched, err := e.enricher.Enrich(ctx, res.Log, Contexts(series, res.Log, e.opts))
		if err != nil {
			return res, fmt.Errorf("enrich: %w", err)
		}
		res.Log = enriched
	}

	log.Info("simulation finished",
		zap.Int("days", res.Days),
		zap.Int("entries", len(res.Log)),
		zap.Float64("final_balance", res.FinalBalance),
		zap.Float64("profit", res.Profit),
	)

	rec := e.record(created, series, res)
	for _, s := range e.sinks {
		if err := journal.Record(s, rec, res.Log); err != nil {
			log.Error("journal write failed", zap.Error(err))
			return res, fmt.Errorf("record run %s: %w", runID, err)
		}
	}
	return res, nil
}

func (e *Engine) record(created time.Time, series []Series, res Result) journal.RunRecord {
	names := make([]string, len(series))
	for i, s := range series {
		names[i] = s.Instrument
	}
	return journal.RunRecord{
		RunID:          res.RunID,
		Created:        created,
		Instruments:    names,
		Days:           res.Days,
		Lookahead:      e.opts.Lookahead,
		Threshold:      e.opts.Threshold,
		InitialBalance: e.opts.InitialBalance,
		FinalBalance:   res.FinalBalance,
		Profit:         res.Profit,
		Entries:        len(res.Log),
	}
}
