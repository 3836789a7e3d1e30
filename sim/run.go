package sim

import (
	"context"
	"fmt"

	"github.com/rustyeddy/forecast-trader/decision"
	"github.com/rustyeddy/forecast-trader/journal"
	"github.com/rustyeddy/forecast-trader/ledger"
)

// Result is the outcome of a run.
type Result struct {
	RunID        string
	FinalBalance float64
	Profit       float64 // FinalBalance - InitialBalance
	Log          []journal.Entry
	Days         int
}

// Run simulates trading over series. Days 0..n-2 are decided in order
// and, within a day, instruments in slice order; they all draw on one
// cash balance, so an earlier instrument can starve a later one. The
// last day is reserved for liquidating whatever is still open.
//
// Run is deterministic: the same input always yields the same log. It
// attaches no reasons; see Engine for enrichment.
func Run(ctx context.Context, series []Series, opts Options) (Result, error) {
	n, err := Validate(series, opts)
	if err != nil {
		return Result{}, err
	}

	led := ledger.New()
	balance := opts.InitialBalance
	var log []journal.Entry

	for day := 0; day < n-1; day++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		for _, s := range series {
			price := s.Actual[day]
			pos, _ := led.Get(s.Instrument)

			d := decision.Decide(decision.Input{
				Price:     price,
				Window:    s.Window(day, opts.Lookahead),
				Position:  pos,
				Balance:   balance,
				Threshold: opts.Threshold,
			})
			if !d.Logged() {
				continue
			}

			if err := apply(led, s.Instrument, d, price); err != nil {
				return Result{}, fmt.Errorf("day %d: %w", day, err)
			}
			balance += decision.Cash(d.Action, pos, d.Shares, price)

			log = append(log, journal.Entry{
				Day:        day,
				Instrument: s.Instrument,
				Action:     d.Action,
				Price:      price,
				Balance:    balance,
			})
		}
	}

	final := make(map[string]float64, len(series))
	for _, s := range series {
		final[s.Instrument] = s.Actual[n-1]
	}

	// liquidate in the order positions were opened
	for _, inst := range led.OpenInstruments() {
		pos, err := led.Close(inst)
		if err != nil {
			return Result{}, fmt.Errorf("liquidate: %w", err)
		}
		action := decision.Final(pos)
		price := final[inst]
		balance += decision.Cash(action, pos, 0, price)

		log = append(log, journal.Entry{
			Day:        n - 1,
			Instrument: inst,
			Action:     action,
			Price:      price,
			Balance:    balance,
		})
	}

	return Result{
		FinalBalance: balance,
		Profit:       balance - opts.InitialBalance,
		Log:          log,
		Days:         n,
	}, nil
}

func apply(led *ledger.Ledger, instrument string, d decision.Decision, price float64) error {
	switch {
	case d.Opens():
		kind := ledger.Long
		if d.Action == journal.Short {
			kind = ledger.Short
		}
		return led.Open(instrument, kind, d.Shares, price)
	case d.Closes():
		_, err := led.Close(instrument)
		return err
	}
	return nil
}
