// Package decision maps a price, a forecast window and the current
// position to a trading action. Everything here is pure: no state is
// read or written outside the arguments.
package decision

import (
	"math"

	"github.com/rustyeddy/forecast-trader/journal"
	"github.com/rustyeddy/forecast-trader/ledger"
)

// Input is everything the engine looks at for one instrument on one day.
type Input struct {
	Price     float64   // current actual price, > 0
	Window    []float64 // forecast window, possibly empty
	Position  ledger.Position
	Balance   float64 // portfolio cash available right now
	Threshold float64 // fractional move required to open, e.g. 0.02
}

// Decision is the engine's output. An empty Action is the silent no-op
// of a flat instrument with no signal.
type Decision struct {
	Action    journal.Action
	Shares    int64 // shares opened, closed or held
	AvgFuture float64
}

// Logged reports whether the decision produces a trade log entry.
func (d Decision) Logged() bool { return d.Action != "" }

// Opens reports whether the decision opens a new position.
func (d Decision) Opens() bool { return d.Action == journal.Buy || d.Action == journal.Short }

// Closes reports whether the decision closes the current position.
func (d Decision) Closes() bool {
	switch d.Action {
	case journal.Sell, journal.Cover, journal.FinalSell, journal.FinalCover:
		return true
	}
	return false
}

// AvgFuture is the mean of window, or price when the window is empty so
// that a missing forecast reads as neutral.
func AvgFuture(price float64, window []float64) float64 {
	if len(window) == 0 {
		return price
	}
	var sum float64
	for _, v := range window {
		sum += v
	}
	return sum / float64(len(window))
}

// Affordable is the number of whole shares balance buys at price. Non-positive
// balances buy nothing.
func Affordable(balance, price float64) int64 {
	if balance <= 0 || price <= 0 {
		return 0
	}
	q := FloorDiv(balance, price)
	if q >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(q)
}

// FloorDiv is float floor division computed from the remainder, so that
// q*price never exceeds balance when balance/price rounds up to a whole
// number (1000/0.1 is 9999, not 10000).
func FloorDiv(a, b float64) float64 {
	mod := math.Mod(a, b)
	div := (a - mod) / b
	if mod != 0 && (b < 0) != (mod < 0) {
		div--
	}
	if div == 0 {
		return math.Copysign(0, a/b)
	}
	f := math.Floor(div)
	if div-f > 0.5 {
		f++
	}
	return f
}

// Decide runs the per-instrument state machine:
//
//	FLAT  avg > p(1+t), shares > 0  -> BUY
//	FLAT  avg < p(1-t), shares > 0  -> SHORT
//	LONG  avg < p                   -> SELL, else HOLD
//	SHORT avg > p                   -> COVER, else HOLD
//
// Comparisons are strict. A BUY signal that cannot be afforded is a
// no-op; it does not fall through to the SHORT test.
func Decide(in Input) Decision {
	avg := AvgFuture(in.Price, in.Window)
	d := Decision{AvgFuture: avg}
	pos := in.Position

	switch pos.Kind {
	case ledger.None:
		if avg > in.Price*(1+in.Threshold) {
			if s := Affordable(in.Balance, in.Price); s > 0 {
				d.Action, d.Shares = journal.Buy, s
			}
		} else if avg < in.Price*(1-in.Threshold) {
			if s := Affordable(in.Balance, in.Price); s > 0 {
				d.Action, d.Shares = journal.Short, s
			}
		}
	case ledger.Long:
		d.Shares = pos.Shares
		if avg < in.Price {
			d.Action = journal.Sell
		} else {
			d.Action = journal.Hold
		}
	case ledger.Short:
		d.Shares = pos.Shares
		if avg > in.Price {
			d.Action = journal.Cover
		} else {
			d.Action = journal.Hold
		}
	}
	return d
}

// Final is the liquidation action for an open position at the horizon.
func Final(pos ledger.Position) journal.Action {
	switch pos.Kind {
	case ledger.Long:
		return journal.FinalSell
	case ledger.Short:
		return journal.FinalCover
	}
	return ""
}

// Cash is the balance change caused by action at price. For BUY and
// SHORT shares is the new position size; for closes the size and entry
// price come from pos.
//
// Shorts are credited their proceeds when opened and credited the
// entry-minus-exit difference when covered. No margin is reserved.
func Cash(action journal.Action, pos ledger.Position, shares int64, price float64) float64 {
	switch action {
	case journal.Buy:
		return -(float64(shares) * price)
	case journal.Short:
		return float64(shares) * price
	case journal.Sell, journal.FinalSell:
		return float64(pos.Shares) * price
	case journal.Cover, journal.FinalCover:
		return float64(pos.Shares) * (pos.EntryPrice - price)
	}
	return 0
}
