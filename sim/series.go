package sim

import (
	"errors"
	"fmt"
	"math"
)

// ErrValidation marks malformed input. It is returned before any ledger
// or balance state exists.
var ErrValidation = errors.New("invalid simulation input")

// Series is the aligned price history of one instrument. Predicted[i]
// is the forecast of Actual[i]. An empty Predicted means no forecast is
// available and every window is neutral.
//
// Unaligned lifts the equal length rule for forecasts produced on a
// different grid than the history. Windows then clip to Predicted alone:
// a short forecast goes neutral once it runs out, and a long one keeps
// feeding values past the last actual day.
type Series struct {
	Instrument string
	Actual     []float64
	Predicted  []float64
	Unaligned  bool
}

// Window returns the forecast prices used on day: Predicted[day+1 :
// day+1+lookahead], clipped to the end of Predicted.
func (s Series) Window(day, lookahead int) []float64 {
	start := day + 1
	if start >= len(s.Predicted) || lookahead <= 0 {
		return nil
	}
	end := start + lookahead
	if end > len(s.Predicted) {
		end = len(s.Predicted)
	}
	return s.Predicted[start:end]
}

// History returns up to n actual prices ending at day, oldest first.
func (s Series) History(day, n int) []float64 {
	end := day + 1
	if end > len(s.Actual) {
		end = len(s.Actual)
	}
	start := end - n
	if start < 0 {
		start = 0
	}
	return s.Actual[start:end]
}

// Options are the run parameters.
type Options struct {
	InitialBalance float64
	Lookahead      int     // forecast days averaged per decision
	Threshold      float64 // fractional move required to open
	HistoryWindow  int     // actual prices handed to the explainer
}

// DefaultOptions are the stock run parameters.
func DefaultOptions() Options {
	return Options{
		InitialBalance: 10000,
		Lookahead:      5,
		Threshold:      0.02,
		HistoryWindow:  5,
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate checks series and opts. It returns the shared series length.
func Validate(series []Series, opts Options) (int, error) {
	if opts.Lookahead < 1 {
		return 0, invalid("lookahead must be at least 1, got %d", opts.Lookahead)
	}
	if !finite(opts.Threshold) || opts.Threshold < 0 {
		return 0, invalid("threshold must be a non-negative number, got %v", opts.Threshold)
	}
	if !finite(opts.InitialBalance) || opts.InitialBalance < 0 {
		return 0, invalid("initial balance must be a non-negative number, got %v", opts.InitialBalance)
	}
	if opts.HistoryWindow < 0 {
		return 0, invalid("history window must not be negative, got %d", opts.HistoryWindow)
	}
	if len(series) == 0 {
		return 0, invalid("no instruments")
	}

	n := len(series[0].Actual)
	seen := make(map[string]bool, len(series))
	for _, s := range series {
		if s.Instrument == "" {
			return 0, invalid("instrument id is empty")
		}
		if seen[s.Instrument] {
			return 0, invalid("duplicate instrument %q", s.Instrument)
		}
		seen[s.Instrument] = true

		if len(s.Actual) == 0 {
			return 0, invalid("%s: empty actual series", s.Instrument)
		}
		if len(s.Actual) != n {
			return 0, invalid("%s: %d actual prices, want %d", s.Instrument, len(s.Actual), n)
		}
		if !s.Unaligned && len(s.Predicted) != 0 && len(s.Predicted) != len(s.Actual) {
			return 0, invalid("%s: %d predicted prices for %d actual", s.Instrument, len(s.Predicted), len(s.Actual))
		}
		for i, p := range s.Actual {
			if !finite(p) || p <= 0 {
				return 0, invalid("%s: day %d: actual price %v must be positive", s.Instrument, i, p)
			}
		}
		for i, p := range s.Predicted {
			if !finite(p) {
				return 0, invalid("%s: day %d: predicted price %v is not a number", s.Instrument, i, p)
			}
		}
	}
	return n, nil
}
