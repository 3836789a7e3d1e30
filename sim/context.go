package sim

import (
	"github.com/rustyeddy/forecast-trader/explain"
	"github.com/rustyeddy/forecast-trader/journal"
)

// Contexts rebuilds, for every log entry, what the explainer should be
// told: the forecast window the decision saw and the recent actual
// prices up to that day.
func Contexts(series []Series, log []journal.Entry, opts Options) []explain.Context {
	byName := make(map[string]Series, len(series))
	for _, s := range series {
		byName[s.Instrument] = s
	}

	out := make([]explain.Context, len(log))
	for i, e := range log {
		s := byName[e.Instrument]
		out[i] = explain.Context{
			Instrument: e.Instrument,
			Action:     e.Action,
			Price:      e.Price,
			Forecast:   s.Window(e.Day, opts.Lookahead),
			History:    s.History(e.Day, opts.HistoryWindow),
		}
	}
	return out
}
