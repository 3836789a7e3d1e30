// journal/journal.go
package journal

import "time"

// Action tags a trade log entry.
type Action string

const (
	Buy        Action = "BUY"
	Sell       Action = "SELL"
	Short      Action = "SHORT"
	Cover      Action = "COVER"
	Hold       Action = "HOLD"
	FinalSell  Action = "FINAL SELL"
	FinalCover Action = "FINAL COVER"
)

// IsFinal reports whether a is a horizon liquidation.
func (a Action) IsFinal() bool {
	return a == FinalSell || a == FinalCover
}

// Valid reports whether a is one of the known tags.
func (a Action) Valid() bool {
	switch a {
	case Buy, Sell, Short, Cover, Hold, FinalSell, FinalCover:
		return true
	}
	return false
}

// Entry is one row of the trade log. Entries are never modified once
// appended; enrichment produces a copy with Reason filled in.
type Entry struct {
	Day        int
	Instrument string
	Action     Action
	Price      float64 // price at decision
	Balance    float64 // cash balance after the action
	Reason     string  // optional explanation
}

// RunRecord summarizes one simulation run.
type RunRecord struct {
	RunID          string
	Created        time.Time
	Instruments    []string
	Days           int
	Lookahead      int
	Threshold      float64
	InitialBalance float64
	FinalBalance   float64
	Profit         float64
	Entries        int
}

// Sink persists finished runs. RecordEntry is called in log order with
// seq counting from zero.
type Sink interface {
	RecordRun(RunRecord) error
	RecordEntry(runID string, seq int, e Entry) error
	Close() error
}

// Record writes a run and all of its entries to s.
func Record(s Sink, run RunRecord, entries []Entry) error {
	if err := s.RecordRun(run); err != nil {
		return err
	}
	for i, e := range entries {
		if err := s.RecordEntry(run.RunID, i, e); err != nil {
			return err
		}
	}
	return nil
}
