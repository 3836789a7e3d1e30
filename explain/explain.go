// Package explain attaches natural-language rationales to trade log
// entries. Explanations are advisory: a failing or slow service only
// ever costs the reason text, never the trade itself.
package explain

import (
	"context"
	"errors"

	"github.com/rustyeddy/forecast-trader/journal"
)

const (
	// Fallback replaces the reason of any entry whose lookup failed.
	Fallback = "No reason generated (API error)."

	FinalLongReason  = "Final liquidation of long position."
	FinalShortReason = "Final liquidation of short position."
)

// ErrEmptyReply is returned by explainers that got a response with no text.
var ErrEmptyReply = errors.New("explainer returned no text")

// Context is what an explainer is told about one logged action.
type Context struct {
	Instrument string
	Action     journal.Action
	Price      float64
	Forecast   []float64 // predicted prices in the decision window
	History    []float64 // recent actual prices, oldest first, ending at Price
}

// Explainer produces a one-sentence rationale for an action.
type Explainer interface {
	Explain(ctx context.Context, c Context) (string, error)
}

// Rejecter is implemented by explainers that can tell in advance that a
// call would be refused, such as an open Breaker.
type Rejecter interface {
	Rejecting() bool
}

// Func adapts a plain function to the Explainer interface.
type Func func(ctx context.Context, c Context) (string, error)

func (f Func) Explain(ctx context.Context, c Context) (string, error) { return f(ctx, c) }

// Static always answers with Text. With Text left empty it answers
// with Fallback, which makes runs reproducible without a network.
type Static struct {
	Text string
}

func (s Static) Explain(context.Context, Context) (string, error) {
	if s.Text == "" {
		return Fallback, nil
	}
	return s.Text, nil
}

// FinalReason is the fixed reason for a liquidation entry, or "" when
// action is not a liquidation.
func FinalReason(action journal.Action) string {
	switch action {
	case journal.FinalSell:
		return FinalLongReason
	case journal.FinalCover:
		return FinalShortReason
	}
	return ""
}
