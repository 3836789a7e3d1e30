package explain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/forecast-trader/internal/logging"
	"github.com/rustyeddy/forecast-trader/journal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Enricher fills in the Reason of already committed trade log entries.
type Enricher struct {
	Explainer Explainer

	// Spacing is the minimum time between the start of two explainer
	// calls. Zero disables spacing.
	Spacing time.Duration

	// Workers bounds concurrent lookups. Values below 2 run lookups one
	// at a time in log order.
	Workers int

	Logger *zap.Logger
}

// Enrich returns a copy of entries with reasons attached. contexts must
// be parallel to entries. Liquidation entries get their fixed reason and
// are not sent to the explainer. entries itself is never modified, and
// the returned slice keeps the original order.
func (e *Enricher) Enrich(ctx context.Context, entries []journal.Entry, contexts []Context) ([]journal.Entry, error) {
	if len(contexts) != len(entries) {
		return nil, fmt.Errorf("enrich: %d entries but %d contexts", len(entries), len(contexts))
	}

	out := append([]journal.Entry(nil), entries...)
	if e.Explainer == nil {
		return out, nil
	}

	log := logging.OrNop(e.Logger)
	limit := rate.Inf
	if e.Spacing > 0 {
		limit = rate.Every(e.Spacing)
	}
	limiter := rate.NewLimiter(limit, 1)
	rejecter, _ := e.Explainer.(Rejecter)

	lookup := func(i int) {
		if r := FinalReason(out[i].Action); r != "" {
			out[i].Reason = r
			return
		}
		if rejecter != nil && rejecter.Rejecting() {
			out[i].Reason = Fallback
			return
		}
		if err := limiter.Wait(ctx); err != nil {
			log.Warn("explain skipped", zap.Int("seq", i), zap.Error(err))
			out[i].Reason = Fallback
			return
		}
		out[i].Reason = e.ask(ctx, log, i, contexts[i])
	}

	if e.Workers < 2 {
		for i := range out {
			lookup(i)
		}
		return out, nil
	}

	var g errgroup.Group
	g.SetLimit(e.Workers)
	for i := range out {
		g.Go(func() error {
			lookup(i)
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

func (e *Enricher) ask(ctx context.Context, log *zap.Logger, seq int, c Context) (reason string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("explainer panicked", zap.Int("seq", seq), zap.Any("panic", r))
			reason = Fallback
		}
	}()

	text, err := e.Explainer.Explain(ctx, c)
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyReply
	}
	if err != nil {
		log.Warn("explain failed",
			zap.Int("seq", seq),
			zap.String("instrument", c.Instrument),
			zap.String("action", string(c.Action)),
			zap.Error(err),
		)
		return Fallback
	}
	return strings.TrimSpace(text)
}
