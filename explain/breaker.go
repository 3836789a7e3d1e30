package explain

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/rustyeddy/forecast-trader/internal/logging"
)

// BreakerSettings configures circuit breaker behavior.
type BreakerSettings struct {
	MaxRequests  uint32        // requests let through while half-open
	Interval     time.Duration // closed-state count reset interval
	Timeout      time.Duration // how long the circuit stays open
	MinRequests  uint32        // requests seen before the ratio is checked
	FailureRatio float64
}

// DefaultBreakerSettings suits a rate-limited hosted model.
var DefaultBreakerSettings = BreakerSettings{
	MaxRequests:  1,
	Interval:     60 * time.Second,
	Timeout:      30 * time.Second,
	MinRequests:  3,
	FailureRatio: 0.6,
}

// Breaker stops calling an explainer that keeps failing. While open,
// calls return gobreaker.ErrOpenState immediately and Rejecting reports
// true, so the enricher falls back without waiting out its spacing.
type Breaker struct {
	next    Explainer
	breaker *gobreaker.CircuitBreaker
}

func NewBreaker(next Explainer, settings BreakerSettings, logger *zap.Logger) *Breaker {
	log := logging.OrNop(logger)
	gbSettings := gobreaker.Settings{
		Name:        "explainer",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 || counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= settings.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			// a caller cancelling is not the service's fault
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Info("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &Breaker{next: next, breaker: gobreaker.NewCircuitBreaker(gbSettings)}
}

func (b *Breaker) Explain(ctx context.Context, c Context) (string, error) {
	res, err := b.breaker.Execute(func() (interface{}, error) {
		return b.next.Explain(ctx, c)
	})
	if err != nil {
		return "", err
	}
	s, _ := res.(string)
	return s, nil
}

// Rejecting reports whether the circuit is open. A half-open circuit
// lets a trial call through and is not rejecting.
func (b *Breaker) Rejecting() bool {
	return b.breaker.State() == gobreaker.StateOpen
}

// State exposes the breaker state for diagnostics.
func (b *Breaker) State() gobreaker.State {
	return b.breaker.State()
}
