package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/evdnx/goldpilot/logger"
	"github.com/evdnx/goldpilot/types"
)

// Guarded wraps an Executor in a circuit breaker so a failing venue stops
// receiving orders for a while instead of being hammered every cycle.
// Order rejections (invalid order, margin) do not count as venue failures.
type Guarded struct {
	next Executor
	cb   *gobreaker.CircuitBreaker
}

func NewGuarded(next Executor, name string, failures uint32, timeout time.Duration, log logger.Logger) *Guarded {
	st := gobreaker.Settings{Name: name, Timeout: timeout}
	st.ReadyToTrip = func(counts gobreaker.Counts) bool { return counts.ConsecutiveFailures >= failures }
	st.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, ErrInvalidOrder) || errors.Is(err, ErrInsufficientMargin)
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn("breaker_state_change",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	}
	return &Guarded{next: next, cb: gobreaker.NewCircuitBreaker(st)}
}

func (g *Guarded) Submit(ctx context.Context, o types.Order) (Report, error) {
	out, err := g.cb.Execute(func() (interface{}, error) {
		return g.next.Submit(ctx, o)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Report{}, fmt.Errorf("submit %s: %w", o.ID, err)
		}
		return Report{}, err
	}
	return out.(Report), nil
}

func (g *Guarded) State() gobreaker.State { return g.cb.State() }

func (g *Guarded) Equity() float64 { return g.next.Equity() }

func (g *Guarded) Position(symbol string) (float64, float64) { return g.next.Position(symbol) }
