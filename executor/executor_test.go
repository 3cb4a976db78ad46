package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"

	"github.com/evdnx/goldpilot/logger"
	"github.com/evdnx/goldpilot/types"
)

var ctx = context.Background()

func TestPaperExecutor_SubmitAndPosition(t *testing.T) {
	ex := NewPaperExecutor(10_000, 100, 100, logger.NewNop())

	o := types.Order{ID: "a", Symbol: "XAUUSD", Side: types.Buy, Qty: 0.5, Price: 2000}
	rep, err := ex.Submit(ctx, o)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if rep.Realized != 0 || rep.OrderID != "a" {
		t.Fatalf("unexpected report %+v", rep)
	}
	if _, err := ex.Submit(ctx, types.Order{Symbol: "XAUUSD", Side: types.Buy, Qty: 0.5, Price: 2010}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	qty, avg := ex.Position("XAUUSD")
	if qty != 1 || avg != 2005 {
		t.Fatalf("unexpected position: qty=%v avg=%v", qty, avg)
	}
}

func TestPaperExecutor_RealizesOnReduce(t *testing.T) {
	ex := NewPaperExecutor(10_000, 100, 100, logger.NewNop())
	ex.Submit(ctx, types.Order{Symbol: "XAUUSD", Side: types.Sell, Qty: 0.2, Price: 2000})

	rep, err := ex.Submit(ctx, types.Order{Symbol: "XAUUSD", Side: types.Buy, Qty: 0.2, Price: 1990})
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}
	// short 0.2 lots * 100 oz, 10 dollars in favour
	if rep.Realized != 200 || rep.Closed != 0.2 {
		t.Fatalf("unexpected report %+v", rep)
	}
	if eq := ex.Equity(); eq != 10_200 {
		t.Fatalf("equity = %v", eq)
	}
	if qty, _ := ex.Position("XAUUSD"); qty != 0 {
		t.Fatalf("position should be flat, got %v", qty)
	}
}

func TestPaperExecutor_InsufficientMargin(t *testing.T) {
	ex := NewPaperExecutor(1000, 100, 100, logger.NewNop())
	_, err := ex.Submit(ctx, types.Order{Symbol: "XAUUSD", Side: types.Buy, Qty: 1, Price: 2000})
	if !errors.Is(err, ErrInsufficientMargin) {
		t.Fatalf("expected ErrInsufficientMargin, got %v", err)
	}
	if eq := ex.Equity(); eq != 1000 {
		t.Fatalf("equity should stay unchanged on rejection")
	}
	if _, err := ex.Submit(ctx, types.Order{Symbol: "XAUUSD", Side: types.Buy, Qty: 0}); !errors.Is(err, ErrInvalidOrder) {
		t.Fatalf("expected ErrInvalidOrder, got %v", err)
	}
}

type flaky struct {
	calls int
	err   error
}

func (f *flaky) Submit(context.Context, types.Order) (Report, error) {
	f.calls++
	return Report{Qty: 1}, f.err
}
func (f *flaky) Equity() float64                    { return 0 }
func (f *flaky) Position(string) (float64, float64) { return 0, 0 }

func TestGuardedOpensAfterFailures(t *testing.T) {
	venue := &flaky{err: errors.New("connection reset")}
	g := NewGuarded(venue, "venue", 2, time.Minute, logger.NewNop())

	for i := 0; i < 2; i++ {
		if _, err := g.Submit(ctx, types.Order{ID: "x"}); err == nil {
			t.Fatal("expected venue error")
		}
	}
	if g.State() != gobreaker.StateOpen {
		t.Fatalf("breaker state = %v", g.State())
	}
	_, err := g.Submit(ctx, types.Order{ID: "y"})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open-state error, got %v", err)
	}
	if venue.calls != 2 {
		t.Fatalf("open breaker must not reach the venue, calls=%d", venue.calls)
	}
}

func TestGuardedIgnoresRejections(t *testing.T) {
	venue := &flaky{err: ErrInsufficientMargin}
	g := NewGuarded(venue, "venue", 1, time.Minute, logger.NewNop())
	for i := 0; i < 3; i++ {
		g.Submit(ctx, types.Order{})
	}
	if g.State() != gobreaker.StateClosed {
		t.Fatalf("rejections should not trip the breaker, state=%v", g.State())
	}
	venue.err = nil
	rep, err := g.Submit(ctx, types.Order{})
	if err != nil || rep.Qty != 1 {
		t.Fatalf("unexpected result %+v %v", rep, err)
	}
}
