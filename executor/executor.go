package executor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/evdnx/goldpilot/logger"
	"github.com/evdnx/goldpilot/types"
)

var (
	ErrInsufficientMargin = errors.New("insufficient margin")
	ErrInvalidOrder       = errors.New("invalid order")
)

// Report describes how an order was filled. Realized is non-zero when the
// order reduced an existing position.
type Report struct {
	OrderID  string
	Qty      float64
	Price    float64
	Realized float64
	// Closed is the quantity that offset an existing position.
	Closed float64
}

type Executor interface {
	Submit(ctx context.Context, o types.Order) (Report, error)
	// For back‑testing we expose the portfolio state
	Equity() float64
	Position(symbol string) (qty float64, avgPrice float64)
}

// PaperExecutor nets orders into one signed position per symbol and fills
// at the order price. Lots are converted to units with the contract size.
type PaperExecutor struct {
	mu        sync.Mutex
	log       logger.Logger
	contract  float64
	leverage  float64
	equity    float64
	positions map[string]float64 // lots (positive = long, negative = short)
	avgPrice  map[string]float64
}

func NewPaperExecutor(startEquity, contractSize, leverage float64, log logger.Logger) *PaperExecutor {
	if contractSize <= 0 {
		contractSize = 100
	}
	if leverage <= 0 {
		leverage = 100
	}
	return &PaperExecutor{
		log:       log,
		contract:  contractSize,
		leverage:  leverage,
		equity:    startEquity,
		positions: make(map[string]float64),
		avgPrice:  make(map[string]float64),
	}
}

func (p *PaperExecutor) Submit(_ context.Context, o types.Order) (Report, error) {
	if o.Qty <= 0 || o.Price <= 0 {
		return Report{}, fmt.Errorf("%w: qty %v price %v", ErrInvalidOrder, o.Qty, o.Price)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	signed := o.Qty
	if o.Side == types.Sell {
		signed = -o.Qty
	}
	pos := p.positions[o.Symbol]
	avg := p.avgPrice[o.Symbol]
	next := pos + signed

	if margin := math.Abs(next) * o.Price * p.contract / p.leverage; math.Abs(next) > math.Abs(pos) && margin > p.equity {
		return Report{}, fmt.Errorf("%w: need %.2f have %.2f", ErrInsufficientMargin, margin, p.equity)
	}

	rep := Report{OrderID: o.ID, Qty: o.Qty, Price: o.Price}
	switch {
	case pos == 0 || (pos > 0) == (signed > 0):
		// opening or adding: volume weighted average entry
		p.avgPrice[o.Symbol] = (avg*math.Abs(pos) + o.Price*o.Qty) / math.Abs(next)
	default:
		closed := math.Min(math.Abs(pos), o.Qty)
		dir := 1.0
		if pos < 0 {
			dir = -1
		}
		rep.Closed = closed
		rep.Realized = (o.Price - avg) * closed * p.contract * dir
		p.equity += rep.Realized
		switch {
		case next == 0:
			delete(p.avgPrice, o.Symbol)
		case (next > 0) != (pos > 0):
			// flipped through zero; the remainder opens at the fill price
			p.avgPrice[o.Symbol] = o.Price
		}
	}
	if next == 0 {
		delete(p.positions, o.Symbol)
	} else {
		p.positions[o.Symbol] = next
	}

	p.log.Info("paper_fill",
		logger.String("order_id", o.ID),
		logger.String("symbol", o.Symbol),
		logger.String("side", string(o.Side)),
		logger.Float64("qty", o.Qty),
		logger.Float64("price", o.Price),
		logger.Float64("realized", rep.Realized),
		logger.Float64("equity", p.equity),
	)
	return rep, nil
}

func (p *PaperExecutor) Equity() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.equity
}

func (p *PaperExecutor) Position(sym string) (float64, float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positions[sym], p.avgPrice[sym]
}
