package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/evdnx/goldpilot/indicator"
	"github.com/evdnx/goldpilot/pacer"
	"github.com/evdnx/goldpilot/session"
	"github.com/evdnx/goldpilot/types"
)

type Action int

const (
	Abstain Action = iota
	Open
	Close
	Resize
)

func (a Action) String() string {
	switch a {
	case Abstain:
		return "ABSTAIN"
	case Open:
		return "OPEN"
	case Close:
		return "CLOSE"
	case Resize:
		return "RESIZE"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

func (a Action) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// Tick is one evaluation cycle's input. Spread is in the same unit as the
// session profiles' max_spread. Equity is optional.
type Tick struct {
	Time       time.Time          `json:"time"`
	Bid        float64            `json:"bid"`
	Ask        float64            `json:"ask"`
	Spread     float64            `json:"spread"`
	Indicators indicator.Snapshot `json:"indicators"`
	Equity     float64            `json:"equity,omitempty"`
}

// Decision is the outcome of one cycle.
//
// OPEN carries the entry side and size. A CLOSE without a side asks for the
// whole book to be flattened and Size is the gross exposure; with a side it
// closes one leg, Side being the side of the closing order. RESIZE carries
// the side of the order that reduces exposure and the lots to take off.
type Decision struct {
	At       time.Time      `json:"at"`
	Action   Action         `json:"action"`
	Side     types.Side     `json:"side,omitempty"`
	Size     float64        `json:"size"`
	Price    float64        `json:"price,omitempty"`
	Strategy types.Strategy `json:"strategy,omitempty"`
	Regime   types.Regime   `json:"regime,omitempty"`
	Sessions session.Set    `json:"sessions,omitempty"`
	Pace     pacer.Pace     `json:"pace"`
	Reasons  []string       `json:"reasons"`
}

// Blocker is the reason that stopped an abstain decision, the last one
// recorded.
func (d Decision) Blocker() string {
	if d.Action != Abstain || len(d.Reasons) == 0 {
		return ""
	}
	return d.Reasons[len(d.Reasons)-1]
}

// Order turns an OPEN, RESIZE or one-leg CLOSE decision into an order with
// a fresh client id. A book flatten has no single order.
func (d Decision) Order(symbol string) (types.Order, bool) {
	if d.Action == Abstain || d.Side == "" {
		return types.Order{}, false
	}
	return types.Order{
		ID:       uuid.NewString(),
		Symbol:   symbol,
		Side:     d.Side,
		Qty:      d.Size,
		Price:    d.Price,
		Strategy: d.Strategy,
		Comment:  fmt.Sprintf("%s %s", d.Action, d.Strategy),
	}, true
}

// Fill reports an opening fill.
type Fill struct {
	Time     time.Time      `json:"time"`
	Side     types.Side     `json:"side"`
	Lots     float64        `json:"lots"`
	Price    float64        `json:"price"`
	Strategy types.Strategy `json:"strategy,omitempty"`
}

// Closed reports a position (or part of one) closed with a realized result.
// Side is the side of the position that was closed.
type Closed struct {
	Time   time.Time  `json:"time"`
	Side   types.Side `json:"side"`
	Lots   float64    `json:"lots"`
	Profit float64    `json:"profit"`
}
