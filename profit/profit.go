// Package profit manages open legs once they run into profit: partial
// closes at pip steps, a trailing stop after the leg has run far enough and
// a full close at the target.
package profit

import (
	"fmt"
	"math"

	"github.com/evdnx/goldpilot/config"
	"github.com/evdnx/goldpilot/types"
)

const (
	ReasonPartial  = "profit:partial"
	ReasonTrailing = "profit:trailing"
	ReasonTarget   = "profit:target"
)

// Leg is the profit state of one side of the book.
type Leg struct {
	// Entry is the volume weighted entry price; zero when unknown.
	Entry    float64 `json:"entry"`
	PeakPips float64 `json:"peak_pips"`
	// Stage counts the partial targets already taken.
	Stage int `json:"stage"`
}

// Add folds an opening fill of lots at price into a leg already holding
// held lots. A fill without a price leaves the entry alone.
func (l Leg) Add(held, lots, price float64) Leg {
	if price <= 0 || lots <= 0 {
		return l
	}
	if held <= 0 || l.Entry <= 0 {
		l.Entry = price
		return l
	}
	l.Entry = (l.Entry*held + price*lots) / (held + lots)
	return l
}

// Exit is what a leg asks for. Fraction 1 closes the leg.
type Exit struct {
	Reason   string
	Fraction float64
	// Stage is the leg's stage once the exit has filled.
	Stage int
}

func (x Exit) Full() bool { return x.Fraction >= 1 }

type Manager struct {
	cfg config.ProfitConfig
}

func New(cfg config.ProfitConfig) *Manager {
	return &Manager{cfg: cfg}
}

// Pips is the open profit of a leg held on side, marked at the quote it
// would exit on. Micro-pip float noise is dropped so a quote exactly on a
// step counts as reaching it.
func (m *Manager) Pips(side types.Side, entry, bid, ask float64) float64 {
	d := entry - ask
	if side == types.Buy {
		d = bid - entry
	}
	return math.Round(d/m.cfg.PipSize*1e6) / 1e6
}

// Check marks the leg at the quote and returns it with its peak updated,
// along with the exit it calls for. The full target wins over the trailing
// stop, which wins over a partial.
func (m *Manager) Check(side types.Side, l Leg, bid, ask float64) (Leg, Exit, bool) {
	if !m.cfg.On() || l.Entry <= 0 || bid <= 0 || ask <= 0 {
		return l, Exit{}, false
	}
	pips := m.Pips(side, l.Entry, bid, ask)
	if pips > l.PeakPips {
		l.PeakPips = pips
	}
	if target := m.cfg.TargetPips; target > 0 && pips >= target {
		return l, Exit{Reason: ReasonTarget, Fraction: 1}, true
	}
	if trail := m.cfg.TrailingPips; trail > 0 && l.PeakPips >= trail && l.PeakPips-pips >= trail {
		return l, Exit{Reason: ReasonTrailing, Fraction: 1}, true
	}
	if l.Stage < len(m.cfg.Partials) {
		p := m.cfg.Partials[l.Stage]
		if pips >= p.Pips {
			return l, Exit{
				Reason:   fmt.Sprintf("%s=%d", ReasonPartial, l.Stage+1),
				Fraction: p.Fraction,
				Stage:    l.Stage + 1,
			}, true
		}
	}
	return l, Exit{}, false
}
