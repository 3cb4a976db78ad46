// Package recovery owns the loss-recovery ladder and the account level risk
// gates. It is the only writer of the recovery ledger.
package recovery

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/evdnx/goldpilot/config"
)

const (
	ReasonEmergencyStop = "recovery:emergency_stop"
	ReasonCorrelation   = "recovery:correlation"
	ReasonDailyLoss     = "risk:daily_loss"
	ReasonDrawdown      = "risk:drawdown"
)

type Phase int

const (
	Flat Phase = iota
	Recovering
	EmergencyStop
)

func (p Phase) String() string {
	switch p {
	case Flat:
		return "FLAT"
	case Recovering:
		return "RECOVERING"
	case EmergencyStop:
		return "EMERGENCY_STOP"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Phase) UnmarshalText(b []byte) error {
	switch string(b) {
	case "FLAT":
		*p = Flat
	case "RECOVERING":
		*p = Recovering
	case "EMERGENCY_STOP":
		*p = EmergencyStop
	default:
		return fmt.Errorf("unknown recovery phase %q", b)
	}
	return nil
}

// Ledger is the persisted state of the machine.
type Ledger struct {
	Phase          Phase           `json:"phase"`
	Level          int             `json:"level"`
	CumulativeLoss decimal.Decimal `json:"cumulative_loss"`
	DailyPnL       decimal.Decimal `json:"daily_pnl"`
	Equity         float64         `json:"equity"`
	PeakEquity     float64         `json:"peak_equity"`
}

// Transition describes what a close or reset did to the ladder.
type Transition struct {
	From, To           Phase
	FromLevel, ToLevel int
}

func (t Transition) Changed() bool {
	return t.From != t.To || t.FromLevel != t.ToLevel
}

// Correlation reports the correlation of the open book with the instrument
// about to be traded. Single instrument deployments leave it unset.
type Correlation interface {
	Correlation() float64
}

type Option func(*Machine)

func WithCorrelation(c Correlation) Option {
	return func(m *Machine) { m.corr = c }
}

type Machine struct {
	rec  config.RecoveryConfig
	risk config.RiskConfig
	corr Correlation

	base decimal.Decimal
	mult decimal.Decimal

	mu sync.Mutex
	l  Ledger
}

func New(rec config.RecoveryConfig, risk config.RiskConfig, opts ...Option) *Machine {
	m := &Machine{
		rec:  rec,
		risk: risk,
		base: decimal.NewFromFloat(rec.BaseLot),
		mult: decimal.NewFromFloat(rec.Multiplier),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// multiplier is recovery_multiplier^level.
func (m *Machine) multiplier() decimal.Decimal {
	r := decimal.NewFromInt(1)
	for i := 0; i < m.l.Level; i++ {
		r = r.Mul(m.mult)
	}
	return r
}

// Size is the ladder's lot size for the next entry, before any session
// multiplier or lot-step rounding.
func (m *Machine) Size() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.base.Mul(m.multiplier())
}

func (m *Machine) Level() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.l.Level
}

func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.l.Phase
}

// OnClose applies a realized result. Losses climb the ladder; a profit that
// covers the tracked loss returns to FLAT, a smaller one only reduces it.
func (m *Machine) OnClose(profit float64) Transition {
	m.mu.Lock()
	defer m.mu.Unlock()

	tr := Transition{From: m.l.Phase, FromLevel: m.l.Level}
	pnl := decimal.NewFromFloat(profit)
	m.l.DailyPnL = m.l.DailyPnL.Add(pnl)

	switch {
	case m.l.Phase == EmergencyStop:
		if pnl.IsNegative() {
			m.l.CumulativeLoss = m.l.CumulativeLoss.Add(pnl.Neg())
		}
	case pnl.IsNegative():
		m.l.CumulativeLoss = m.l.CumulativeLoss.Add(pnl.Neg())
		switch {
		case m.l.Level < m.rec.MaxLevels:
			m.l.Level++
			m.l.Phase = Recovering
		case m.rec.EmergencyStop():
			m.l.Phase = EmergencyStop
		}
	case pnl.IsPositive() && m.l.Phase == Recovering:
		if pnl.GreaterThanOrEqual(m.l.CumulativeLoss) {
			m.l.Phase, m.l.Level = Flat, 0
			m.l.CumulativeLoss = decimal.Zero
		} else {
			m.l.CumulativeLoss = m.l.CumulativeLoss.Sub(pnl)
		}
	}

	tr.To, tr.ToLevel = m.l.Phase, m.l.Level
	return tr
}

// ObserveEquity records account equity for the drawdown gate.
func (m *Machine) ObserveEquity(eq float64) {
	if eq <= 0 {
		return
	}
	m.mu.Lock()
	m.l.Equity = eq
	if eq > m.l.PeakEquity {
		m.l.PeakEquity = eq
	}
	m.mu.Unlock()
}

// Gate reports whether a new entry may be sized. The first failing gate is
// returned.
func (m *Machine) Gate() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.l.Phase == EmergencyStop {
		return ReasonEmergencyStop, false
	}
	if m.risk.MaxDailyLoss > 0 && m.l.DailyPnL.Neg().GreaterThanOrEqual(decimal.NewFromFloat(m.risk.MaxDailyLoss)) {
		return ReasonDailyLoss, false
	}
	if m.l.PeakEquity > 0 {
		dd := (m.l.PeakEquity - m.l.Equity) / m.l.PeakEquity * 100
		if dd >= m.risk.MaxDrawdownPercent {
			return ReasonDrawdown, false
		}
	}
	if m.corr != nil && m.l.Level > 0 && m.corr.Correlation() > m.rec.CorrelationLimit {
		return ReasonCorrelation, false
	}
	return "", true
}

// Acknowledge clears an emergency stop and restarts the ladder from FLAT.
// It returns false when the machine was not stopped.
func (m *Machine) Acknowledge() (Transition, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.l.Phase != EmergencyStop {
		return Transition{From: m.l.Phase, To: m.l.Phase, FromLevel: m.l.Level, ToLevel: m.l.Level}, false
	}
	return m.flatten(), true
}

func (m *Machine) flatten() Transition {
	tr := Transition{From: m.l.Phase, FromLevel: m.l.Level, To: Flat}
	m.l.Phase, m.l.Level = Flat, 0
	m.l.CumulativeLoss = decimal.Zero
	return tr
}

// ResetDay starts a new trading day: daily P&L is zeroed and an emergency
// stop is lifted. An ongoing recovery keeps its level.
func (m *Machine) ResetDay() Transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.l.DailyPnL = decimal.Zero
	if m.l.Phase == EmergencyStop {
		return m.flatten()
	}
	return Transition{From: m.l.Phase, To: m.l.Phase, FromLevel: m.l.Level, ToLevel: m.l.Level}
}

func (m *Machine) Ledger() Ledger {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.l
}

func (m *Machine) Restore(l Ledger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.Level > m.rec.MaxLevels {
		l.Level = m.rec.MaxLevels
	}
	m.l = l
}
