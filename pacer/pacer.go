// Package pacer steers the day's traded volume into the rebate band
// [daily_volume_target_min, daily_volume_target_max].
package pacer

import (
	"fmt"
	"math"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/evdnx/goldpilot/config"
)

const ReasonVolumeCap = "volume:cap"

type Pace int

const (
	Normal Pace = iota
	Urgent
	Throttle
)

func (p Pace) String() string {
	switch p {
	case Normal:
		return "NORMAL"
	case Urgent:
		return "URGENT"
	case Throttle:
		return "THROTTLE"
	default:
		return fmt.Sprintf("Pace(%d)", int(p))
	}
}

func (p Pace) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Ledger is today's volume and the rebate it earned.
type Ledger struct {
	Volume decimal.Decimal `json:"volume"`
	Rebate decimal.Decimal `json:"rebate"`
}

type Pacer struct {
	cfg config.VolumeConfig
	cap decimal.Decimal

	mu sync.Mutex
	l  Ledger
}

func New(cfg config.VolumeConfig) *Pacer {
	return &Pacer{
		cfg: cfg,
		cap: decimal.NewFromFloat(math.Min(cfg.DailyTargetMax, cfg.MaxDailyVolume)),
	}
}

// Pace classifies today's volume at the given elapsed fraction of the
// trading day. The expected volume grows linearly to the minimum target.
func (p *Pacer) Pace(elapsed float64) Pace {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pace(elapsed)
}

func (p *Pacer) pace(elapsed float64) Pace {
	if p.l.Volume.GreaterThanOrEqual(p.cap) {
		return Throttle
	}
	expected := decimal.NewFromFloat(p.cfg.DailyTargetMin).Mul(decimal.NewFromFloat(clamp01(elapsed)))
	if p.l.Volume.LessThan(expected) {
		return Urgent
	}
	return Normal
}

// Boost is the size factor for a pace: urgent_size_boost when behind, else 1.
func (p *Pacer) Boost(pace Pace) decimal.Decimal {
	if pace == Urgent {
		return decimal.NewFromFloat(p.cfg.UrgentSizeBoost)
	}
	return decimal.NewFromInt(1)
}

// Fits reports whether size can trade without taking the day past the cap.
func (p *Pacer) Fits(size decimal.Decimal) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.l.Volume.Add(size).GreaterThan(p.cap)
}

// Record books a fill and accrues its rebate.
func (p *Pacer) Record(lots float64) {
	if lots <= 0 {
		return
	}
	v := decimal.NewFromFloat(lots)
	p.mu.Lock()
	p.l.Volume = p.l.Volume.Add(v)
	p.l.Rebate = p.l.Rebate.Add(v.Mul(decimal.NewFromFloat(p.cfg.RebatePerLot)))
	p.mu.Unlock()
}

func (p *Pacer) Reset() {
	p.mu.Lock()
	p.l = Ledger{}
	p.mu.Unlock()
}

func (p *Pacer) Ledger() Ledger {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.l
}

func (p *Pacer) Restore(l Ledger) {
	p.mu.Lock()
	p.l = l
	p.mu.Unlock()
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}
