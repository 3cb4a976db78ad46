// Package regime classifies market state per timeframe from ADX and ATR and
// consolidates the per-timeframe verdicts by majority vote.
package regime

import (
	"fmt"

	"github.com/evdnx/goldpilot/config"
	"github.com/evdnx/goldpilot/indicator"
	"github.com/evdnx/goldpilot/types"
)

// Result is one cycle's classification. It is not kept past the cycle.
type Result struct {
	PerTimeframe map[types.Timeframe]types.Regime
	Consolidated types.Regime
}

type Detector struct {
	cfg config.RegimeConfig
}

func New(cfg config.RegimeConfig) *Detector {
	return &Detector{cfg: cfg}
}

// Classify applies the fixed priority: trending ADX, ranging ADX, then ATR
// against its rolling mean. The ambiguous middle is RANGING.
func (d *Detector) Classify(v indicator.Values) types.Regime {
	switch {
	case v.ADX >= d.cfg.TrendingThreshold:
		return types.Trending
	case v.ADX <= d.cfg.RangingThreshold:
		return types.Ranging
	case v.ATRMean <= 0:
		return types.Ranging
	case v.ATR >= v.ATRMean*d.cfg.ATRMultiplierHigh:
		return types.VolatileHigh
	case v.ATR <= v.ATRMean*d.cfg.ATRMultiplierLow:
		return types.VolatileLow
	default:
		return types.Ranging
	}
}

// Detect validates the snapshot and classifies every timeframe in it.
// Invalid input yields an error wrapping indicator.ErrInvalidInput.
func (d *Detector) Detect(s indicator.Snapshot) (Result, error) {
	if err := s.Validate(); err != nil {
		return Result{}, fmt.Errorf("detect regime: %w", err)
	}
	res := Result{PerTimeframe: make(map[types.Timeframe]types.Regime, len(s.Frames))}
	for tf, v := range s.Frames {
		res.PerTimeframe[tf] = d.Classify(v)
	}
	res.Consolidated = Vote(res.PerTimeframe)
	return res, nil
}

// Vote returns the regime held by most timeframes. On a tie the verdict of
// the highest timeframe among the tied regimes wins.
func Vote(verdicts map[types.Timeframe]types.Regime) types.Regime {
	counts := make(map[types.Regime]int, 4)
	best := 0
	for _, r := range verdicts {
		counts[r]++
		if counts[r] > best {
			best = counts[r]
		}
	}
	var (
		winner types.Regime
		top    types.Timeframe
	)
	for tf, r := range verdicts {
		if counts[r] == best && tf > top {
			winner, top = r, tf
		}
	}
	return winner
}
