// Package selector turns the active sessions and the consolidated regime
// into a ranked list of candidate strategies plus the effective sizing and
// spread limits of the session mix.
package selector

import (
	"fmt"
	"math"

	"github.com/evdnx/goldpilot/config"
	"github.com/evdnx/goldpilot/session"
	"github.com/evdnx/goldpilot/types"
)

// Abstain reasons produced by Select.
const (
	ReasonNoSession      = "session:none"
	ReasonSpreadExceeded = "spread:exceeded"
	ReasonIncompatible   = "regime:incompatible"
)

// Compatible reports whether strategy s may trade in regime r.
func Compatible(s types.Strategy, r types.Regime) bool {
	switch s {
	case types.MeanReversion, types.ScalpingFast:
		return r == types.Ranging || r == types.VolatileLow
	case types.TrendFollowing:
		return r == types.Trending
	case types.BreakoutFalse, types.NewsReaction:
		return r == types.VolatileHigh
	case types.GridEntry:
		return r == types.Ranging
	default:
		return false
	}
}

// Auxiliary carries the oscillator readings that refine ordering within a regime.
type Auxiliary struct {
	RSI       float64
	BandWidth float64
}

type Selection struct {
	Candidates     []types.Strategy
	SizeMultiplier float64
	MaxSpread      float64
	// Reason is set when Candidates is empty.
	Reason string
}

func (s Selection) Empty() bool { return len(s.Candidates) == 0 }

type Selector struct {
	profiles map[string]config.SessionProfile
	aux      config.AuxiliaryConfig
}

// New indexes the session profiles. Every window must have exactly one
// profile; anything else is a configuration inconsistency.
func New(cfg *config.Config) (*Selector, error) {
	s := &Selector{profiles: make(map[string]config.SessionProfile, len(cfg.SessionProfiles)), aux: cfg.Auxiliary}
	for _, p := range cfg.SessionProfiles {
		if _, dup := s.profiles[p.Session]; dup {
			return nil, fmt.Errorf("%w: duplicate profile %q", config.ErrConfigInconsistency, p.Session)
		}
		s.profiles[p.Session] = p
	}
	for _, w := range cfg.Sessions {
		if _, ok := s.profiles[w.Name]; !ok {
			return nil, fmt.Errorf("%w: session window %q has no profile", config.ErrConfigInconsistency, w.Name)
		}
	}
	return s, nil
}

// Limits folds the profiles of the active sessions: the largest size
// multiplier and the smallest spread ceiling.
func (s *Selector) Limits(active session.Set) (mult, maxSpread float64) {
	maxSpread = math.Inf(1)
	for _, name := range active {
		p, ok := s.profiles[name]
		if !ok {
			continue
		}
		mult = math.Max(mult, p.SizeMultiplier)
		maxSpread = math.Min(maxSpread, p.MaxSpread)
	}
	return mult, maxSpread
}

// Select ranks the strategies open to the current conditions. The spread
// ceiling is checked before anything else and empties the list outright.
func (s *Selector) Select(active session.Set, r types.Regime, aux Auxiliary, spread float64) Selection {
	if active.Empty() {
		return Selection{Reason: ReasonNoSession}
	}
	mult, maxSpread := s.Limits(active)
	sel := Selection{SizeMultiplier: mult, MaxSpread: maxSpread}
	if spread > maxSpread {
		sel.Reason = ReasonSpreadExceeded
		return sel
	}
	seen := make(map[types.Strategy]bool)
	for _, name := range active {
		for _, st := range s.profiles[name].PreferredStrategies {
			if seen[st] || !Compatible(st, r) {
				continue
			}
			seen[st] = true
			sel.Candidates = append(sel.Candidates, st)
		}
	}
	if sel.Empty() {
		sel.Reason = ReasonIncompatible
		return sel
	}
	if aux.BandWidth > 0 && aux.BandWidth < s.aux.SqueezeWidth {
		sel.Candidates = promote(sel.Candidates, types.BreakoutFalse)
	}
	if aux.RSI >= s.aux.RSIOverbought || aux.RSI <= s.aux.RSIOversold {
		sel.Candidates = promote(sel.Candidates, types.MeanReversion)
	}
	return sel
}

// promote moves st to the front of list if present.
func promote(list []types.Strategy, st types.Strategy) []types.Strategy {
	for i, c := range list {
		if c != st {
			continue
		}
		out := make([]types.Strategy, 0, len(list))
		out = append(out, st)
		out = append(out, list[:i]...)
		return append(out, list[i+1:]...)
	}
	return list
}
