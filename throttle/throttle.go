// Package throttle gates order frequency: a minimum spacing between orders,
// a per-strategy cooldown, a trailing one-hour cap and a daily cap.
package throttle

import (
	"sync"
	"time"

	"github.com/evdnx/goldpilot/config"
	"github.com/evdnx/goldpilot/types"
)

const (
	ReasonInterval = "throttle:interval"
	ReasonCooldown = "throttle:cooldown"
	ReasonHourly   = "throttle:hourly"
	ReasonDaily    = "throttle:daily"
)

const hour = time.Hour

// State is the persisted part of the limiter.
type State struct {
	LastOrder  time.Time                    `json:"last_order"`
	LastSignal map[types.Strategy]time.Time `json:"last_signal,omitempty"`
	Recent     []time.Time                  `json:"recent,omitempty"`
	Today      int                          `json:"today"`
}

type Limiter struct {
	cfg config.RateLimitConfig

	mu    sync.Mutex
	state State
}

func New(cfg config.RateLimitConfig) *Limiter {
	l := &Limiter{cfg: cfg}
	l.reset(State{})
	return l
}

func (l *Limiter) reset(s State) {
	if s.LastSignal == nil {
		s.LastSignal = make(map[types.Strategy]time.Time)
	}
	l.state = s
}

// Check evaluates all four rules at now without changing any state. Every
// failing rule contributes a reason; an empty result means accepted.
func (l *Limiter) Check(now time.Time, st types.Strategy) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.check(now, st)
}

func (l *Limiter) check(now time.Time, st types.Strategy) []string {
	var reasons []string
	spacing := time.Duration(l.cfg.MinEntryIntervalSeconds) * time.Second
	if !l.state.LastOrder.IsZero() && now.Sub(l.state.LastOrder) < spacing {
		reasons = append(reasons, ReasonInterval)
	}
	cooldown := time.Duration(l.cfg.SignalCooldownSeconds) * time.Second
	if last, ok := l.state.LastSignal[st]; ok && now.Sub(last) < cooldown {
		reasons = append(reasons, ReasonCooldown)
	}
	if l.inWindow(now) >= l.cfg.MaxPositionsPerHour {
		reasons = append(reasons, ReasonHourly)
	}
	if l.state.Today >= l.cfg.MaxDailyTrades {
		reasons = append(reasons, ReasonDaily)
	}
	return reasons
}

func (l *Limiter) inWindow(now time.Time) int {
	cutoff := now.Add(-hour)
	n := 0
	for _, ts := range l.state.Recent {
		if ts.After(cutoff) && !ts.After(now) {
			n++
		}
	}
	return n
}

// Accept checks and, when every rule passes, records the order in the same
// critical section.
func (l *Limiter) Accept(now time.Time, st types.Strategy) ([]string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if reasons := l.check(now, st); len(reasons) > 0 {
		return reasons, false
	}
	l.state.LastOrder = now
	l.state.LastSignal[st] = now
	l.state.Today++

	cutoff := now.Add(-hour)
	kept := l.state.Recent[:0]
	for _, ts := range l.state.Recent {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	l.state.Recent = append(kept, now)
	return nil, true
}

// ResetDay clears the daily count. Spacing, cooldowns and the hourly window
// carry across the boundary.
func (l *Limiter) ResetDay() {
	l.mu.Lock()
	l.state.Today = 0
	l.mu.Unlock()
}

func (l *Limiter) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.state
	s.LastSignal = make(map[types.Strategy]time.Time, len(l.state.LastSignal))
	for k, v := range l.state.LastSignal {
		s.LastSignal[k] = v
	}
	s.Recent = append([]time.Time(nil), l.state.Recent...)
	return s
}

func (l *Limiter) Restore(s State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.Recent = append([]time.Time(nil), s.Recent...)
	l.reset(s)
}
