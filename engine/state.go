package engine

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/evdnx/goldpilot/logger"
	"github.com/evdnx/goldpilot/metrics"
	"github.com/evdnx/goldpilot/notify"
	"github.com/evdnx/goldpilot/pacer"
	"github.com/evdnx/goldpilot/profit"
	"github.com/evdnx/goldpilot/recovery"
	"github.com/evdnx/goldpilot/store"
)

// OnFill books an opening fill: volume, rebate and exposure. A priced fill
// moves the leg's average entry.
func (e *Engine) OnFill(ctx context.Context, f Fill) {
	e.mu.Lock()
	events := e.rollover(f.Time)
	e.pacer.Record(f.Lots)
	lots, leg := e.exposure.Side(f.Side)
	*leg = leg.Add(*lots, f.Lots, f.Price)
	*lots += f.Lots
	e.exposure.Positions++
	events = append(events, e.trackPace(f.Time)...)
	e.mu.Unlock()

	e.publish(ctx, events)
	e.gauges()
}

// OnClose applies a realized result to the recovery ladder and releases
// the closed exposure.
func (e *Engine) OnClose(ctx context.Context, c Closed) {
	e.mu.Lock()
	events := e.rollover(c.Time)
	tr := e.recovery.OnClose(c.Profit)
	lots, leg := e.exposure.Side(c.Side)
	*lots = math.Max(0, *lots-c.Lots)
	partial := false
	if x, ok := e.pending[c.Side]; ok {
		delete(e.pending, c.Side)
		if x.stage > leg.Stage {
			leg.Stage = x.stage
			partial = *lots >= 1e-9
		}
	}
	if *lots < 1e-9 {
		*lots, *leg = 0, profit.Leg{}
	}
	// a partial take-profit leaves the position open
	if e.exposure.Positions > 0 && !partial {
		e.exposure.Positions--
	}
	if e.exposure.Lots() < 1e-9 {
		e.exposure = store.Exposure{}
		clear(e.pending)
	}
	events = append(events, e.transitionEvents(c.Time, tr)...)
	e.mu.Unlock()

	e.publish(ctx, events)
	e.gauges()
}

// Acknowledge clears an emergency stop from outside. The ladder restarts
// from FLAT.
func (e *Engine) Acknowledge(ctx context.Context, now time.Time) error {
	e.mu.Lock()
	tr, ok := e.recovery.Acknowledge()
	if !ok {
		e.mu.Unlock()
		return ErrNotStopped
	}
	delete(e.pending, flattenKey)
	events := e.transitionEvents(now, tr)
	e.mu.Unlock()

	e.log.Warn("emergency_stop_acknowledged", logger.Time("at", now))
	e.publish(ctx, events)
	e.gauges()
	return nil
}

// CloseFailed reports that an exit order asked for by a CLOSE or a
// take-profit RESIZE could not be placed. Every exit in flight is asked for
// again on the next cycle.
func (e *Engine) CloseFailed(now time.Time) {
	e.mu.Lock()
	n := len(e.pending)
	clear(e.pending)
	e.mu.Unlock()
	if n > 0 {
		e.log.Warn("close_failed", logger.Time("at", now), logger.Int("pending", n))
	}
}

// rollover resets the day-scoped state when t falls in a later trading day
// than the last one seen. Callers hold e.mu.
func (e *Engine) rollover(t time.Time) []notify.Event {
	key := e.calendar.Key(t)
	if e.day == "" {
		e.day = key
		return nil
	}
	if key <= e.day {
		return nil
	}
	prev := e.day
	e.day = key
	e.throttle.ResetDay()
	e.pacer.Reset()
	tr := e.recovery.ResetDay()
	clear(e.pending)

	events := []notify.Event{notify.NewEvent(t, notify.KindRollover, notify.Info, e.cfg.Symbol,
		"trading day rollover", map[string]string{"from": prev, "to": key})}
	events = append(events, e.transitionEvents(t, tr)...)
	events = append(events, e.trackPace(t)...)
	return events
}

// trackPace emits an event when the pace class moves. Callers hold e.mu.
func (e *Engine) trackPace(t time.Time) []notify.Event {
	now := e.pacer.Pace(e.calendar.Elapsed(t))
	if now == e.pace {
		return nil
	}
	prev := e.pace
	e.pace = now
	metrics.SetPace(now.String(), pacer.Normal.String(), pacer.Urgent.String(), pacer.Throttle.String())
	sev := notify.Info
	if now == pacer.Throttle {
		sev = notify.Warning
	}
	return []notify.Event{notify.NewEvent(t, notify.KindPace, sev, e.cfg.Symbol,
		"volume pace changed", map[string]string{"from": prev.String(), "to": now.String()})}
}

func (e *Engine) transitionEvents(t time.Time, tr recovery.Transition) []notify.Event {
	if !tr.Changed() {
		return nil
	}
	attrs := map[string]string{
		"from":       tr.From.String(),
		"to":         tr.To.String(),
		"from_level": strconv.Itoa(tr.FromLevel),
		"to_level":   strconv.Itoa(tr.ToLevel),
	}
	switch {
	case tr.To == recovery.EmergencyStop:
		e.log.Error("emergency_stop", logger.Int("level", tr.ToLevel), logger.Time("at", t))
		return []notify.Event{notify.NewEvent(t, notify.KindEmergencyStop, notify.Critical, e.cfg.Symbol,
			"emergency stop: trading halted", attrs)}
	case tr.From == recovery.EmergencyStop:
		return []notify.Event{notify.NewEvent(t, notify.KindEmergencyCleared, notify.Warning, e.cfg.Symbol,
			"emergency stop cleared", attrs)}
	default:
		return []notify.Event{notify.NewEvent(t, notify.KindRecoveryLevel, notify.Info, e.cfg.Symbol,
			fmt.Sprintf("recovery level %d -> %d", tr.FromLevel, tr.ToLevel), attrs)}
	}
}

func (e *Engine) gauges() {
	l := e.recovery.Ledger()
	metrics.RecoveryLevel.Set(float64(l.Level))
	stopped := 0.0
	if l.Phase == recovery.EmergencyStop {
		stopped = 1
	}
	metrics.EmergencyStop.Set(stopped)
	if l.Equity > 0 {
		metrics.EquityGauge.Set(l.Equity)
	}
	v := e.pacer.Ledger()
	metrics.VolumeTraded.Set(v.Volume.InexactFloat64())
	metrics.RebateAccrued.Set(v.Rebate.InexactFloat64())

	e.mu.Lock()
	x := e.exposure
	e.mu.Unlock()
	metrics.PositionsOpen.Set(float64(x.Positions))
	metrics.ExposureLots.Set(x.Lots())
}

// Exposure returns the open book as tracked from fills and closes.
func (e *Engine) Exposure() store.Exposure {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exposure
}

// Snapshot captures the trading-day state for persistence. SavedAt is the
// time of the last committed cycle.
func (e *Engine) Snapshot() store.DayState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return store.DayState{
		Symbol:   e.cfg.Symbol,
		Day:      e.day,
		SavedAt:  e.last,
		Throttle: e.throttle.State(),
		Recovery: e.recovery.Ledger(),
		Volume:   e.pacer.Ledger(),
		Exposure: e.exposure,
	}
}

// Restore loads a saved state. A state from an earlier trading day is
// rolled over on the next cycle.
func (e *Engine) Restore(s store.DayState) error {
	if s.Symbol != e.cfg.Symbol {
		return fmt.Errorf("restore: state for %q, engine trades %q", s.Symbol, e.cfg.Symbol)
	}
	e.mu.Lock()
	e.day = s.Day
	e.throttle.Restore(s.Throttle)
	e.recovery.Restore(s.Recovery)
	e.pacer.Restore(s.Volume)
	e.exposure = s.Exposure
	e.last = s.SavedAt
	clear(e.pending)
	e.mu.Unlock()
	e.gauges()
	return nil
}
