// Package session maps wall-clock instants onto the set of named trading
// sessions that are open at that instant. Sessions may overlap; the result
// is always a set.
package session

import (
	"time"

	"github.com/evdnx/goldpilot/config"
)

// Set is an ordered set of session names. Order follows the configuration
// document so results are deterministic.
type Set []string

func (s Set) Contains(name string) bool {
	for _, n := range s {
		if n == name {
			return true
		}
	}
	return false
}

func (s Set) Empty() bool { return len(s) == 0 }

type window struct {
	cfg  config.SessionWindow
	loc  *time.Location
	days [7]bool
}

func (w window) local(t time.Time) (time.Weekday, config.TimeOfDay) {
	lt := t.In(w.loc)
	return lt.Weekday(), config.ClockOf(lt)
}

func (w window) active(t time.Time) bool {
	wd, tod := w.local(t)
	return w.days[wd] && tod.Within(w.cfg.Start, w.cfg.End)
}

// Classifier holds the immutable window table.
type Classifier struct {
	windows []window
}

// New builds a classifier from validated window definitions.
func New(ws []config.SessionWindow) *Classifier {
	c := &Classifier{windows: make([]window, 0, len(ws))}
	for _, w := range ws {
		cw := window{cfg: w, loc: config.FixedZone(w.UTCOffsetHrs)}
		for _, d := range w.Weekdays {
			if d >= 0 && d < 7 {
				cw.days[d] = true
			}
		}
		c.windows = append(c.windows, cw)
	}
	return c
}

// Active returns every session whose window contains t. A window is active
// when t's weekday (in the window's zone) is enabled and its time of day is
// in [start, end).
func (c *Classifier) Active(t time.Time) Set {
	var out Set
	for _, w := range c.windows {
		if w.active(t) {
			out = append(out, w.cfg.Name)
		}
	}
	return out
}

// Peak returns the active sessions currently inside their peak hours.
func (c *Classifier) Peak(t time.Time) Set {
	var out Set
	for _, w := range c.windows {
		if w.cfg.PeakHours == nil || !w.active(t) {
			continue
		}
		_, tod := w.local(t)
		if tod.Within(w.cfg.PeakHours.From, w.cfg.PeakHours.To) {
			out = append(out, w.cfg.Name)
		}
	}
	return out
}

// Blackout reports the first active session that is inside one of its news
// blackout spans at t.
func (c *Classifier) Blackout(t time.Time) (string, bool) {
	for _, w := range c.windows {
		if len(w.cfg.NewsBlackouts) == 0 || !w.active(t) {
			continue
		}
		_, tod := w.local(t)
		for _, sp := range w.cfg.NewsBlackouts {
			if tod.Within(sp.From, sp.To) {
				return w.cfg.Name, true
			}
		}
	}
	return "", false
}

// NextChange returns the earliest instant after t at which some window opens
// or closes, scanning at most one week ahead. ok is false when nothing
// changes in that horizon.
func (c *Classifier) NextChange(t time.Time) (time.Time, bool) {
	var best time.Time
	for _, w := range c.windows {
		for _, edge := range []config.TimeOfDay{w.cfg.Start, w.cfg.End} {
			lt := t.In(w.loc)
			y, m, d := lt.Date()
			midnight := time.Date(y, m, d, 0, 0, 0, 0, w.loc)
			for i := 0; i < 8; i++ {
				cand := midnight.AddDate(0, 0, i).Add(time.Duration(edge) * time.Second)
				if !cand.After(t) {
					continue
				}
				if w.active(cand) != w.active(cand.Add(-time.Second)) {
					if best.IsZero() || cand.Before(best) {
						best = cand
					}
					break
				}
			}
		}
	}
	return best, !best.IsZero()
}
