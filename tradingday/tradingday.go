// Package tradingday anchors the broker's trading day: it starts at a fixed
// hour in a fixed UTC offset rather than at UTC midnight.
package tradingday

import (
	"time"

	"github.com/evdnx/goldpilot/config"
)

const day = 24 * time.Hour

type Calendar struct {
	loc  *time.Location
	hour int
}

func New(cfg config.TradingDayConfig) Calendar {
	return Calendar{loc: cfg.Location(), hour: cfg.RolloverHour}
}

// Open returns the start of the trading day containing now.
func (c Calendar) Open(now time.Time) time.Time {
	lt := now.In(c.loc)
	y, m, d := lt.Date()
	open := time.Date(y, m, d, c.hour, 0, 0, 0, c.loc)
	if lt.Before(open) {
		open = open.Add(-day)
	}
	return open
}

// Next returns the start of the following trading day.
func (c Calendar) Next(now time.Time) time.Time {
	return c.Open(now).Add(day)
}

// Same reports whether a and b fall in the same trading day.
func (c Calendar) Same(a, b time.Time) bool {
	return c.Open(a).Equal(c.Open(b))
}

// Elapsed is the fraction of the trading day gone at now, in [0,1).
func (c Calendar) Elapsed(now time.Time) float64 {
	return float64(now.Sub(c.Open(now))) / float64(day)
}

// Key names the trading day, e.g. "2026-03-04".
func (c Calendar) Key(now time.Time) string {
	return c.Open(now).Format("2006-01-02")
}
