package tradingday

import (
	"testing"
	"time"

	"github.com/evdnx/goldpilot/config"
)

func calendar(offset float64, hour int) Calendar {
	return New(config.TradingDayConfig{UTCOffsetHrs: &offset, RolloverHour: hour})
}

func TestOpenInBrokerTime(t *testing.T) {
	c := calendar(2, 0)
	// 21:59Z is 23:59 server time, still the 4th
	now := time.Date(2026, 3, 4, 21, 59, 0, 0, time.UTC)
	want := time.Date(2026, 3, 3, 22, 0, 0, 0, time.UTC)
	if got := c.Open(now); !got.Equal(want) {
		t.Fatalf("open = %v want %v", got.UTC(), want)
	}
	if c.Same(now, now.Add(time.Minute)) {
		t.Fatal("22:00Z starts a new trading day")
	}
	if got := c.Key(now.Add(time.Minute)); got != "2026-03-05" {
		t.Fatalf("key = %s", got)
	}
}

func TestRolloverHourShiftsDay(t *testing.T) {
	c := calendar(0, 17)
	before := time.Date(2026, 3, 4, 16, 0, 0, 0, time.UTC)
	after := time.Date(2026, 3, 4, 17, 0, 0, 0, time.UTC)
	if c.Same(before, after) {
		t.Fatal("17:00 should roll over")
	}
	if got := c.Key(before); got != "2026-03-03" {
		t.Fatalf("key before rollover = %s", got)
	}
	if got := c.Next(before); !got.Equal(after) {
		t.Fatalf("next = %v", got)
	}
}

func TestElapsed(t *testing.T) {
	c := calendar(0, 0)
	noon := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	if got := c.Elapsed(noon); got != 0.5 {
		t.Fatalf("elapsed = %v", got)
	}
}
