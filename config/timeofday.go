package config

import (
	"fmt"
	"math"
	"time"
)

// TimeOfDay is an offset from local midnight with second resolution.
// It is written as "HH:MM" or "HH:MM:SS" in the document.
type TimeOfDay int

const day = TimeOfDay(24 * 60 * 60)

// NewTimeOfDay builds a TimeOfDay from clock components.
func NewTimeOfDay(h, m, s int) TimeOfDay {
	return TimeOfDay(h*3600+m*60+s) % day
}

// ClockOf returns the time of day of t in t's own location.
func ClockOf(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return NewTimeOfDay(h, m, s)
}

func (t TimeOfDay) String() string {
	h := int(t) / 3600
	m := int(t) % 3600 / 60
	s := int(t) % 60
	if s != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

func (t TimeOfDay) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	var h, m, s int
	str := string(b)
	n, err := fmt.Sscanf(str, "%d:%d:%d", &h, &m, &s)
	if err != nil && n < 2 {
		if _, err := fmt.Sscanf(str, "%d:%d", &h, &m); err != nil {
			return fmt.Errorf("time of day %q: want HH:MM", str)
		}
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || s < 0 || s > 59 || (h == 24 && (m != 0 || s != 0)) {
		return fmt.Errorf("time of day %q out of range", str)
	}
	*t = NewTimeOfDay(h, m, s)
	return nil
}

// Within reports whether t lies in the half-open range [from, to). A range
// with to before from wraps past midnight.
func (t TimeOfDay) Within(from, to TimeOfDay) bool {
	if from <= to {
		return from <= t && t < to
	}
	return t >= from || t < to
}

// FixedZone returns a zone for a (possibly fractional) hour offset from UTC.
func FixedZone(offsetHours float64) *time.Location {
	secs := int(math.Round(offsetHours * 3600))
	if secs == 0 {
		return time.UTC
	}
	sign := "+"
	abs := secs
	if secs < 0 {
		sign = "-"
		abs = -secs
	}
	return time.FixedZone(fmt.Sprintf("UTC%s%02d:%02d", sign, abs/3600, abs%3600/60), secs)
}
