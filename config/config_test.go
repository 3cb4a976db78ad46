package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/evdnx/goldpilot/types"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Regime.TrendingThreshold != 25 || cfg.Regime.RangingThreshold != 20 {
		t.Fatalf("unexpected adx thresholds %+v", cfg.Regime)
	}
	if !cfg.Recovery.EmergencyStop() {
		t.Fatal("emergency stop should default to enabled")
	}
	if len(cfg.Sessions) != 4 || len(cfg.SessionProfiles) != 4 {
		t.Fatalf("expected stock session table, got %d windows %d profiles", len(cfg.Sessions), len(cfg.SessionProfiles))
	}
}

func TestLoadSampleDocument(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "configs", "goldpilot.yaml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	p, ok := cfg.Profile("OVERLAP")
	if !ok {
		t.Fatal("OVERLAP profile missing")
	}
	if p.MaxSpread != 1.0 || p.SizeMultiplier != 1.5 || p.Volatility != types.VolatilityExtreme {
		t.Fatalf("unexpected OVERLAP profile %+v", p)
	}
	if p.PreferredStrategies[0] != types.BreakoutFalse {
		t.Fatalf("expected BREAKOUT_FALSE first, got %v", p.PreferredStrategies[0])
	}
	if got := cfg.Sessions[0].Start.String(); got != "22:00" {
		t.Fatalf("unexpected ASIAN start %s", got)
	}
	if len(cfg.Sessions[1].NewsBlackouts) != 1 {
		t.Fatalf("expected a LONDON news blackout")
	}
}

func TestParseHonoursExplicitFalseAndZero(t *testing.T) {
	doc := `
recovery:
  emergency_stop_enabled: false
trading_day:
  utc_offset_hours: 0
`
	cfg, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cfg.Recovery.EmergencyStop() {
		t.Fatal("explicit false must survive defaults")
	}
	if loc := cfg.TradingDay.Location(); loc != time.UTC {
		t.Fatalf("expected UTC trading day, got %s", loc)
	}
}

func TestMissingProfileIsInconsistent(t *testing.T) {
	cfg := Default()
	cfg.SessionProfiles = cfg.SessionProfiles[:3] // drop OVERLAP
	err := cfg.Validate()
	if !errors.Is(err, ErrConfigInconsistency) {
		t.Fatalf("expected ErrConfigInconsistency, got %v", err)
	}
	if !strings.Contains(err.Error(), "OVERLAP") {
		t.Fatalf("error should name the window: %v", err)
	}
}

func TestOrphanProfileIsInconsistent(t *testing.T) {
	cfg := Default()
	extra := cfg.SessionProfiles[0]
	extra.Session = "SYDNEY"
	cfg.SessionProfiles = append(cfg.SessionProfiles, extra)
	if err := cfg.Validate(); !errors.Is(err, ErrConfigInconsistency) {
		t.Fatalf("expected ErrConfigInconsistency, got %v", err)
	}
}

func TestDuplicateProfileIsInconsistent(t *testing.T) {
	cfg := Default()
	cfg.SessionProfiles = append(cfg.SessionProfiles, cfg.SessionProfiles[0])
	if err := cfg.Validate(); !errors.Is(err, ErrConfigInconsistency) {
		t.Fatalf("expected ErrConfigInconsistency, got %v", err)
	}
}

func TestValidateFailsOnInvertedThresholds(t *testing.T) {
	cfg := Default()
	cfg.Regime.RangingThreshold = 30
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for ranging threshold above trending threshold")
	}
}

func TestValidateFailsOnBadWeekday(t *testing.T) {
	cfg := Default()
	cfg.Sessions[0].Weekdays = []int{1, 7}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for weekday 7")
	}
}

func TestUnknownStrategyRejected(t *testing.T) {
	doc := `
sessions:
  - {name: A, start: "01:00", end: "02:00", weekdays: [1]}
session_profiles:
  - {session: A, volatility: LOW, preferred_strategies: [MOON_SHOT], max_spread: 1, size_multiplier: 1}
`
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatal("expected error for unknown strategy identifier")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestTimeOfDayParsing(t *testing.T) {
	cases := map[string]TimeOfDay{
		"00:00":    0,
		"08:30":    NewTimeOfDay(8, 30, 0),
		"23:59:30": NewTimeOfDay(23, 59, 30),
		"24:00":    0,
	}
	for in, want := range cases {
		var got TimeOfDay
		if err := got.UnmarshalText([]byte(in)); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if got != want {
			t.Fatalf("%s: got %v want %v", in, got, want)
		}
	}
	for _, bad := range []string{"25:00", "12:60", "noon", "24:01"} {
		var got TimeOfDay
		if err := got.UnmarshalText([]byte(bad)); err == nil {
			t.Fatalf("%s: expected error", bad)
		}
	}
}

func TestWithinHalfOpen(t *testing.T) {
	start, end := NewTimeOfDay(15, 0, 0), NewTimeOfDay(0, 0, 0)
	if !NewTimeOfDay(15, 0, 0).Within(start, end) {
		t.Fatal("start is inclusive")
	}
	if !NewTimeOfDay(23, 59, 59).Within(start, end) {
		t.Fatal("last second before midnight is inside")
	}
	if NewTimeOfDay(0, 0, 0).Within(start, end) {
		t.Fatal("end is exclusive")
	}
}

func TestProfitDefaultsAndOrdering(t *testing.T) {
	cfg := Default()
	if !cfg.Profit.On() || cfg.Profit.PipSize != 0.1 || cfg.Profit.TargetPips != 30 {
		t.Fatalf("unexpected profit defaults %+v", cfg.Profit)
	}
	if len(cfg.Profit.Partials) != 2 || cfg.Profit.Partials[0].Pips != 10 {
		t.Fatalf("unexpected stock partials %+v", cfg.Profit.Partials)
	}
	if cfg.TradingLimits.CloseRetrySeconds != 5 {
		t.Fatalf("unexpected close retry %d", cfg.TradingLimits.CloseRetrySeconds)
	}

	cfg.Profit.Partials = []PartialTarget{{Pips: 20, Fraction: 0.5}, {Pips: 10, Fraction: 0.5}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for descending partial targets")
	}
	cfg.Profit.Partials = []PartialTarget{{Pips: 10, Fraction: 1.5}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for a fraction above one")
	}
}

func TestParseProfitSection(t *testing.T) {
	doc := `
profit:
  enabled: false
  target_pips: 10
  partial_targets:
    - {pips: 3, fraction: 0.3}
`
	cfg, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cfg.Profit.On() {
		t.Fatal("explicit false must survive defaults")
	}
	if cfg.Profit.TargetPips != 10 || cfg.Profit.TrailingPips != 15 {
		t.Fatalf("unexpected profit section %+v", cfg.Profit)
	}
	if len(cfg.Profit.Partials) != 1 || cfg.Profit.Partials[0].Fraction != 0.3 {
		t.Fatalf("document partials must replace the stock ones, got %+v", cfg.Profit.Partials)
	}
}
