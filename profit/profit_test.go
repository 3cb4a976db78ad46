package profit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evdnx/goldpilot/config"
	"github.com/evdnx/goldpilot/types"
)

func swing() config.ProfitConfig {
	return config.ProfitConfig{
		PipSize:      0.1,
		TargetPips:   30,
		TrailingPips: 15,
		Partials:     []config.PartialTarget{{Pips: 10, Fraction: 0.2}, {Pips: 20, Fraction: 0.4}},
	}
}

func TestLegAddWeightsEntry(t *testing.T) {
	l := Leg{}.Add(0, 0.1, 2350)
	assert.Equal(t, 2350.0, l.Entry)
	l = l.Add(0.1, 0.3, 2354)
	assert.InDelta(t, 2353, l.Entry, 1e-9)
	// unpriced fills keep the entry
	assert.Equal(t, l, l.Add(0.4, 0.1, 0))
}

func TestPipsPerSide(t *testing.T) {
	m := New(swing())
	assert.Equal(t, 10.0, m.Pips(types.Buy, 2350, 2351, 2351.3))
	assert.Equal(t, -3.0, m.Pips(types.Buy, 2350.3, 2350, 2350.3))
	assert.Equal(t, 7.0, m.Pips(types.Sell, 2351, 2350, 2350.3))
}

func TestCheckLadder(t *testing.T) {
	m := New(swing())
	cases := []struct {
		name   string
		side   types.Side
		leg    Leg
		bid    float64
		reason string
		frac   float64
	}{
		{"below first step", types.Buy, Leg{Entry: 2350}, 2350.9, "", 0},
		{"first partial", types.Buy, Leg{Entry: 2350}, 2351.0, "profit:partial=1", 0.2},
		{"second partial", types.Buy, Leg{Entry: 2350, Stage: 1}, 2352.05, "profit:partial=2", 0.4},
		{"partials used up", types.Buy, Leg{Entry: 2350, Stage: 2}, 2352.5, "", 0},
		{"full target", types.Buy, Leg{Entry: 2350}, 2353.0, "profit:target", 1},
		{"trailing after pullback", types.Buy, Leg{Entry: 2350, PeakPips: 28, Stage: 2}, 2351.3, "profit:trailing", 1},
		{"trail not armed", types.Buy, Leg{Entry: 2350, PeakPips: 14}, 2349.0, "", 0},
		{"short partial", types.Sell, Leg{Entry: 2352}, 2350.7, "profit:partial=1", 0.2},
		{"unpriced leg", types.Buy, Leg{}, 2400, "", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, x, ok := m.Check(tc.side, tc.leg, tc.bid, tc.bid+0.3)
			if tc.reason == "" {
				assert.False(t, ok, "got %+v", x)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tc.reason, x.Reason)
			assert.Equal(t, tc.frac, x.Fraction)
		})
	}
}

func TestCheckTracksPeak(t *testing.T) {
	m := New(swing())
	l, _, _ := m.Check(types.Buy, Leg{Entry: 2350, Stage: 2}, 2352.5, 2352.8)
	assert.Equal(t, 25.0, l.PeakPips)
	l, _, _ = m.Check(types.Buy, l, 2351, 2351.3)
	assert.Equal(t, 25.0, l.PeakPips)
}

func TestCheckDisabled(t *testing.T) {
	cfg := swing()
	off := false
	cfg.Enabled = &off
	_, _, ok := New(cfg).Check(types.Buy, Leg{Entry: 2350}, 2360, 2360.3)
	assert.False(t, ok)
}
