package selector

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evdnx/goldpilot/config"
	"github.com/evdnx/goldpilot/session"
	"github.com/evdnx/goldpilot/types"
)

var neutral = Auxiliary{RSI: 50, BandWidth: 0.02}

func newSelector(t *testing.T) *Selector {
	t.Helper()
	s, err := New(config.Default())
	require.NoError(t, err)
	return s
}

func TestCompatibilityIsTotal(t *testing.T) {
	regimes := []types.Regime{types.Trending, types.Ranging, types.VolatileHigh, types.VolatileLow}
	want := map[types.Strategy][]types.Regime{
		types.MeanReversion:  {types.Ranging, types.VolatileLow},
		types.TrendFollowing: {types.Trending},
		types.BreakoutFalse:  {types.VolatileHigh},
		types.NewsReaction:   {types.VolatileHigh},
		types.ScalpingFast:   {types.Ranging, types.VolatileLow},
		types.GridEntry:      {types.Ranging},
	}
	for _, st := range types.AllStrategies {
		for _, r := range regimes {
			assert.Equal(t, contains(want[st], r), Compatible(st, r), "%v/%v", st, r)
		}
	}
	assert.False(t, Compatible(types.Strategy(0), types.Ranging))
}

func contains(rs []types.Regime, r types.Regime) bool {
	for _, x := range rs {
		if x == r {
			return true
		}
	}
	return false
}

func TestSingleSession(t *testing.T) {
	sel := newSelector(t).Select(session.Set{"LONDON"}, types.Trending, neutral, 1.0)
	require.False(t, sel.Empty())
	assert.Equal(t, []types.Strategy{types.TrendFollowing}, sel.Candidates)
	assert.Equal(t, 1.2, sel.SizeMultiplier)
	assert.Equal(t, 2.0, sel.MaxSpread)
}

func TestOverlapUnionAndLimits(t *testing.T) {
	active := session.Set{"LONDON", "NEW_YORK", "OVERLAP"}
	sel := newSelector(t).Select(active, types.VolatileHigh, neutral, 0.5)
	assert.Equal(t, []types.Strategy{types.BreakoutFalse, types.NewsReaction}, sel.Candidates)
	assert.Equal(t, 1.5, sel.SizeMultiplier)
	assert.Equal(t, 1.0, sel.MaxSpread)
}

func TestSpreadGate(t *testing.T) {
	cfg := config.Default()
	for i := range cfg.SessionProfiles {
		if cfg.SessionProfiles[i].Session == "ASIAN" {
			cfg.SessionProfiles[i].MaxSpread = 3.0
		}
	}
	s, err := New(cfg)
	require.NoError(t, err)

	ok := s.Select(session.Set{"ASIAN"}, types.Ranging, neutral, 3.0)
	assert.False(t, ok.Empty())

	blocked := s.Select(session.Set{"ASIAN"}, types.Ranging, neutral, 3.01)
	assert.True(t, blocked.Empty())
	assert.Equal(t, ReasonSpreadExceeded, blocked.Reason)
}

func TestNoSessionAndIncompatible(t *testing.T) {
	s := newSelector(t)
	assert.Equal(t, ReasonNoSession, s.Select(nil, types.Ranging, neutral, 0).Reason)
	assert.Equal(t, ReasonIncompatible, s.Select(session.Set{"ASIAN"}, types.Trending, neutral, 0).Reason)
}

func TestAuxiliaryReordering(t *testing.T) {
	s := newSelector(t)
	base := s.Select(session.Set{"ASIAN"}, types.Ranging, neutral, 0)
	assert.Equal(t, []types.Strategy{types.MeanReversion, types.ScalpingFast, types.GridEntry}, base.Candidates)

	overlap := session.Set{"OVERLAP"}
	squeeze := s.Select(overlap, types.VolatileHigh, Auxiliary{RSI: 50, BandWidth: 0.001}, 0)
	assert.Equal(t, types.BreakoutFalse, squeeze.Candidates[0])

	cfg := config.Default()
	for i := range cfg.SessionProfiles {
		if cfg.SessionProfiles[i].Session == "ASIAN" {
			cfg.SessionProfiles[i].PreferredStrategies = []types.Strategy{types.GridEntry, types.ScalpingFast, types.MeanReversion}
		}
	}
	s2, err := New(cfg)
	require.NoError(t, err)
	oversold := s2.Select(session.Set{"ASIAN"}, types.Ranging, Auxiliary{RSI: 25, BandWidth: 0.02}, 0)
	assert.Equal(t, []types.Strategy{types.MeanReversion, types.GridEntry, types.ScalpingFast}, oversold.Candidates)
}

func TestNewRejectsMissingProfile(t *testing.T) {
	cfg := config.Default()
	cfg.SessionProfiles = cfg.SessionProfiles[1:]
	_, err := New(cfg)
	assert.True(t, errors.Is(err, config.ErrConfigInconsistency))
}
