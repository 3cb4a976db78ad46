package throttle

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evdnx/goldpilot/config"
	"github.com/evdnx/goldpilot/types"
)

var t0 = time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

func limits() config.RateLimitConfig {
	return config.RateLimitConfig{
		MinEntryIntervalSeconds: 10,
		SignalCooldownSeconds:   0,
		MaxPositionsPerHour:     50,
		MaxDailyTrades:          200,
	}
}

func TestMinInterval(t *testing.T) {
	l := New(limits())
	_, ok := l.Accept(t0, types.TrendFollowing)
	require.True(t, ok)

	reasons, ok := l.Accept(t0.Add(7*time.Second), types.MeanReversion)
	assert.False(t, ok)
	assert.Equal(t, []string{ReasonInterval}, reasons)

	_, ok = l.Accept(t0.Add(11*time.Second), types.MeanReversion)
	assert.True(t, ok)
}

func TestMinIntervalExactBoundary(t *testing.T) {
	for _, secs := range []int{1, 7, 10, 49, 98, 103, 3600} {
		t.Run(fmt.Sprintf("%ds", secs), func(t *testing.T) {
			cfg := limits()
			cfg.MinEntryIntervalSeconds = config.Seconds(secs)
			l := New(cfg)
			_, ok := l.Accept(t0, types.TrendFollowing)
			require.True(t, ok)

			spacing := time.Duration(secs) * time.Second
			assert.Equal(t, []string{ReasonInterval}, l.Check(t0.Add(spacing-time.Nanosecond), types.GridEntry))
			assert.Empty(t, l.Check(t0.Add(spacing), types.GridEntry))
		})
	}
}

func TestCooldownPerStrategy(t *testing.T) {
	cfg := limits()
	cfg.MinEntryIntervalSeconds = 0
	cfg.SignalCooldownSeconds = 30
	l := New(cfg)

	_, ok := l.Accept(t0, types.GridEntry)
	require.True(t, ok)
	assert.Equal(t, []string{ReasonCooldown}, l.Check(t0.Add(20*time.Second), types.GridEntry))
	assert.Empty(t, l.Check(t0.Add(20*time.Second), types.ScalpingFast))
	assert.Empty(t, l.Check(t0.Add(30*time.Second), types.GridEntry))
}

func TestHourlyWindowSlides(t *testing.T) {
	cfg := limits()
	cfg.MinEntryIntervalSeconds = 0
	cfg.MaxPositionsPerHour = 3
	l := New(cfg)
	for i := 0; i < 3; i++ {
		_, ok := l.Accept(t0.Add(time.Duration(i)*time.Minute), types.Strategy(i+1))
		require.True(t, ok)
	}
	assert.Contains(t, l.Check(t0.Add(59*time.Minute), types.GridEntry), ReasonHourly)
	// the first order leaves the window at exactly one hour
	assert.Empty(t, l.Check(t0.Add(time.Hour), types.GridEntry))
}

func TestDailyCapAndReset(t *testing.T) {
	cfg := limits()
	cfg.MinEntryIntervalSeconds = 0
	cfg.MaxDailyTrades = 2
	l := New(cfg)
	l.Accept(t0, types.TrendFollowing)
	l.Accept(t0.Add(time.Second), types.MeanReversion)

	reasons, ok := l.Accept(t0.Add(2*time.Second), types.GridEntry)
	assert.False(t, ok)
	assert.Equal(t, []string{ReasonDaily}, reasons)

	l.ResetDay()
	_, ok = l.Accept(t0.Add(3*time.Second), types.GridEntry)
	assert.True(t, ok)
}

func TestAllRulesReported(t *testing.T) {
	cfg := config.RateLimitConfig{MinEntryIntervalSeconds: 10, SignalCooldownSeconds: 30, MaxPositionsPerHour: 1, MaxDailyTrades: 1}
	l := New(cfg)
	l.Accept(t0, types.NewsReaction)
	got := l.Check(t0.Add(time.Second), types.NewsReaction)
	assert.Equal(t, []string{ReasonInterval, ReasonCooldown, ReasonHourly, ReasonDaily}, got)
}

func TestCheckDoesNotCommit(t *testing.T) {
	l := New(limits())
	assert.Empty(t, l.Check(t0, types.TrendFollowing))
	assert.Empty(t, l.Check(t0.Add(time.Second), types.TrendFollowing))
	assert.Equal(t, 0, l.State().Today)
}

func TestRestoreKeepsSpacing(t *testing.T) {
	l := New(limits())
	l.Accept(t0, types.TrendFollowing)
	s := l.State()

	r := New(limits())
	r.Restore(s)
	assert.Equal(t, 1, r.State().Today)
	assert.Contains(t, r.Check(t0.Add(5*time.Second), types.MeanReversion), ReasonInterval)
	assert.Empty(t, r.Check(t0.Add(10*time.Second), types.MeanReversion))
}
