package recovery

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evdnx/goldpilot/config"
)

func ladder(stop bool) *Machine {
	rec := config.RecoveryConfig{BaseLot: 0.1, Multiplier: 1.5, MaxLevels: 5, EmergencyStopEnabled: &stop, CorrelationLimit: 0.8}
	risk := config.RiskConfig{MaxDrawdownPercent: 20, MaxDailyLoss: 1000, MaxTotalExposure: 5}
	return New(rec, risk)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestLadderClimbsAndRecovers(t *testing.T) {
	m := ladder(true)
	assert.True(t, dec("0.1").Equal(m.Size()))

	want := []string{"0.15", "0.225", "0.3375"}
	for i, w := range want {
		tr := m.OnClose(-10)
		assert.Equal(t, i+1, tr.ToLevel)
		assert.Equal(t, Recovering, tr.To)
		assert.True(t, dec(w).Equal(m.Size()), "level %d size %s", i+1, m.Size())
	}
	assert.True(t, dec("30").Equal(m.Ledger().CumulativeLoss))

	tr := m.OnClose(30)
	assert.Equal(t, Transition{From: Recovering, To: Flat, FromLevel: 3, ToLevel: 0}, tr)
	assert.True(t, m.Ledger().CumulativeLoss.IsZero())
	assert.True(t, dec("0.1").Equal(m.Size()))
}

func TestPartialProfitKeepsLevel(t *testing.T) {
	m := ladder(true)
	m.OnClose(-20)
	m.OnClose(-20)
	tr := m.OnClose(15)
	assert.False(t, tr.Changed())
	assert.Equal(t, 2, m.Level())
	assert.True(t, dec("25").Equal(m.Ledger().CumulativeLoss))
}

func TestEmergencyStopAtCeiling(t *testing.T) {
	m := ladder(true)
	for i := 0; i < 5; i++ {
		m.OnClose(-1)
	}
	require.Equal(t, 5, m.Level())
	tr := m.OnClose(-1)
	assert.Equal(t, EmergencyStop, tr.To)

	reason, ok := m.Gate()
	assert.False(t, ok)
	assert.Equal(t, ReasonEmergencyStop, reason)

	// a profitable close does not lift the stop
	m.OnClose(100)
	assert.Equal(t, EmergencyStop, m.Phase())

	tr, ok = m.Acknowledge()
	require.True(t, ok)
	assert.Equal(t, Flat, tr.To)
	_, ok = m.Gate()
	assert.True(t, ok)

	_, ok = m.Acknowledge()
	assert.False(t, ok)
}

func TestCeilingHoldsWithoutEmergencyStop(t *testing.T) {
	m := ladder(false)
	for i := 0; i < 8; i++ {
		m.OnClose(-1)
	}
	assert.Equal(t, 5, m.Level())
	assert.Equal(t, Recovering, m.Phase())
	assert.True(t, dec("0.759375").Equal(m.Size()))
	assert.True(t, dec("8").Equal(m.Ledger().CumulativeLoss))
}

func TestDailyLossAndDrawdownGates(t *testing.T) {
	m := ladder(false)
	m.OnClose(600)
	m.OnClose(-1600)
	reason, ok := m.Gate()
	assert.False(t, ok)
	assert.Equal(t, ReasonDailyLoss, reason)

	tr := m.ResetDay()
	assert.False(t, tr.Changed())
	_, ok = m.Gate()
	assert.True(t, ok)

	m.ObserveEquity(10_000)
	m.ObserveEquity(7_900)
	reason, ok = m.Gate()
	assert.False(t, ok)
	assert.Equal(t, ReasonDrawdown, reason)
	m.ObserveEquity(8_100)
	_, ok = m.Gate()
	assert.True(t, ok)
}

type fixedCorrelation float64

func (f fixedCorrelation) Correlation() float64 { return float64(f) }

func TestCorrelationGateOnlyWhileRecovering(t *testing.T) {
	stop := true
	m := New(config.RecoveryConfig{BaseLot: 0.1, Multiplier: 1.5, MaxLevels: 5, EmergencyStopEnabled: &stop, CorrelationLimit: 0.8},
		config.RiskConfig{MaxDrawdownPercent: 20, MaxDailyLoss: 1000},
		WithCorrelation(fixedCorrelation(0.9)))
	_, ok := m.Gate()
	assert.True(t, ok)
	m.OnClose(-5)
	reason, ok := m.Gate()
	assert.False(t, ok)
	assert.Equal(t, ReasonCorrelation, reason)

	// no correlation source: gate is inert
	n := ladder(true)
	n.OnClose(-5)
	_, ok = n.Gate()
	assert.True(t, ok)
}

func TestRolloverLiftsEmergencyStop(t *testing.T) {
	m := ladder(true)
	for i := 0; i < 6; i++ {
		m.OnClose(-1)
	}
	require.Equal(t, EmergencyStop, m.Phase())
	tr := m.ResetDay()
	assert.Equal(t, Flat, tr.To)
	assert.Equal(t, 0, m.Level())
}

func TestRestoreClampsLevel(t *testing.T) {
	m := ladder(true)
	m.Restore(Ledger{Phase: Recovering, Level: 9, CumulativeLoss: dec("12")})
	assert.Equal(t, 5, m.Level())
}
