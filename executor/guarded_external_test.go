package executor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evdnx/goldpilot/executor"
	"github.com/evdnx/goldpilot/testutils"
	"github.com/evdnx/goldpilot/types"
)

func TestGuardedPassesThroughAndTrips(t *testing.T) {
	mock := testutils.NewMockExecutor(5000)
	log := testutils.NewMockLogger()
	g := executor.NewGuarded(mock, "mock", 2, time.Minute, log)
	ctx := context.Background()

	o := types.Order{ID: "1", Symbol: "XAUUSD", Side: types.Sell, Qty: 0.2, Price: 2300}
	rep, err := g.Submit(ctx, o)
	require.NoError(t, err)
	assert.Equal(t, "1", rep.OrderID)
	qty, _ := g.Position("XAUUSD")
	assert.Equal(t, -0.2, qty)
	assert.Equal(t, 5000.0, g.Equity())

	mock.Err = errors.New("bridge down")
	for i := 0; i < 2; i++ {
		_, err = g.Submit(ctx, o)
		assert.EqualError(t, err, "bridge down")
	}
	assert.Equal(t, gobreaker.StateOpen, g.State())
	assert.Equal(t, "breaker_state_change", log.LastMessage())

	_, err = g.Submit(ctx, o)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Len(t, mock.Orders(), 1)
}
