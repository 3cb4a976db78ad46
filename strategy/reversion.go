package strategy

import (
	"github.com/evdnx/goldpilot/indicator"
	"github.com/evdnx/goldpilot/types"
)

// meanReversion buys oversold and sells overbought, by RSI or by a close
// beyond the bands.
type meanReversion struct {
	osc oscillator
}

func (m meanReversion) Side(v indicator.Values) (types.Side, bool) {
	switch {
	case m.osc.stretched(v.RSI) < 0 || v.BandPosition <= 0:
		return types.Buy, true
	case m.osc.stretched(v.RSI) > 0 || v.BandPosition >= 1:
		return types.Sell, true
	}
	return "", false
}

// bandScalp takes quick entries near either band.
type bandScalp struct {
	edge float64
}

func (b bandScalp) Side(v indicator.Values) (types.Side, bool) {
	switch {
	case v.BandPosition <= b.edge:
		return types.Buy, true
	case v.BandPosition >= 1-b.edge:
		return types.Sell, true
	}
	return "", false
}

// grid leans against the middle band: below it buys, above it sells.
type grid struct{}

func (grid) Side(v indicator.Values) (types.Side, bool) {
	switch {
	case v.BandPosition < 0.5:
		return types.Buy, true
	case v.BandPosition > 0.5:
		return types.Sell, true
	}
	return "", false
}
