package strategy

import (
	"github.com/evdnx/goldpilot/indicator"
	"github.com/evdnx/goldpilot/types"
)

// trendFollowing trades in the direction of the dominant directional index.
type trendFollowing struct{}

func (trendFollowing) Side(v indicator.Values) (types.Side, bool) {
	switch {
	case v.PlusDI > v.MinusDI:
		return types.Buy, true
	case v.MinusDI > v.PlusDI:
		return types.Sell, true
	}
	return "", false
}

// falseBreakout fades a close outside the bands, betting the breakout fails.
type falseBreakout struct{}

func (falseBreakout) Side(v indicator.Values) (types.Side, bool) {
	switch {
	case v.BandPosition > 1:
		return types.Sell, true
	case v.BandPosition < 0:
		return types.Buy, true
	}
	return "", false
}

// newsReaction joins a volatile move once price and direction agree.
type newsReaction struct{}

func (newsReaction) Side(v indicator.Values) (types.Side, bool) {
	switch {
	case v.BandPosition >= 0.8 && v.PlusDI > v.MinusDI:
		return types.Buy, true
	case v.BandPosition <= 0.2 && v.MinusDI > v.PlusDI:
		return types.Sell, true
	}
	return "", false
}
