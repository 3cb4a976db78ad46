// Package strategy decides the entry direction of each strategy variant
// from the indicator readings of the entry timeframe.
package strategy

import (
	"github.com/evdnx/goldpilot/config"
	"github.com/evdnx/goldpilot/indicator"
	"github.com/evdnx/goldpilot/types"
)

// ReasonNoSignal is the abstain reason when no candidate has a direction.
const ReasonNoSignal = "signal:none"

// Signal maps indicator values to an entry side. ok is false when the
// variant has no opinion.
type Signal interface {
	Side(v indicator.Values) (side types.Side, ok bool)
}

// Book holds one Signal per strategy variant.
type Book struct {
	signals map[types.Strategy]Signal
}

// NewBook builds the signal for every variant.
func NewBook(aux config.AuxiliaryConfig) *Book {
	osc := oscillator{overbought: aux.RSIOverbought, oversold: aux.RSIOversold}
	return &Book{signals: map[types.Strategy]Signal{
		types.TrendFollowing: trendFollowing{},
		types.MeanReversion:  meanReversion{osc},
		types.BreakoutFalse:  falseBreakout{},
		types.NewsReaction:   newsReaction{},
		types.ScalpingFast:   bandScalp{edge: 0.2},
		types.GridEntry:      grid{},
	}}
}

// Pick walks candidates in rank order and returns the first with a side.
func (b *Book) Pick(candidates []types.Strategy, v indicator.Values) (types.Strategy, types.Side, bool) {
	for _, st := range candidates {
		sig, ok := b.signals[st]
		if !ok {
			continue
		}
		if side, ok := sig.Side(v); ok {
			return st, side, true
		}
	}
	return 0, "", false
}

type oscillator struct {
	overbought, oversold float64
}

func (o oscillator) stretched(rsi float64) int {
	switch {
	case rsi <= o.oversold:
		return -1
	case rsi >= o.overbought:
		return 1
	}
	return 0
}
