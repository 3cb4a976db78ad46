package indicator

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/evdnx/goldpilot/types"
)

// ErrInvalidInput marks a snapshot that cannot be classified (NaN, Inf,
// negative magnitudes). The cycle that received it abstains.
var ErrInvalidInput = errors.New("invalid indicator input")

// ErrNotReady is returned by feeds that have not seen enough bars yet.
var ErrNotReady = errors.New("indicator not ready")

// Values are the indicator readings for one timeframe.
type Values struct {
	ADX     float64 `json:"adx"`
	PlusDI  float64 `json:"plus_di"`
	MinusDI float64 `json:"minus_di"`
	ATR     float64 `json:"atr"`
	// ATRMean is the rolling mean of ATR the volatility bands are measured against.
	ATRMean float64 `json:"atr_mean"`
	RSI     float64 `json:"rsi"`
	// BandWidth is (upper-lower)/middle of the Bollinger bands.
	BandWidth float64 `json:"band_width"`
	// BandPosition is %b: 0 at the lower band, 1 at the upper band.
	BandPosition float64 `json:"band_position"`
	Close        float64 `json:"close"`
}

// Validate rejects values the regime rules cannot work with.
func (v Values) Validate() error {
	named := []struct {
		name string
		val  float64
		min  float64
	}{
		{"adx", v.ADX, 0}, {"plus_di", v.PlusDI, 0}, {"minus_di", v.MinusDI, 0},
		{"atr", v.ATR, 0}, {"atr_mean", v.ATRMean, 0}, {"rsi", v.RSI, 0},
		{"band_width", v.BandWidth, 0}, {"close", v.Close, 0},
	}
	for _, f := range named {
		if math.IsNaN(f.val) || math.IsInf(f.val, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidInput, f.name)
		}
		if f.val < f.min {
			return fmt.Errorf("%w: %s is negative (%v)", ErrInvalidInput, f.name, f.val)
		}
	}
	if v.RSI > 100 {
		return fmt.Errorf("%w: rsi above 100 (%v)", ErrInvalidInput, v.RSI)
	}
	if math.IsNaN(v.BandPosition) || math.IsInf(v.BandPosition, 0) {
		return fmt.Errorf("%w: band_position is not finite", ErrInvalidInput)
	}
	return nil
}

// Snapshot is one evaluation cycle's indicator readings across timeframes.
type Snapshot struct {
	At     time.Time                  `json:"at"`
	Frames map[types.Timeframe]Values `json:"frames"`
}

// Validate checks every timeframe; the first failure is returned.
func (s Snapshot) Validate() error {
	if len(s.Frames) == 0 {
		return fmt.Errorf("%w: no timeframes", ErrInvalidInput)
	}
	for _, tf := range s.Timeframes() {
		if tf <= 0 {
			return fmt.Errorf("%w: unknown timeframe", ErrInvalidInput)
		}
		if err := s.Frames[tf].Validate(); err != nil {
			return fmt.Errorf("%s: %w", tf, err)
		}
	}
	return nil
}

// Timeframes returns the snapshot's timeframes from lowest to highest.
func (s Snapshot) Timeframes() []types.Timeframe {
	out := make([]types.Timeframe, 0, len(s.Frames))
	for tf := range s.Frames {
		out = append(out, tf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Highest returns the values of the highest timeframe present.
func (s Snapshot) Highest() (types.Timeframe, Values, bool) {
	tfs := s.Timeframes()
	if len(tfs) == 0 {
		return 0, Values{}, false
	}
	tf := tfs[len(tfs)-1]
	return tf, s.Frames[tf], true
}

// Lowest returns the values of the lowest timeframe present.
func (s Snapshot) Lowest() (types.Timeframe, Values, bool) {
	tfs := s.Timeframes()
	if len(tfs) == 0 {
		return 0, Values{}, false
	}
	return tfs[0], s.Frames[tfs[0]], true
}
