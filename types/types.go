package types

import "fmt"

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Opposite returns the side that flattens a position opened with s.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

type Order struct {
	ID       string // client order id
	Symbol   string
	Side     Side
	Qty      float64 // lots
	Price    float64 // limit price; 0 = market
	Strategy Strategy
	// meta
	Comment string
}

// Strategy is the closed set of entry strategy variants the selector can
// propose. The zero value is not a valid strategy.
type Strategy int

const (
	TrendFollowing Strategy = iota + 1
	MeanReversion
	BreakoutFalse
	NewsReaction
	ScalpingFast
	GridEntry
)

// AllStrategies lists every variant in declaration order.
var AllStrategies = []Strategy{
	TrendFollowing, MeanReversion, BreakoutFalse, NewsReaction, ScalpingFast, GridEntry,
}

func (s Strategy) String() string {
	switch s {
	case TrendFollowing:
		return "TREND_FOLLOWING"
	case MeanReversion:
		return "MEAN_REVERSION"
	case BreakoutFalse:
		return "BREAKOUT_FALSE"
	case NewsReaction:
		return "NEWS_REACTION"
	case ScalpingFast:
		return "SCALPING_FAST"
	case GridEntry:
		return "GRID_ENTRY"
	default:
		return "UNKNOWN"
	}
}

// ParseStrategy maps a configuration identifier onto the enumeration.
func ParseStrategy(s string) (Strategy, error) {
	for _, st := range AllStrategies {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown strategy %q", s)
}

// MarshalText lets strategies appear by name in YAML and JSON.
func (s Strategy) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Strategy) UnmarshalText(b []byte) error {
	v, err := ParseStrategy(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Regime is the per-cycle market classification.
type Regime int

const (
	Trending Regime = iota + 1
	Ranging
	VolatileHigh
	VolatileLow
)

func (r Regime) String() string {
	switch r {
	case Trending:
		return "TRENDING"
	case Ranging:
		return "RANGING"
	case VolatileHigh:
		return "VOLATILE_HIGH"
	case VolatileLow:
		return "VOLATILE_LOW"
	default:
		return "UNKNOWN"
	}
}

func (r Regime) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// Timeframe is a bar resolution. Values are ordered by duration so a larger
// value is always the higher timeframe.
type Timeframe int

const (
	M1 Timeframe = iota + 1
	M5
	M15
	M30
	H1
	H4
	D1
)

var timeframeNames = map[Timeframe]string{
	M1: "M1", M5: "M5", M15: "M15", M30: "M30", H1: "H1", H4: "H4", D1: "D1",
}

func (t Timeframe) String() string {
	if n, ok := timeframeNames[t]; ok {
		return n
	}
	return "UNKNOWN"
}

func ParseTimeframe(s string) (Timeframe, error) {
	for tf, n := range timeframeNames {
		if n == s {
			return tf, nil
		}
	}
	return 0, fmt.Errorf("unknown timeframe %q", s)
}

func (t Timeframe) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Timeframe) UnmarshalText(b []byte) error {
	v, err := ParseTimeframe(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Volatility is the ordinal volatility expectation of a session.
type Volatility int

const (
	VolatilityLow Volatility = iota + 1
	VolatilityHigh
	VolatilityVeryHigh
	VolatilityExtreme
)

var volatilityNames = map[Volatility]string{
	VolatilityLow: "LOW", VolatilityHigh: "HIGH", VolatilityVeryHigh: "VERY_HIGH", VolatilityExtreme: "EXTREME",
}

func (v Volatility) String() string {
	if n, ok := volatilityNames[v]; ok {
		return n
	}
	return "UNKNOWN"
}

func (v *Volatility) UnmarshalText(b []byte) error {
	for k, n := range volatilityNames {
		if n == string(b) {
			*v = k
			return nil
		}
	}
	return fmt.Errorf("unknown volatility %q", string(b))
}

func (v Volatility) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// SignalFrequency classifies how often a session is expected to fire signals.
type SignalFrequency string

const (
	FrequencyLow      SignalFrequency = "LOW"
	FrequencyMedium   SignalFrequency = "MEDIUM"
	FrequencyHigh     SignalFrequency = "HIGH"
	FrequencyVeryHigh SignalFrequency = "VERY_HIGH"
)
