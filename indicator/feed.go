package indicator

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/evdnx/goti"

	"github.com/evdnx/goldpilot/config"
	"github.com/evdnx/goldpilot/types"
)

// Bar is one closed OHLCV candle.
type Bar struct {
	Timeframe types.Timeframe `json:"tf"`
	Time      time.Time       `json:"time"`
	Open      float64         `json:"open"`
	High      float64         `json:"high"`
	Low       float64         `json:"low"`
	Close     float64         `json:"close"`
	Volume    float64         `json:"volume"`
}

func (b Bar) validate() error {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: bar field %v", ErrInvalidInput, v)
		}
	}
	if b.Low <= 0 {
		return fmt.Errorf("%w: low %v must be positive", ErrInvalidInput, b.Low)
	}
	if b.High < b.Low {
		return fmt.Errorf("%w: high %v below low %v", ErrInvalidInput, b.High, b.Low)
	}
	if b.Close < b.Low || b.Close > b.High {
		return fmt.Errorf("%w: close %v outside [%v, %v]", ErrInvalidInput, b.Close, b.Low, b.High)
	}
	return nil
}

// Feed turns a stream of bars for one timeframe into Values. ATR, the
// Bollinger middle band and RSI come from goti; ATRMean averages goti's ATR
// outputs. goti has no ADX, so +DI/-DI and ADX are Wilder-smoothed here.
type Feed struct {
	cfg *config.Config

	atr    *goti.AverageTrueRange
	middle *goti.MovingAverage
	rsi    *goti.RelativeStrengthIndex

	atrHist *window

	bars      int
	prevHigh  float64
	prevLow   float64
	prevClose float64

	dmTR, plusDM, minusDM wilder
	adx                   wilder
}

// NewFeed builds a feed using the regime and auxiliary settings of cfg.
func NewFeed(cfg *config.Config) (*Feed, error) {
	ic := goti.DefaultConfig()
	ic.RSIOverbought = cfg.Auxiliary.RSIOverbought
	ic.RSIOversold = cfg.Auxiliary.RSIOversold
	rsi, err := goti.NewRelativeStrengthIndexWithParams(cfg.Auxiliary.RSIPeriod, ic)
	if err != nil {
		return nil, fmt.Errorf("rsi: %w", err)
	}
	atr, err := goti.NewAverageTrueRangeWithParams(cfg.Regime.ATRPeriod)
	if err != nil {
		return nil, fmt.Errorf("atr: %w", err)
	}
	middle, err := goti.NewMovingAverage(goti.SMAMovingAverage, cfg.Auxiliary.BollingerPeriod)
	if err != nil {
		return nil, fmt.Errorf("bollinger middle: %w", err)
	}
	adxN := cfg.Regime.ADXPeriod
	return &Feed{
		cfg:     cfg,
		atr:     atr,
		middle:  middle,
		rsi:     rsi,
		atrHist: newWindow(cfg.Regime.ATRMeanPeriod),
		dmTR:    wilder{n: adxN},
		plusDM:  wilder{n: adxN},
		minusDM: wilder{n: adxN},
		adx:     wilder{n: adxN},
	}, nil
}

// Add feeds one closed bar.
func (f *Feed) Add(b Bar) error {
	if err := b.validate(); err != nil {
		return err
	}
	if err := f.atr.AddCandle(b.High, b.Low, b.Close); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := f.rsi.Add(b.Close); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := f.middle.Add(b.Close); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if v, err := f.atr.Calculate(); err == nil {
		f.atrHist.Add(v)
	}

	f.bars++
	if f.bars == 1 {
		f.prevHigh, f.prevLow, f.prevClose = b.High, b.Low, b.Close
		return nil
	}

	tr := math.Max(b.High-b.Low, math.Max(math.Abs(b.High-f.prevClose), math.Abs(b.Low-f.prevClose)))
	up := b.High - f.prevHigh
	down := f.prevLow - b.Low
	pdm, mdm := 0.0, 0.0
	if up > down && up > 0 {
		pdm = up
	}
	if down > up && down > 0 {
		mdm = down
	}
	f.dmTR.Add(tr)
	f.plusDM.Add(pdm)
	f.minusDM.Add(mdm)
	if f.plusDM.Ready() {
		pdi, mdi := f.directional()
		if sum := pdi + mdi; sum > 0 {
			f.adx.Add(100 * math.Abs(pdi-mdi) / sum)
		} else {
			f.adx.Add(0)
		}
	}

	f.prevHigh, f.prevLow, f.prevClose = b.High, b.Low, b.Close
	return nil
}

// directional returns +DI and -DI from the Wilder-smoothed DM and TR.
func (f *Feed) directional() (float64, float64) {
	trAvg := f.dmTR.Value()
	if trAvg <= 0 {
		return 0, 0
	}
	return 100 * f.plusDM.Value() / trAvg, 100 * f.minusDM.Value() / trAvg
}

// Ready reports whether every indicator has enough history.
func (f *Feed) Ready() bool {
	_, err := f.Values()
	return err == nil
}

// Values returns the current readings, or ErrNotReady until ADX and every
// goti indicator have produced a value.
func (f *Feed) Values() (Values, error) {
	if !f.adx.Ready() {
		return Values{}, fmt.Errorf("%w: adx after %d bars", ErrNotReady, f.bars)
	}
	atr, err := f.atr.Calculate()
	if err != nil {
		return Values{}, fmt.Errorf("%w: %v", ErrNotReady, err)
	}
	rsi, err := f.rsi.Calculate()
	if err != nil {
		return Values{}, fmt.Errorf("%w: %v", ErrNotReady, err)
	}
	mid, err := f.middle.Calculate()
	if err != nil {
		return Values{}, fmt.Errorf("%w: %v", ErrNotReady, err)
	}

	pdi, mdi := f.directional()
	v := Values{
		ADX:     f.adx.Value(),
		PlusDI:  pdi,
		MinusDI: mdi,
		ATR:     atr,
		ATRMean: f.atrHist.Mean(),
		RSI:     rsi,
		Close:   f.prevClose,
	}
	sd := stdDev(f.middle.GetValues(), mid)
	k := f.cfg.Auxiliary.BollingerStdDev
	upper, lower := mid+k*sd, mid-k*sd
	if mid > 0 {
		v.BandWidth = (upper - lower) / mid
	}
	v.BandPosition = 0.5
	if upper > lower {
		v.BandPosition = (v.Close - lower) / (upper - lower)
	}
	return v, nil
}

// Builder maintains one Feed per configured timeframe and assembles snapshots.
type Builder struct {
	mu    sync.Mutex
	feeds map[types.Timeframe]*Feed
}

// NewBuilder creates feeds for cfg.Timeframes.
func NewBuilder(cfg *config.Config) (*Builder, error) {
	b := &Builder{feeds: make(map[types.Timeframe]*Feed, len(cfg.Timeframes))}
	for _, tf := range cfg.Timeframes {
		f, err := NewFeed(cfg)
		if err != nil {
			return nil, err
		}
		b.feeds[tf] = f
	}
	return b, nil
}

// Add routes a bar to its timeframe's feed. Bars for unconfigured
// timeframes are ignored.
func (b *Builder) Add(bar Bar) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	f, ok := b.feeds[bar.Timeframe]
	if !ok {
		return nil
	}
	return f.Add(bar)
}

// Snapshot collects every ready timeframe. It fails with ErrNotReady only
// when no timeframe is ready.
func (b *Builder) Snapshot(at time.Time) (Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := Snapshot{At: at, Frames: make(map[types.Timeframe]Values, len(b.feeds))}
	for tf, f := range b.feeds {
		v, err := f.Values()
		if err != nil {
			continue
		}
		s.Frames[tf] = v
	}
	if len(s.Frames) == 0 {
		return Snapshot{}, ErrNotReady
	}
	return s, nil
}
