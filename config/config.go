package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/evdnx/goldpilot/types"
)

// ErrConfigInconsistency marks a document whose parts reference each other
// incorrectly (e.g. a session window with no profile). It is fatal at startup.
var ErrConfigInconsistency = errors.New("config inconsistency")

// Config is the full parameter surface of the controller. It is loaded once
// and treated as immutable for the process lifetime.
type Config struct {
	Symbol                 string            `yaml:"symbol" default:"XAUUSD" validate:"required"`
	Timeframes             []types.Timeframe `yaml:"timeframes" validate:"required,min=1,dive,gt=0"`
	MarketAnalysisInterval Seconds           `yaml:"market_analysis_interval" default:"1" validate:"gt=0"`
	LogLevel               string            `yaml:"log_level" default:"info" validate:"oneof=debug info warn error"`

	Regime          RegimeConfig     `yaml:"regime"`
	Auxiliary       AuxiliaryConfig  `yaml:"auxiliary"`
	Sessions        []SessionWindow  `yaml:"sessions" validate:"required,min=1,dive"`
	SessionProfiles []SessionProfile `yaml:"session_profiles" validate:"required,min=1,dive"`
	RateLimits      RateLimitConfig  `yaml:"rate_limits"`
	Recovery        RecoveryConfig   `yaml:"recovery"`
	Risk            RiskConfig       `yaml:"risk"`
	Volume          VolumeConfig     `yaml:"volume"`
	TradingLimits   TradingLimits    `yaml:"trading_limits"`
	TradingDay      TradingDayConfig `yaml:"trading_day"`
	Profit          ProfitConfig     `yaml:"profit"`
}

// Seconds is a whole number of seconds as written in the document.
type Seconds int

type RegimeConfig struct {
	TrendingThreshold float64 `yaml:"adx_trending_threshold" default:"25" validate:"gt=0"`
	RangingThreshold  float64 `yaml:"adx_ranging_threshold" default:"20" validate:"gt=0"`
	ATRPeriod         int     `yaml:"atr_period" default:"14" validate:"gt=0"`
	ATRMeanPeriod     int     `yaml:"atr_mean_period" default:"50" validate:"gt=0"`
	ADXPeriod         int     `yaml:"adx_period" default:"14" validate:"gt=0"`
	ATRMultiplierHigh float64 `yaml:"atr_multiplier_high" default:"1.5" validate:"gt=0"`
	ATRMultiplierLow  float64 `yaml:"atr_multiplier_low" default:"0.8" validate:"gt=0"`
}

type AuxiliaryConfig struct {
	RSIOverbought   float64 `yaml:"rsi_overbought" default:"70" validate:"gt=0,lte=100"`
	RSIOversold     float64 `yaml:"rsi_oversold" default:"30" validate:"gte=0,lt=100"`
	RSIPeriod       int     `yaml:"rsi_period" default:"14" validate:"gt=1"`
	BollingerPeriod int     `yaml:"bollinger_period" default:"20" validate:"gt=1"`
	BollingerStdDev float64 `yaml:"bollinger_stddev" default:"2" validate:"gt=0"`
	// SqueezeWidth is the band width (as a fraction of the middle band)
	// below which the bands count as squeezed.
	SqueezeWidth float64 `yaml:"squeeze_width" default:"0.004" validate:"gt=0"`
}

// SessionWindow is a named recurring time window. End before Start means the
// window wraps past midnight.
type SessionWindow struct {
	Name          string    `yaml:"name" validate:"required"`
	Start         TimeOfDay `yaml:"start"`
	End           TimeOfDay `yaml:"end"`
	UTCOffsetHrs  float64   `yaml:"utc_offset_hours" validate:"gte=-12,lte=14"`
	Weekdays      []int     `yaml:"weekdays" validate:"required,min=1,max=7,dive,gte=0,lte=6"`
	PeakHours     *Span     `yaml:"peak_hours,omitempty"`
	NewsBlackouts []Span    `yaml:"news_blackouts,omitempty"`
}

// Span is a [From, To) time-of-day range in the window's timezone.
type Span struct {
	From TimeOfDay `yaml:"from"`
	To   TimeOfDay `yaml:"to"`
}

type SessionProfile struct {
	Session             string                `yaml:"session" validate:"required"`
	Volatility          types.Volatility      `yaml:"volatility" validate:"gt=0"`
	PreferredStrategies []types.Strategy      `yaml:"preferred_strategies" validate:"required,min=1,dive,gt=0"`
	MaxSpread           float64               `yaml:"max_spread" validate:"gt=0"`
	SizeMultiplier      float64               `yaml:"size_multiplier" validate:"gt=0"`
	SignalFrequency     types.SignalFrequency `yaml:"signal_frequency" validate:"omitempty,oneof=LOW MEDIUM HIGH VERY_HIGH"`
}

type RateLimitConfig struct {
	MinEntryIntervalSeconds Seconds `yaml:"min_entry_interval_seconds" default:"10" validate:"gte=0"`
	SignalCooldownSeconds   Seconds `yaml:"signal_cooldown_seconds" default:"30" validate:"gte=0"`
	MaxPositionsPerHour     int     `yaml:"max_positions_per_hour" default:"50" validate:"gt=0"`
	MaxDailyTrades          int     `yaml:"max_daily_trades" default:"200" validate:"gt=0"`
}

type RecoveryConfig struct {
	BaseLot              float64 `yaml:"base_lot" default:"0.01" validate:"gt=0"`
	Multiplier           float64 `yaml:"recovery_multiplier" default:"1.5" validate:"gte=1"`
	MaxLevels            int     `yaml:"max_recovery_levels" default:"5" validate:"gte=1,lte=20"`
	EmergencyStopEnabled *bool   `yaml:"emergency_stop_enabled" default:"true"`
	// CorrelationLimit caps simultaneous recovering instruments whose
	// pairwise correlation exceeds it. Single-instrument deployments ignore it.
	CorrelationLimit float64 `yaml:"correlation_limit" default:"0.8" validate:"gte=0,lte=1"`
}

type RiskConfig struct {
	MaxDrawdownPercent float64 `yaml:"max_drawdown_percent" default:"20" validate:"gt=0,lte=100"`
	MaxDailyLoss       float64 `yaml:"max_daily_loss" default:"1000" validate:"gt=0"`
	MaxTotalExposure   float64 `yaml:"max_total_exposure" default:"5" validate:"gt=0"`
}

type VolumeConfig struct {
	DailyTargetMin  float64 `yaml:"daily_volume_target_min" default:"50" validate:"gte=0"`
	DailyTargetMax  float64 `yaml:"daily_volume_target_max" default:"100" validate:"gt=0"`
	MaxDailyVolume  float64 `yaml:"max_daily_volume" default:"120" validate:"gt=0"`
	RebatePerLot    float64 `yaml:"rebate_per_lot" default:"0" validate:"gte=0"`
	UrgentSizeBoost float64 `yaml:"urgent_size_boost" default:"1.2" validate:"gte=1"`
}

type TradingLimits struct {
	MaxPositionsPerSymbol int     `yaml:"max_positions_per_symbol" default:"10" validate:"gt=0"`
	MaxLotSize            float64 `yaml:"max_lot_size" default:"1" validate:"gt=0"`
	LotStep               float64 `yaml:"lot_step" default:"0.01" validate:"gt=0"`
	// CloseRetrySeconds is how long a sent CLOSE or take-profit is waited
	// on before it is asked for again.
	CloseRetrySeconds Seconds `yaml:"close_retry_seconds" default:"5" validate:"gt=0"`
}

// ProfitConfig drives the take-profit management of open legs. Pips are
// counted in PipSize price units.
type ProfitConfig struct {
	Enabled      *bool           `yaml:"enabled" default:"true"`
	PipSize      float64         `yaml:"pip_size" default:"0.1" validate:"gt=0"`
	TargetPips   float64         `yaml:"target_pips" default:"30" validate:"gte=0"`
	TrailingPips float64         `yaml:"trailing_pips" default:"15" validate:"gte=0"`
	Partials     []PartialTarget `yaml:"partial_targets" validate:"dive"`
}

// PartialTarget closes Fraction of the remaining leg once it is Pips in
// profit.
type PartialTarget struct {
	Pips     float64 `yaml:"pips" validate:"gt=0"`
	Fraction float64 `yaml:"fraction" validate:"gt=0,lte=1"`
}

// On reports whether open legs are managed at all.
func (p ProfitConfig) On() bool {
	return p.Enabled == nil || *p.Enabled
}

// TradingDayConfig anchors the broker's trading day: the day starts at
// RolloverHour in a fixed UTC offset.
type TradingDayConfig struct {
	UTCOffsetHrs *float64 `yaml:"utc_offset_hours" default:"2" validate:"required,gte=-12,lte=14"`
	RolloverHour int      `yaml:"rollover_hour" default:"0" validate:"gte=0,lte=23"`
}

// Location is the fixed zone the trading day is anchored in.
func (t TradingDayConfig) Location() *time.Location {
	off := 0.0
	if t.UTCOffsetHrs != nil {
		off = *t.UTCOffsetHrs
	}
	return FixedZone(off)
}

// EmergencyStop reports whether the ladder ceiling halts trading.
func (r RecoveryConfig) EmergencyStop() bool {
	return r.EmergencyStopEnabled == nil || *r.EmergencyStopEnabled
}

var validate = validator.New()

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes a YAML document, applies defaults and validates it.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.applyDefaults(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

func (c *Config) applyDefaults() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("apply defaults: %w", err)
	}
	if len(c.Timeframes) == 0 {
		c.Timeframes = []types.Timeframe{types.M1, types.M5, types.M15, types.H1}
	}
	if len(c.Sessions) == 0 && len(c.SessionProfiles) == 0 {
		c.Sessions = DefaultSessions()
		c.SessionProfiles = DefaultProfiles()
	}
	if c.Profit.Partials == nil {
		c.Profit.Partials = []PartialTarget{{Pips: 10, Fraction: 0.2}, {Pips: 20, Fraction: 0.4}}
	}
	return nil
}

// Default returns the stock configuration.
func Default() *Config {
	c := &Config{}
	if err := c.applyDefaults(); err != nil {
		panic(err)
	}
	return c
}

// Validate checks field ranges first, then the cross references between
// sections. Cross-reference failures wrap ErrConfigInconsistency.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s fails %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}
	if c.Regime.RangingThreshold >= c.Regime.TrendingThreshold {
		return fmt.Errorf("adx_ranging_threshold (%v) must be below adx_trending_threshold (%v)",
			c.Regime.RangingThreshold, c.Regime.TrendingThreshold)
	}
	if c.Regime.ATRMultiplierLow >= c.Regime.ATRMultiplierHigh {
		return fmt.Errorf("atr_multiplier_low (%v) must be below atr_multiplier_high (%v)",
			c.Regime.ATRMultiplierLow, c.Regime.ATRMultiplierHigh)
	}
	if c.Auxiliary.RSIOversold >= c.Auxiliary.RSIOverbought {
		return errors.New("rsi_oversold must be below rsi_overbought")
	}
	if c.Volume.DailyTargetMin > c.Volume.DailyTargetMax {
		return fmt.Errorf("daily_volume_target_min (%v) exceeds daily_volume_target_max (%v)",
			c.Volume.DailyTargetMin, c.Volume.DailyTargetMax)
	}
	if c.Recovery.BaseLot > c.TradingLimits.MaxLotSize {
		return fmt.Errorf("base_lot (%v) exceeds max_lot_size (%v)", c.Recovery.BaseLot, c.TradingLimits.MaxLotSize)
	}
	for i := 1; i < len(c.Profit.Partials); i++ {
		if c.Profit.Partials[i].Pips <= c.Profit.Partials[i-1].Pips {
			return fmt.Errorf("partial_targets must be in ascending pips (%v after %v)",
				c.Profit.Partials[i].Pips, c.Profit.Partials[i-1].Pips)
		}
	}
	return c.validateReferences()
}

func (c *Config) validateReferences() error {
	profiles := make(map[string]int, len(c.SessionProfiles))
	for _, p := range c.SessionProfiles {
		profiles[p.Session]++
	}
	windows := make(map[string]bool, len(c.Sessions))
	for _, w := range c.Sessions {
		if windows[w.Name] {
			return fmt.Errorf("%w: session window %q declared twice", ErrConfigInconsistency, w.Name)
		}
		windows[w.Name] = true
		switch profiles[w.Name] {
		case 0:
			return fmt.Errorf("%w: session window %q has no profile", ErrConfigInconsistency, w.Name)
		case 1:
		default:
			return fmt.Errorf("%w: session window %q has %d profiles", ErrConfigInconsistency, w.Name, profiles[w.Name])
		}
		if w.Start == w.End {
			return fmt.Errorf("%w: session window %q is empty", ErrConfigInconsistency, w.Name)
		}
	}
	for _, p := range c.SessionProfiles {
		if !windows[p.Session] {
			return fmt.Errorf("%w: profile references unknown session %q", ErrConfigInconsistency, p.Session)
		}
	}
	return nil
}

// Profile returns the profile for a session name.
func (c *Config) Profile(session string) (SessionProfile, bool) {
	for _, p := range c.SessionProfiles {
		if p.Session == session {
			return p, true
		}
	}
	return SessionProfile{}, false
}
