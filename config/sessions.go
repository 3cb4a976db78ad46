package config

import "github.com/evdnx/goldpilot/types"

// bangkok is the offset the stock session table is written in.
const bangkok = 7.0

var weekdays = []int{1, 2, 3, 4, 5}

// DefaultSessions is the stock window table (GMT+7 wall clock).
func DefaultSessions() []SessionWindow {
	return []SessionWindow{
		{
			Name: "ASIAN", Start: NewTimeOfDay(22, 0, 0), End: NewTimeOfDay(8, 0, 0),
			UTCOffsetHrs: bangkok, Weekdays: weekdays,
			PeakHours: &Span{From: NewTimeOfDay(0, 0, 0), To: NewTimeOfDay(4, 0, 0)},
		},
		{
			Name: "LONDON", Start: NewTimeOfDay(15, 0, 0), End: NewTimeOfDay(0, 0, 0),
			UTCOffsetHrs: bangkok, Weekdays: weekdays,
			PeakHours: &Span{From: NewTimeOfDay(16, 0, 0), To: NewTimeOfDay(19, 0, 0)},
		},
		{
			Name: "NEW_YORK", Start: NewTimeOfDay(20, 30, 0), End: NewTimeOfDay(5, 30, 0),
			UTCOffsetHrs: bangkok, Weekdays: weekdays,
			PeakHours: &Span{From: NewTimeOfDay(21, 0, 0), To: NewTimeOfDay(1, 0, 0)},
		},
		{
			Name: "OVERLAP", Start: NewTimeOfDay(20, 30, 0), End: NewTimeOfDay(0, 0, 0),
			UTCOffsetHrs: bangkok, Weekdays: weekdays,
			PeakHours: &Span{From: NewTimeOfDay(21, 0, 0), To: NewTimeOfDay(23, 0, 0)},
		},
	}
}

// DefaultProfiles pairs one profile with every window in DefaultSessions.
func DefaultProfiles() []SessionProfile {
	return []SessionProfile{
		{
			Session:             "ASIAN",
			Volatility:          types.VolatilityLow,
			PreferredStrategies: []types.Strategy{types.MeanReversion, types.ScalpingFast, types.GridEntry},
			MaxSpread:           2.5,
			SizeMultiplier:      0.8,
			SignalFrequency:     types.FrequencyMedium,
		},
		{
			Session:             "LONDON",
			Volatility:          types.VolatilityHigh,
			PreferredStrategies: []types.Strategy{types.TrendFollowing, types.BreakoutFalse, types.NewsReaction},
			MaxSpread:           2.0,
			SizeMultiplier:      1.2,
			SignalFrequency:     types.FrequencyHigh,
		},
		{
			Session:             "NEW_YORK",
			Volatility:          types.VolatilityVeryHigh,
			PreferredStrategies: []types.Strategy{types.NewsReaction, types.TrendFollowing, types.BreakoutFalse},
			MaxSpread:           1.5,
			SizeMultiplier:      1.0,
			SignalFrequency:     types.FrequencyHigh,
		},
		{
			Session:             "OVERLAP",
			Volatility:          types.VolatilityExtreme,
			PreferredStrategies: []types.Strategy{types.BreakoutFalse, types.NewsReaction, types.ScalpingFast, types.TrendFollowing},
			MaxSpread:           1.0,
			SizeMultiplier:      1.5,
			SignalFrequency:     types.FrequencyVeryHigh,
		},
	}
}
