package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goldpilot_decisions_total",
			Help: "Evaluation cycles by resulting action.",
		},
		[]string{"action"},
	)

	Abstains = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goldpilot_abstain_total",
			Help: "Abstain decisions by blocking reason.",
		},
		[]string{"reason"},
	)

	OrdersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goldpilot_orders_submitted_total",
			Help: "Total number of orders submitted (by strategy).",
		},
		[]string{"strategy"},
	)

	OrdersFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goldpilot_orders_failed_total",
			Help: "Order submissions rejected by the executor or its breaker.",
		},
		[]string{"strategy"},
	)

	PositionsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "goldpilot_positions_open",
			Help: "Current number of open positions.",
		},
	)

	ExposureLots = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "goldpilot_exposure_lots",
			Help: "Open exposure in lots.",
		},
	)

	RecoveryLevel = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "goldpilot_recovery_level",
			Help: "Current recovery ladder level (0 = flat).",
		},
	)

	EmergencyStop = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "goldpilot_emergency_stop",
			Help: "1 while trading is halted by an emergency stop.",
		},
	)

	VolumeTraded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "goldpilot_volume_lots",
			Help: "Volume traded in the current trading day.",
		},
	)

	RebateAccrued = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "goldpilot_rebate_accrued",
			Help: "Rebate accrued in the current trading day.",
		},
	)

	Pace = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "goldpilot_volume_pace",
			Help: "1 for the current volume pace class.",
		},
		[]string{"pace"},
	)

	EquityGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "goldpilot_equity",
			Help: "Last observed account equity.",
		},
	)

	EvaluationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "goldpilot_evaluation_seconds",
			Help:    "Duration of one evaluation cycle.",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		},
	)
)

func init() {
	prometheus.MustRegister(
		Decisions, Abstains, OrdersSubmitted, OrdersFailed,
		PositionsOpen, ExposureLots, RecoveryLevel, EmergencyStop,
		VolumeTraded, RebateAccrued, Pace, EquityGauge, EvaluationSeconds,
	)
}

// SetPace marks exactly one pace class as current.
func SetPace(current string, all ...string) {
	for _, p := range all {
		v := 0.0
		if p == current {
			v = 1
		}
		Pace.WithLabelValues(p).Set(v)
	}
}
