package engine

import (
	"context"
	"time"

	"github.com/evdnx/goldpilot/logger"
)

// Source supplies the next tick. Sink receives every decision.
type (
	Source func(ctx context.Context) (Tick, error)
	Sink   func(ctx context.Context, d Decision) error
)

// Run evaluates once per market_analysis_interval until ctx is done. A
// source error skips the cycle; a sink error is logged.
func (e *Engine) Run(ctx context.Context, src Source, sink Sink) error {
	interval := time.Duration(e.cfg.MarketAnalysisInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		t, err := src(ctx)
		if err != nil {
			e.log.Warn("tick_source_failed", logger.Err(err))
			continue
		}
		d := e.Evaluate(ctx, t)
		if err := sink(ctx, d); err != nil {
			e.log.Error("decision_sink_failed", logger.String("action", d.Action.String()), logger.Err(err))
		}
	}
}
