// Package engine runs the per-cycle decision: sessions and regime pick the
// candidate strategies, then the rate limiter, the recovery machine and the
// volume pacer gate and size the entry, in that order.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/evdnx/goldpilot/config"
	"github.com/evdnx/goldpilot/logger"
	"github.com/evdnx/goldpilot/metrics"
	"github.com/evdnx/goldpilot/notify"
	"github.com/evdnx/goldpilot/pacer"
	"github.com/evdnx/goldpilot/profit"
	"github.com/evdnx/goldpilot/recovery"
	"github.com/evdnx/goldpilot/regime"
	"github.com/evdnx/goldpilot/selector"
	"github.com/evdnx/goldpilot/session"
	"github.com/evdnx/goldpilot/store"
	"github.com/evdnx/goldpilot/strategy"
	"github.com/evdnx/goldpilot/throttle"
	"github.com/evdnx/goldpilot/tradingday"
	"github.com/evdnx/goldpilot/types"
)

// ErrNotStopped is returned by Acknowledge when there is no emergency stop
// to clear.
var ErrNotStopped = errors.New("engine is not in emergency stop")

const (
	ReasonInvalidInput = "input:invalid"
	ReasonBlackout     = "news:blackout"
	ReasonPositions    = "limits:positions"
	ReasonExposure     = "risk:exposure"
	ReasonSizeZero     = "size:zero"
)

// Deps are the engine's collaborators. Nil fields get no-op defaults.
type Deps struct {
	Log         logger.Logger
	Notifier    notify.Notifier
	Correlation recovery.Correlation
}

type Engine struct {
	cfg      *config.Config
	log      logger.Logger
	notifier notify.Notifier

	sessions *session.Classifier
	regimes  *regime.Detector
	selector *selector.Selector
	book     *strategy.Book
	throttle *throttle.Limiter
	recovery *recovery.Machine
	pacer    *pacer.Pacer
	profit   *profit.Manager
	calendar tradingday.Calendar

	lotStep decimal.Decimal
	maxLot  decimal.Decimal
	retry   time.Duration

	// mu serializes cycles with fill and close handling.
	mu       sync.Mutex
	day      string
	last     time.Time
	exposure store.Exposure
	pace     pacer.Pace
	// pending holds the exits sent and not yet seen closed, by the side of
	// the leg they close. flattenKey is the emergency close of the book.
	pending map[types.Side]exit
}

type exit struct {
	at    time.Time
	stage int
}

const flattenKey types.Side = ""

// New validates cfg and wires the components. A configuration that fails
// cross-reference checks returns an error wrapping
// config.ErrConfigInconsistency; no engine exists to place orders.
func New(cfg *config.Config, deps Deps) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	sel, err := selector.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	if deps.Log == nil {
		deps.Log = logger.NewNop()
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.Nop{}
	}
	var recOpts []recovery.Option
	if deps.Correlation != nil {
		recOpts = append(recOpts, recovery.WithCorrelation(deps.Correlation))
	}
	return &Engine{
		cfg:      cfg,
		log:      deps.Log,
		notifier: deps.Notifier,
		sessions: session.New(cfg.Sessions),
		regimes:  regime.New(cfg.Regime),
		selector: sel,
		book:     strategy.NewBook(cfg.Auxiliary),
		throttle: throttle.New(cfg.RateLimits),
		recovery: recovery.New(cfg.Recovery, cfg.Risk, recOpts...),
		pacer:    pacer.New(cfg.Volume),
		profit:   profit.New(cfg.Profit),
		calendar: tradingday.New(cfg.TradingDay),
		lotStep:  decimal.NewFromFloat(cfg.TradingLimits.LotStep),
		maxLot:   decimal.NewFromFloat(cfg.TradingLimits.MaxLotSize),
		retry:    time.Duration(cfg.TradingLimits.CloseRetrySeconds) * time.Second,
		pending:  make(map[types.Side]exit),
	}, nil
}

// Evaluate runs one cycle and commits it: an OPEN is recorded by the rate
// limiter before Evaluate returns.
func (e *Engine) Evaluate(ctx context.Context, t Tick) Decision {
	return e.evaluate(ctx, t, true)
}

// Preview runs the same cycle without recording anything. Repeated previews
// of the same tick give the same decision.
func (e *Engine) Preview(ctx context.Context, t Tick) Decision {
	return e.evaluate(ctx, t, false)
}

func (e *Engine) evaluate(ctx context.Context, t Tick, commit bool) Decision {
	start := time.Now()
	e.mu.Lock()
	events := e.rollover(t.Time)
	d := e.decide(t, commit)
	if commit {
		if t.Time.After(e.last) {
			e.last = t.Time
		}
		events = append(events, e.trackPace(t.Time)...)
	}
	e.mu.Unlock()

	e.publish(ctx, events)
	if commit {
		e.observe(d, t)
		e.gauges()
		metrics.EvaluationSeconds.Observe(time.Since(start).Seconds())
	}
	return d
}

type cycle struct {
	d Decision
}

func (c *cycle) reason(r ...string) { c.d.Reasons = append(c.d.Reasons, r...) }

func (c *cycle) abstain(r ...string) Decision {
	c.reason(r...)
	c.d.Action = Abstain
	c.d.Side, c.d.Size = "", 0
	return c.d
}

func (e *Engine) decide(t Tick, commit bool) Decision {
	c := &cycle{d: Decision{At: t.Time, Action: Abstain, Pace: e.pace}}
	e.recovery.ObserveEquity(t.Equity)

	if e.recovery.Phase() == recovery.EmergencyStop {
		// re-sent every retry interval until the book is seen flat
		if lots := e.exposure.Lots(); lots > 0 && !e.inFlight(flattenKey, t.Time) {
			if commit {
				e.pending[flattenKey] = exit{at: t.Time}
			}
			c.reason(recovery.ReasonEmergencyStop)
			c.d.Action = Close
			c.d.Size = decimal.NewFromFloat(lots).Round(lotPrecision).InexactFloat64()
			return c.d
		}
		return c.abstain(recovery.ReasonEmergencyStop)
	}

	if d, ok := e.takeProfit(c, t, commit); ok {
		return d
	}

	if err := t.Indicators.Validate(); err != nil || math.IsNaN(t.Spread) || t.Spread < 0 {
		if err == nil {
			err = fmt.Errorf("%w: spread %v", errInvalidSpread, t.Spread)
		}
		e.log.Warn("invalid_indicator_input", logger.Time("at", t.Time), logger.Err(err))
		return c.abstain(ReasonInvalidInput)
	}

	active := e.sessions.Active(t.Time)
	c.d.Sessions = active
	for _, s := range active {
		c.reason("session:" + s)
	}
	if active.Empty() {
		return c.abstain(selector.ReasonNoSession)
	}
	if name, ok := e.sessions.Blackout(t.Time); ok {
		return c.abstain(ReasonBlackout + ":" + name)
	}

	res, err := e.regimes.Detect(t.Indicators)
	if err != nil {
		e.log.Warn("invalid_indicator_input", logger.Time("at", t.Time), logger.Err(err))
		return c.abstain(ReasonInvalidInput)
	}
	c.d.Regime = res.Consolidated
	c.reason("regime:" + res.Consolidated.String())

	if excess := e.exposure.Lots() - e.cfg.Risk.MaxTotalExposure; excess > 1e-9 {
		c.reason(ReasonExposure)
		c.d.Action = Resize
		c.d.Side = types.Sell
		if e.exposure.Short > e.exposure.Long {
			c.d.Side = types.Buy
		}
		c.d.Size = e.roundUp(decimal.NewFromFloat(excess)).InexactFloat64()
		c.d.Price = priceFor(c.d.Side, t)
		return c.d
	}

	_, entry, _ := t.Indicators.Lowest()
	sel := e.selector.Select(active, res.Consolidated, selector.Auxiliary{RSI: entry.RSI, BandWidth: entry.BandWidth}, t.Spread)
	if sel.Empty() {
		return c.abstain(sel.Reason)
	}
	st, side, ok := e.book.Pick(sel.Candidates, entry)
	if !ok {
		return c.abstain(strategy.ReasonNoSignal)
	}
	c.d.Strategy = st
	c.reason("strategy:" + st.String())

	if e.exposure.Positions >= e.cfg.TradingLimits.MaxPositionsPerSymbol {
		return c.abstain(ReasonPositions)
	}

	// cheapest and most restrictive first; a throttled signal must not
	// reach the recovery machine
	if reasons := e.throttle.Check(t.Time, st); len(reasons) > 0 {
		return c.abstain(reasons...)
	}
	if reason, ok := e.recovery.Gate(); !ok {
		return c.abstain(reason)
	}
	c.reason(fmt.Sprintf("recovery:level=%d", e.recovery.Level()))

	pace := e.pacer.Pace(e.calendar.Elapsed(t.Time))
	c.d.Pace = pace
	c.reason("pace:" + pace.String())
	if pace == pacer.Throttle {
		return c.abstain(pacer.ReasonVolumeCap)
	}

	size := e.recovery.Size().
		Mul(decimal.NewFromFloat(sel.SizeMultiplier)).
		Mul(e.pacer.Boost(pace))
	size = decimal.Min(size, e.maxLot)
	headroom := decimal.NewFromFloat(e.cfg.Risk.MaxTotalExposure - e.exposure.Lots())
	size = e.roundDown(decimal.Min(size, headroom))
	if size.LessThan(e.lotStep) {
		return c.abstain(ReasonSizeZero)
	}
	if !e.pacer.Fits(size) {
		return c.abstain(pacer.ReasonVolumeCap)
	}

	if commit {
		if reasons, ok := e.throttle.Accept(t.Time, st); !ok {
			return c.abstain(reasons...)
		}
	}
	c.d.Action = Open
	c.d.Side = side
	c.d.Size = size.InexactFloat64()
	c.d.Price = priceFor(side, t)
	return c.d
}

var errInvalidSpread = errors.New("invalid spread")

// takeProfit marks both legs and sends the first exit one of them calls for.
// A leg whose exit is in flight is skipped until the retry interval passes.
func (e *Engine) takeProfit(c *cycle, t Tick, commit bool) (Decision, bool) {
	for _, held := range []types.Side{types.Buy, types.Sell} {
		lots, leg := e.exposure.Side(held)
		if *lots < 1e-9 || e.inFlight(held, t.Time) {
			continue
		}
		marked, x, ok := e.profit.Check(held, *leg, t.Bid, t.Ask)
		if commit {
			*leg = marked
		}
		if !ok {
			continue
		}
		size := decimal.NewFromFloat(*lots).Round(lotPrecision)
		action := Close
		if !x.Full() {
			part := e.roundDown(size.Mul(decimal.NewFromFloat(x.Fraction)))
			if part.LessThan(e.lotStep) {
				// too small to split, the step is spent
				if commit {
					leg.Stage = x.Stage
				}
				continue
			}
			if part.LessThan(size) {
				size, action = part, Resize
			}
		}
		if commit {
			e.pending[held] = exit{at: t.Time, stage: x.Stage}
		}
		c.reason(x.Reason)
		c.d.Action = action
		c.d.Side = held.Opposite()
		c.d.Size = size.InexactFloat64()
		c.d.Price = priceFor(c.d.Side, t)
		return c.d, true
	}
	return Decision{}, false
}

// inFlight reports whether an exit for key was sent less than the retry
// interval ago. Callers hold e.mu.
func (e *Engine) inFlight(key types.Side, now time.Time) bool {
	x, ok := e.pending[key]
	return ok && now.Sub(x.at) < e.retry
}

// lotPrecision drops float noise from exposure arithmetic before rounding
// to the lot step.
const lotPrecision = 8

func (e *Engine) roundDown(v decimal.Decimal) decimal.Decimal {
	if !v.IsPositive() {
		return decimal.Zero
	}
	return v.Round(lotPrecision).Div(e.lotStep).Floor().Mul(e.lotStep)
}

func (e *Engine) roundUp(v decimal.Decimal) decimal.Decimal {
	return v.Round(lotPrecision).Div(e.lotStep).Ceil().Mul(e.lotStep)
}

func priceFor(side types.Side, t Tick) float64 {
	if side == types.Buy {
		return t.Ask
	}
	return t.Bid
}

func (e *Engine) observe(d Decision, t Tick) {
	metrics.Decisions.WithLabelValues(d.Action.String()).Inc()
	fields := []logger.Field{
		logger.String("action", d.Action.String()),
		logger.Strings("reasons", d.Reasons),
		logger.Time("at", d.At),
	}
	if d.Action == Abstain {
		metrics.Abstains.WithLabelValues(d.Blocker()).Inc()
		e.log.Debug("decision", fields...)
		return
	}
	fields = append(fields,
		logger.String("side", string(d.Side)),
		logger.Float64("size", d.Size),
		logger.String("strategy", d.Strategy.String()),
		logger.Float64("spread", t.Spread),
	)
	e.log.Info("decision", fields...)
}

func (e *Engine) publish(ctx context.Context, events []notify.Event) {
	for _, ev := range events {
		if err := e.notifier.Notify(ctx, ev); err != nil {
			e.log.Warn("notify_failed", logger.String("kind", string(ev.Kind)), logger.Err(err))
		}
	}
}
