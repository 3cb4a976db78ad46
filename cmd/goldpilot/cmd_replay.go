package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/evdnx/goldpilot/config"
	"github.com/evdnx/goldpilot/engine"
	"github.com/evdnx/goldpilot/executor"
	"github.com/evdnx/goldpilot/indicator"
	"github.com/evdnx/goldpilot/logger"
	"github.com/evdnx/goldpilot/metrics"
	"github.com/evdnx/goldpilot/notify"
	"github.com/evdnx/goldpilot/store"
	"github.com/evdnx/goldpilot/types"
)

type replayOptions struct {
	ticks           string
	equity          float64
	contractSize    float64
	leverage        float64
	breakerFailures uint32
	breakerTimeout  time.Duration
	metricsAddr     string
	redisAddr       string
	kafkaBrokers    []string
	kafkaTopic      string
}

var replayOpts replayOptions

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Feed recorded bars and ticks through the engine against a paper account",
	Long: `Feed a JSON-lines recording through the engine. Each line is one of

  {"type":"bar","bar":{"tf":"M1","time":"...","open":..,"high":..,"low":..,"close":..,"volume":..}}
  {"type":"tick","time":"...","bid":..,"ask":..}
  {"type":"ack","time":"..."}

Bars update the indicator feeds, ticks run a cycle, ack clears an emergency
stop. Every decision is printed as one JSON line.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := logger.NewZapLogger(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}

		in := cmd.InOrStdin()
		if replayOpts.ticks != "" && replayOpts.ticks != "-" {
			f, err := os.Open(replayOpts.ticks)
			if err != nil {
				return fmt.Errorf("open ticks: %w", err)
			}
			defer f.Close()
			in = f
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return runReplay(ctx, cfg, replayOpts, in, cmd.OutOrStdout(), log)
	},
}

func init() {
	f := replayCmd.Flags()
	f.StringVar(&replayOpts.ticks, "ticks", "-", "JSON-lines recording, - for stdin")
	f.Float64Var(&replayOpts.equity, "equity", 10000, "Starting paper equity")
	f.Float64Var(&replayOpts.contractSize, "contract-size", 100, "Units per lot")
	f.Float64Var(&replayOpts.leverage, "leverage", 100, "Account leverage")
	f.Uint32Var(&replayOpts.breakerFailures, "breaker-failures", 5, "Consecutive execution failures that open the breaker")
	f.DurationVar(&replayOpts.breakerTimeout, "breaker-timeout", 30*time.Second, "How long the breaker stays open")
	f.StringVar(&replayOpts.metricsAddr, "metrics-addr", "", "Serve /metrics and /status on this address")
	f.StringVar(&replayOpts.redisAddr, "redis-addr", "", "Persist the trading-day state in Redis at this address")
	f.StringSliceVar(&replayOpts.kafkaBrokers, "kafka-brokers", nil, "Publish state-change events to these Kafka brokers")
	f.StringVar(&replayOpts.kafkaTopic, "kafka-topic", "goldpilot.events", "Kafka topic for state-change events")
}

// record is one line of a recording.
type record struct {
	Type   string         `json:"type"`
	Bar    *indicator.Bar `json:"bar,omitempty"`
	Time   time.Time      `json:"time"`
	Bid    float64        `json:"bid"`
	Ask    float64        `json:"ask"`
	Spread float64        `json:"spread,omitempty"`
}

type replayer struct {
	cfg   *config.Config
	log   logger.Logger
	eng   *engine.Engine
	bars  *indicator.Builder
	exec  executor.Executor
	state store.Store
	out   *json.Encoder
}

func runReplay(ctx context.Context, cfg *config.Config, opts replayOptions, in io.Reader, out io.Writer, log logger.Logger) error {
	sinks := notify.Multi{notify.Log{Log: log}}
	if len(opts.kafkaBrokers) > 0 {
		k, err := notify.NewKafka(opts.kafkaBrokers, opts.kafkaTopic)
		if err != nil {
			return err
		}
		defer k.Close()
		sinks = append(sinks, k)
	}
	events := notify.NewAsync(sinks, 256, log)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := events.Close(closeCtx); err != nil {
			log.Warn("notify_close_failed", logger.Err(err))
		}
	}()

	eng, err := engine.New(cfg, engine.Deps{Log: log, Notifier: events})
	if err != nil {
		return err
	}
	bars, err := indicator.NewBuilder(cfg)
	if err != nil {
		return err
	}

	var state store.Store = store.NewMemory()
	if opts.redisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: opts.redisAddr})
		defer client.Close()
		state = store.NewRedis(client, "", 0)
	}
	if saved, ok, err := state.Load(ctx, cfg.Symbol); err != nil {
		log.Warn("state_load_failed", logger.Err(err))
	} else if ok {
		if err := eng.Restore(saved); err != nil {
			return err
		}
		log.Info("state_restored", logger.String("day", saved.Day))
	}

	paper := executor.NewPaperExecutor(opts.equity, opts.contractSize, opts.leverage, log)
	r := &replayer{
		cfg:   cfg,
		log:   log,
		eng:   eng,
		bars:  bars,
		exec:  executor.NewGuarded(paper, "paper", opts.breakerFailures, opts.breakerTimeout, log),
		state: state,
		out:   json.NewEncoder(out),
	}

	if opts.metricsAddr != "" {
		srv := newServer(opts.metricsAddr, eng, log)
		go srv.serve()
		defer srv.shutdown()
	}

	return r.run(ctx, in)
}

func (r *replayer) run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := r.handle(ctx, rec); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	return sc.Err()
}

func (r *replayer) handle(ctx context.Context, rec record) error {
	switch rec.Type {
	case "bar":
		if rec.Bar == nil {
			return errors.New("bar record without bar")
		}
		if err := r.bars.Add(*rec.Bar); err != nil {
			r.log.Warn("bar_rejected", logger.Time("at", rec.Bar.Time), logger.Err(err))
		}
		return nil
	case "tick":
		return r.tick(ctx, rec)
	case "ack":
		if err := r.eng.Acknowledge(ctx, rec.Time); err != nil && !errors.Is(err, engine.ErrNotStopped) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unknown record type %q", rec.Type)
	}
}

func (r *replayer) tick(ctx context.Context, rec record) error {
	snap, err := r.bars.Snapshot(rec.Time)
	if errors.Is(err, indicator.ErrNotReady) {
		r.log.Debug("indicators_warming_up", logger.Time("at", rec.Time))
		return nil
	}
	if err != nil {
		return err
	}
	spread := rec.Spread
	if spread == 0 {
		spread = rec.Ask - rec.Bid
	}
	t := engine.Tick{
		Time:       rec.Time,
		Bid:        rec.Bid,
		Ask:        rec.Ask,
		Spread:     spread,
		Indicators: snap,
		Equity:     r.exec.Equity(),
	}
	d := r.eng.Evaluate(ctx, t)
	if err := r.out.Encode(d); err != nil {
		return err
	}
	r.act(ctx, d, t)

	if err := r.state.Save(ctx, r.eng.Snapshot()); err != nil {
		r.log.Warn("state_save_failed", logger.Err(err))
	}
	return nil
}

// act sends the order a decision asks for and reports the fill back.
func (r *replayer) act(ctx context.Context, d engine.Decision, t engine.Tick) {
	o, ok := d.Order(r.cfg.Symbol)
	switch {
	case ok:
	case d.Action == engine.Close:
		pos, _ := r.exec.Position(r.cfg.Symbol)
		if pos == 0 {
			return
		}
		o = types.Order{ID: uuid.NewString(), Symbol: r.cfg.Symbol, Side: types.Sell, Qty: pos, Price: t.Bid, Comment: "CLOSE"}
		if pos < 0 {
			o.Side, o.Qty, o.Price = types.Buy, -pos, t.Ask
		}
	default:
		return
	}

	rep, err := r.exec.Submit(ctx, o)
	if err != nil {
		metrics.OrdersFailed.WithLabelValues(o.Strategy.String()).Inc()
		r.log.Warn("order_failed", logger.String("order_id", o.ID), logger.Err(err))
		if d.Action != engine.Open {
			r.eng.CloseFailed(t.Time)
		}
		return
	}
	metrics.OrdersSubmitted.WithLabelValues(o.Strategy.String()).Inc()
	if rep.Closed > 0 {
		r.eng.OnClose(ctx, engine.Closed{Time: t.Time, Side: o.Side.Opposite(), Lots: rep.Closed, Profit: rep.Realized})
	}
	if opened := rep.Qty - rep.Closed; opened > 1e-9 {
		r.eng.OnFill(ctx, engine.Fill{Time: t.Time, Side: o.Side, Lots: opened, Price: rep.Price, Strategy: o.Strategy})
	}
}
