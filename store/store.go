// Package store persists the trading-day state between process restarts.
// It is used by the caller between evaluation cycles, never inside one.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/evdnx/goldpilot/pacer"
	"github.com/evdnx/goldpilot/profit"
	"github.com/evdnx/goldpilot/recovery"
	"github.com/evdnx/goldpilot/throttle"
	"github.com/evdnx/goldpilot/types"
)

// Exposure is the open book as seen through fills and closes.
type Exposure struct {
	Long      float64    `json:"long"`
	Short     float64    `json:"short"`
	Positions int        `json:"positions"`
	LongLeg   profit.Leg `json:"long_leg"`
	ShortLeg  profit.Leg `json:"short_leg"`
}

// Lots is the gross open exposure.
func (e Exposure) Lots() float64 { return e.Long + e.Short }

// Side returns the lots and profit state held on one side.
func (e *Exposure) Side(s types.Side) (*float64, *profit.Leg) {
	if s == types.Buy {
		return &e.Long, &e.LongLeg
	}
	return &e.Short, &e.ShortLeg
}

// DayState is everything needed to resume inside the same trading day.
type DayState struct {
	Symbol   string          `json:"symbol"`
	Day      string          `json:"day"`
	SavedAt  time.Time       `json:"saved_at"`
	Throttle throttle.State  `json:"throttle"`
	Recovery recovery.Ledger `json:"recovery"`
	Volume   pacer.Ledger    `json:"volume"`
	Exposure Exposure        `json:"exposure"`
}

type Store interface {
	Save(ctx context.Context, s DayState) error
	// Load returns false when nothing is stored for symbol.
	Load(ctx context.Context, symbol string) (DayState, bool, error)
}

// Redis keeps one JSON document per symbol.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = "goldpilot:day:"
	}
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (r *Redis) key(symbol string) string { return r.prefix + symbol }

func (r *Redis) Save(ctx context.Context, s DayState) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal day state: %w", err)
	}
	if err := r.client.Set(ctx, r.key(s.Symbol), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("save day state: %w", err)
	}
	return nil
}

func (r *Redis) Load(ctx context.Context, symbol string) (DayState, bool, error) {
	b, err := r.client.Get(ctx, r.key(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return DayState{}, false, nil
	}
	if err != nil {
		return DayState{}, false, fmt.Errorf("load day state: %w", err)
	}
	var s DayState
	if err := json.Unmarshal(b, &s); err != nil {
		return DayState{}, false, fmt.Errorf("decode day state: %w", err)
	}
	return s, true, nil
}

// Memory is an in-process Store for replays and tests.
type Memory struct {
	mu   sync.Mutex
	data map[string]DayState
}

func NewMemory() *Memory { return &Memory{data: make(map[string]DayState)} }

func (m *Memory) Save(_ context.Context, s DayState) error {
	m.mu.Lock()
	m.data[s.Symbol] = s
	m.mu.Unlock()
	return nil
}

func (m *Memory) Load(_ context.Context, symbol string) (DayState, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.data[symbol]
	return s, ok, nil
}
