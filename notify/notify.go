// Package notify delivers state-change events (recovery level, emergency
// stop, volume pace, day rollover) to whoever needs to hear about them.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/evdnx/goldpilot/logger"
)

type Kind string

const (
	KindRecoveryLevel    Kind = "recovery.level"
	KindEmergencyStop    Kind = "recovery.emergency_stop"
	KindEmergencyCleared Kind = "recovery.emergency_cleared"
	KindPace             Kind = "volume.pace"
	KindRollover         Kind = "day.rollover"
)

type Severity string

const (
	Info     Severity = "info"
	Warning  Severity = "warning"
	Critical Severity = "critical"
)

type Event struct {
	ID       string            `json:"id"`
	Time     time.Time         `json:"time"`
	Kind     Kind              `json:"kind"`
	Severity Severity          `json:"severity"`
	Symbol   string            `json:"symbol"`
	Message  string            `json:"message"`
	Attrs    map[string]string `json:"attrs,omitempty"`
}

// NewEvent stamps a fresh identifier on an event.
func NewEvent(at time.Time, kind Kind, sev Severity, symbol, msg string, attrs map[string]string) Event {
	return Event{
		ID:       uuid.NewString(),
		Time:     at,
		Kind:     kind,
		Severity: sev,
		Symbol:   symbol,
		Message:  msg,
		Attrs:    attrs,
	}
}

type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Nop discards everything.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

// Log writes events to a logger at a level matching their severity.
type Log struct {
	Log logger.Logger
}

func (l Log) Notify(_ context.Context, e Event) error {
	fields := []logger.Field{
		logger.String("event_id", e.ID),
		logger.String("kind", string(e.Kind)),
		logger.String("symbol", e.Symbol),
		logger.Time("at", e.Time),
	}
	for k, v := range e.Attrs {
		fields = append(fields, logger.String(k, v))
	}
	switch e.Severity {
	case Critical:
		l.Log.Error(e.Message, fields...)
	case Warning:
		l.Log.Warn(e.Message, fields...)
	default:
		l.Log.Info(e.Message, fields...)
	}
	return nil
}

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, e Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
