package notify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/evdnx/goldpilot/logger"
)

// ErrClosed is returned by Async.Notify after Close.
var ErrClosed = errors.New("notifier closed")

// Async queues events for a background goroutine so callers never block on
// the downstream notifier. When the queue is full the event is dropped; drop
// warnings are sampled to at most one per interval.
type Async struct {
	next  Notifier
	log   logger.Logger
	queue chan Event

	mu     sync.RWMutex
	closed bool

	dropped  atomic.Int64
	dropWarn rate.Sometimes

	wg   sync.WaitGroup
	once sync.Once
}

func NewAsync(next Notifier, size int, log logger.Logger) *Async {
	if size <= 0 {
		size = 64
	}
	a := &Async{
		next:     next,
		log:      log,
		queue:    make(chan Event, size),
		dropWarn: rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}
	a.wg.Add(1)
	go a.run()
	return a
}

func (a *Async) run() {
	defer a.wg.Done()
	for e := range a.queue {
		if err := a.next.Notify(context.Background(), e); err != nil {
			a.log.Warn("notify_failed",
				logger.String("event_id", e.ID),
				logger.String("kind", string(e.Kind)),
				logger.Err(err),
			)
		}
	}
}

func (a *Async) Notify(_ context.Context, e Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.queue <- e:
	default:
		n := a.dropped.Add(1)
		a.dropWarn.Do(func() {
			a.log.Warn("notify_dropped",
				logger.String("event_id", e.ID),
				logger.String("kind", string(e.Kind)),
				logger.Int("dropped_total", int(n)),
			)
		})
	}
	return nil
}

// Dropped is the number of events lost to a full queue.
func (a *Async) Dropped() int64 { return a.dropped.Load() }

// Close stops accepting events and waits for the queue to drain or ctx to end.
func (a *Async) Close(ctx context.Context) error {
	a.once.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.queue)
		a.mu.Unlock()
	})
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
