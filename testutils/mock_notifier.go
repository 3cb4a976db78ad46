package testutils

import (
	"context"
	"sync"

	"github.com/evdnx/goldpilot/notify"
)

// MockNotifier records every event it receives.
type MockNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *MockNotifier) Notify(_ context.Context, e notify.Event) error {
	n.mu.Lock()
	n.events = append(n.events, e)
	n.mu.Unlock()
	return nil
}

// Events returns a copy of the recorded events.
func (n *MockNotifier) Events() []notify.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Event(nil), n.events...)
}

// Kinds returns the kinds of the recorded events in order.
func (n *MockNotifier) Kinds() []notify.Kind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notify.Kind, len(n.events))
	for i, e := range n.events {
		out[i] = e.Kind
	}
	return out
}
