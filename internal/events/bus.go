// Package events is the one-directional boundary between capture engines and
// the controller that persists what they produce.
package events

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Event is anything published on a Bus.
type Event interface {
	Topic() string
}

// Handler receives events for one topic.
type Handler func(Event) error

// Bus is a synchronous publish/subscribe hub. Handlers run on the publisher's
// goroutine in subscription order.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string][]subscription
	log    *slog.Logger
}

type subscription struct {
	id int
	h  Handler
}

func NewBus(log *slog.Logger) *Bus {
	if log == nil {
		log = slog.Default()
	}
	return &Bus{subs: make(map[string][]subscription), log: log}
}

// Subscribe registers h for topic and returns a function removing it.
func (b *Bus) Subscribe(topic string, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, h: h})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[topic]
		for i, s := range list {
			if s.id == id {
				b.subs[topic] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers e to every subscriber of its topic. All handlers run even
// when one fails; the failures are joined.
func (b *Bus) Publish(e Event) error {
	b.mu.RLock()
	list := append([]subscription(nil), b.subs[e.Topic()]...)
	b.mu.RUnlock()

	if len(list) == 0 {
		b.log.Debug("event dropped, no subscribers", "topic", e.Topic())
		return nil
	}

	var errs []error
	for _, s := range list {
		if err := s.h(e); err != nil {
			b.log.Warn("event handler failed", "topic", e.Topic(), "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// On subscribes a handler typed to the concrete event. Events of another type
// published on the same topic are rejected with an error.
func On[T Event](b *Bus, topic string, fn func(T) error) func() {
	return b.Subscribe(topic, func(e Event) error {
		v, ok := e.(T)
		if !ok {
			return fmt.Errorf("topic %q: unexpected event %T", topic, e)
		}
		return fn(v)
	})
}
