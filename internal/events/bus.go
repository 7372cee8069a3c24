package events

import (
	"log/slog"
	"sync"
)

// Well-known channels published by the state and sync layers.
const (
	StateChanged = "state:changed"
	SyncStarted  = "sync:started"
	SyncSuccess  = "sync:success"
	SyncFailed   = "sync:failed"
	SyncDomain   = "sync:domain"
)

// StateKey returns the per-key channel published alongside StateChanged.
func StateKey(key string) string {
	return "state:" + key
}

// Handler receives a published payload.
type Handler func(payload any)

// Publisher is the write side of the bus. Components that only emit
// notifications should depend on this rather than *Bus.
type Publisher interface {
	Publish(channel string, payload any)
}

var _ Publisher = (*Bus)(nil)

type subscription struct {
	id      uint64
	handler Handler
	once    bool
}

// Bus is a channel-keyed publish/subscribe hub. Handlers run synchronously on
// the publishing goroutine, in subscription order.
type Bus struct {
	mu       sync.Mutex
	nextID   uint64
	channels map[string][]*subscription
	logger   *slog.Logger
}

// NewBus returns an empty bus. A nil logger uses slog.Default().
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		channels: make(map[string][]*subscription),
		logger:   logger,
	}
}

// Subscribe registers handler on channel and returns a func that removes it.
// The returned func is safe to call more than once.
func (b *Bus) Subscribe(channel string, handler Handler) func() {
	return b.add(channel, handler, false)
}

// SubscribeOnce registers a handler that is removed before its first
// invocation.
func (b *Bus) SubscribeOnce(channel string, handler Handler) func() {
	return b.add(channel, handler, true)
}

func (b *Bus) add(channel string, handler Handler, once bool) func() {
	if handler == nil {
		return func() {}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.channels == nil {
		b.channels = make(map[string][]*subscription)
	}
	b.nextID++
	sub := &subscription{id: b.nextID, handler: handler, once: once}
	b.channels[channel] = append(b.channels[channel], sub)
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.removeLocked(channel, sub.id)
	}
}

// removeLocked drops the subscription and deletes the channel once empty.
// It reports whether the subscription was still present.
func (b *Bus) removeLocked(channel string, id uint64) bool {
	subs := b.channels[channel]
	for i, sub := range subs {
		if sub.id != id {
			continue
		}
		rest := make([]*subscription, 0, len(subs)-1)
		rest = append(rest, subs[:i]...)
		rest = append(rest, subs[i+1:]...)
		if len(rest) == 0 {
			delete(b.channels, channel)
		} else {
			b.channels[channel] = rest
		}
		return true
	}
	return false
}

// Publish delivers payload to every handler subscribed to channel at the time
// of the call. A panicking handler is logged and skipped; the remaining
// handlers still run.
func (b *Bus) Publish(channel string, payload any) {
	b.mu.Lock()
	subs := b.channels[channel]
	b.mu.Unlock()

	for _, sub := range subs {
		if sub.once {
			b.mu.Lock()
			removed := b.removeLocked(channel, sub.id)
			b.mu.Unlock()
			if !removed {
				// Already consumed by a concurrent publish.
				continue
			}
		}
		b.invoke(channel, sub.handler, payload)
	}
}

func (b *Bus) invoke(channel string, handler Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			logger := b.logger
			if logger == nil {
				logger = slog.Default()
			}
			logger.Error("event handler panicked", "channel", channel, "panic", r)
		}
	}()
	handler(payload)
}

// UnsubscribeAll removes every handler on channel.
func (b *Bus) UnsubscribeAll(channel string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.channels, channel)
}

// Count returns the number of handlers currently subscribed to channel.
func (b *Bus) Count(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.channels[channel])
}
