// Package bus is an in-process publish/subscribe medium with named channels.
// Each subscriber owns an independent FIFO buffer, so delivery order within
// one subscription matches publish order while subscribers never block each
// other. Delivery is best-effort: a subscriber whose buffer is full misses
// messages instead of stalling the publisher.
package bus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrClosed reports that the subscription or the whole bus was torn down.
	ErrClosed = errors.New("bus: subscription closed")
	// ErrTimeout reports an empty poll; callers loop and poll again.
	ErrTimeout = errors.New("bus: poll timeout")
)

// DefaultBuffer is the per-subscription queue depth.
const DefaultBuffer = 64

// Bus fans published payloads out to every active subscription of a channel.
type Bus struct {
	mu     sync.Mutex
	subs   map[string]map[uuid.UUID]*Subscription
	buffer int
	closed bool
	log    zerolog.Logger
}

// New creates a bus whose subscriptions buffer up to buffer payloads each.
// A buffer of zero or less uses DefaultBuffer.
func New(buffer int, log zerolog.Logger) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Bus{
		subs:   make(map[string]map[uuid.UUID]*Subscription),
		buffer: buffer,
		log:    log,
	}
}

// Publish delivers payload to every subscription currently on channel.
// Subscribers that joined after this call do not see the payload.
func (b *Bus) Publish(channel string, payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, s := range b.subs[channel] {
		select {
		case s.ch <- payload:
		default:
			n := s.dropped.Add(1)
			b.log.Warn().
				Str("channel", channel).
				Str("subscription", s.id.String()).
				Uint64("dropped", n).
				Msg("subscriber buffer full, message dropped")
		}
	}
}

// Subscribe registers a new subscription on channel. The caller must call
// Unsubscribe when done; a leaked subscription keeps buffering messages.
func (b *Bus) Subscribe(channel string) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	s := &Subscription{
		id:      uuid.New(),
		channel: channel,
		ch:      make(chan []byte, b.buffer),
		bus:     b,
	}
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[uuid.UUID]*Subscription)
	}
	b.subs[channel][s.id] = s
	return s, nil
}

// SubscriberCount reports the number of active subscriptions on channel.
func (b *Bus) SubscriberCount(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[channel])
}

// Close tears the bus down; every open subscription starts returning ErrClosed.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, chans := range b.subs {
		for _, s := range chans {
			close(s.ch)
		}
	}
	b.subs = nil
}

// remove detaches s; payloads already buffered remain readable until drained.
func (b *Bus) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	if chans, ok := b.subs[s.channel]; ok {
		if _, ok := chans[s.id]; ok {
			delete(chans, s.id)
			close(s.ch)
			if len(chans) == 0 {
				delete(b.subs, s.channel)
			}
		}
	}
}

// Subscription is a single consumer's handle on one channel. It is owned by
// one goroutine; Next must not be called concurrently.
type Subscription struct {
	id      uuid.UUID
	channel string
	ch      chan []byte
	bus     *Bus
	once    sync.Once
	dropped atomic.Uint64
}

// ID identifies the subscription in logs.
func (s *Subscription) ID() string { return s.id.String() }

// Next blocks until a payload arrives, wait elapses (ErrTimeout), ctx is
// done (ctx.Err), or the subscription is closed (ErrClosed). The bounded
// wait keeps consumer loops responsive to cancellation.
func (s *Subscription) Next(ctx context.Context, wait time.Duration) ([]byte, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case payload, ok := <-s.ch:
		if !ok {
			return nil, ErrClosed
		}
		return payload, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrTimeout
	}
}

// Unsubscribe detaches the subscription. It is idempotent and safe to call
// from a goroutine other than the consumer.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() { s.bus.remove(s) })
}

// Dropped reports how many payloads were discarded because the buffer was full.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }
