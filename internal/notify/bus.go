package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Bus is a channel-addressed pub/sub transport. The Redis PubSub in
// internal/store/redis satisfies it; LocalBus serves single-process setups.
type Bus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

// Publisher publishes toasts as JSON on one bus channel.
type Publisher struct {
	bus     Bus
	channel string
}

func NewPublisher(bus Bus, channel string) *Publisher {
	return &Publisher{bus: bus, channel: channel}
}

func (p *Publisher) Notify(ctx context.Context, t Toast) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("notify.Publisher.Notify: marshal: %w", err)
	}
	if err := p.bus.Publish(ctx, p.channel, payload); err != nil {
		return fmt.Errorf("notify.Publisher.Notify: %w", err)
	}
	return nil
}

// LocalBus is an in-process Bus. Publishing never blocks: a subscriber whose
// buffer is full misses the message.
type LocalBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan []byte
}

func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[string]map[int]chan []byte)}
}

func (b *LocalBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs[channel] {
		msg := make([]byte, len(payload))
		copy(msg, payload)
		select {
		case ch <- msg:
		default:
		}
	}
	return nil
}

// Subscribe registers a subscriber on channel. The returned channel is closed
// when ctx is done or cleanup is called.
func (b *LocalBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("notify.LocalBus.Subscribe: %w", err)
	}

	ch := make(chan []byte, 64)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[int]chan []byte)
	}
	b.subs[channel][id] = ch
	b.mu.Unlock()

	done := make(chan struct{})
	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			close(done)
			b.mu.Lock()
			delete(b.subs[channel], id)
			if len(b.subs[channel]) == 0 {
				delete(b.subs, channel)
			}
			b.mu.Unlock()
			close(ch)
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			cleanup()
		case <-done:
		}
	}()

	return ch, cleanup, nil
}

// Subscribers returns the number of live subscribers on channel.
func (b *LocalBus) Subscribers(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[channel])
}
