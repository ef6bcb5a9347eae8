package events

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/streamlinecare/internal/domain/entities"
	"github.com/zatekoja/streamlinecare/internal/domain/providers"
)

// ErrBusClosed is returned when publishing or subscribing after Close
var ErrBusClosed = errors.New("event bus closed")

// LocalEventBus is an in-process EventBus used when Redis is unavailable.
// Delivery is non-blocking; a full subscriber drops the event.
type LocalEventBus struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan *entities.AppointmentEvent]struct{}
	closed      bool
}

// NewLocalEventBus creates an in-process event bus
func NewLocalEventBus() *LocalEventBus {
	return &LocalEventBus{
		subscribers: make(map[string]map[chan *entities.AppointmentEvent]struct{}),
	}
}

var _ providers.EventBus = (*LocalEventBus)(nil)

// Publish fans the event out to the channel's current subscribers
func (b *LocalEventBus) Publish(ctx context.Context, channel string, event *entities.AppointmentEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBusClosed
	}
	for subscriber := range b.subscribers[channel] {
		select {
		case subscriber <- event:
		default:
			log.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("subscriber channel full, dropping event")
		}
	}
	return nil
}

// Subscribe registers a subscriber until ctx is done
func (b *LocalEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.AppointmentEvent, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrBusClosed
	}
	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[chan *entities.AppointmentEvent]struct{})
	}
	eventChan := make(chan *entities.AppointmentEvent, subscriberBuffer)
	b.subscribers[channel][eventChan] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.remove(channel, eventChan)
	}()
	return eventChan, nil
}

func (b *LocalEventBus) remove(channel string, eventChan chan *entities.AppointmentEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscribers := b.subscribers[channel]
	if _, ok := subscribers[eventChan]; !ok {
		return
	}
	delete(subscribers, eventChan)
	close(eventChan)
	if len(subscribers) == 0 {
		delete(b.subscribers, channel)
	}
}

// Unsubscribe closes every subscriber of channel
func (b *LocalEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subscriber := range b.subscribers[channel] {
		close(subscriber)
	}
	delete(b.subscribers, channel)
	return nil
}

// Close closes all subscribers and rejects further use
func (b *LocalEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for channel, subscribers := range b.subscribers {
		for subscriber := range subscribers {
			close(subscriber)
		}
		delete(b.subscribers, channel)
	}
	return nil
}
