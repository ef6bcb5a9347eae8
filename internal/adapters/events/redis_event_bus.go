package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/streamlinecare/internal/domain/entities"
	"github.com/zatekoja/streamlinecare/internal/domain/providers"
	redisclient "github.com/zatekoja/streamlinecare/internal/infrastructure/clients/redis"
)

// DefaultConsumerGroup is the consumer group every API process joins
const DefaultConsumerGroup = "streamlinecare"

const (
	// subscriberBuffer is the per-subscriber channel capacity
	subscriberBuffer = 100

	eventField = "event"

	// streamMaxLen bounds each stream; trimming is approximate
	streamMaxLen = 10000

	readBatch  = 16
	readBlock  = 2 * time.Second
	retryDelay = time.Second
)

// streamClient is the subset of go-redis stream commands the bus uses
type streamClient interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
}

// RedisEventBus implements EventBus on Redis Streams. Each channel is a
// stream read through one consumer group, so an event published once is
// handed to exactly one process in the group. Inside that process every
// local subscriber of the channel receives it.
type RedisEventBus struct {
	streams  streamClient
	group    string
	consumer string

	mu          sync.RWMutex
	readers     map[string]context.CancelFunc
	subscribers map[string]map[chan *entities.AppointmentEvent]struct{}
	wg          sync.WaitGroup
	closed      bool
}

// NewRedisEventBus creates a stream-backed event bus in the default group
func NewRedisEventBus(client *redisclient.Client) providers.EventBus {
	return newStreamEventBus(client.Client(), DefaultConsumerGroup, consumerName())
}

func newStreamEventBus(streams streamClient, group, consumer string) *RedisEventBus {
	return &RedisEventBus{
		streams:     streams,
		group:       group,
		consumer:    consumer,
		readers:     make(map[string]context.CancelFunc),
		subscribers: make(map[string]map[chan *entities.AppointmentEvent]struct{}),
	}
}

// consumerName identifies this process within the group
func consumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "api"
	}
	return host + "-" + uuid.NewString()[:8]
}

// Publish appends the event to the channel's stream
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.AppointmentEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	id, err := b.streams.XAdd(ctx, &redis.XAddArgs{
		Stream: channel,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{eventField: string(data)},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Debug().Str("channel", channel).Str("stream_id", id).Str("event_id", event.ID).Str("type", string(event.EventType)).Msg("published event")
	return nil
}

// Subscribe joins the channel's consumer group. The returned channel is
// closed when ctx is done or the channel is unsubscribed.
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.AppointmentEvent, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrBusClosed
	}

	if _, running := b.readers[channel]; !running {
		err := b.streams.XGroupCreateMkStream(ctx, channel, b.group, "$").Err()
		if err != nil && !isBusyGroup(err) {
			b.mu.Unlock()
			return nil, fmt.Errorf("failed to create consumer group for %s: %w", channel, err)
		}

		readCtx, cancel := context.WithCancel(context.Background())
		b.readers[channel] = cancel
		b.wg.Add(1)
		go b.readStream(readCtx, channel)
	}

	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[chan *entities.AppointmentEvent]struct{})
	}
	eventChan := make(chan *entities.AppointmentEvent, subscriberBuffer)
	b.subscribers[channel][eventChan] = struct{}{}
	subscriberCount := len(b.subscribers[channel])
	b.mu.Unlock()

	log.Info().
		Str("channel", channel).
		Str("group", b.group).
		Str("consumer", b.consumer).
		Int("subscribers", subscriberCount).
		Msg("subscribed to channel")

	go func() {
		<-ctx.Done()
		b.removeSubscriber(channel, eventChan)
	}()

	return eventChan, nil
}

func isBusyGroup(err error) bool {
	return strings.HasPrefix(err.Error(), "BUSYGROUP")
}

// readStream claims new entries for this consumer until ctx is cancelled.
// Entries are acknowledged once handed to the local subscribers.
func (b *RedisEventBus) readStream(ctx context.Context, channel string) {
	defer b.wg.Done()

	for ctx.Err() == nil {
		streams, err := b.streams.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    b.group,
			Consumer: b.consumer,
			Streams:  []string{channel, ">"},
			Count:    readBatch,
			Block:    readBlock,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Str("channel", channel).Msg("failed to read event stream")
			select {
			case <-ctx.Done():
				return
			case <-time.After(retryDelay):
			}
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				b.dispatch(channel, msg)
				if err := b.streams.XAck(context.Background(), channel, b.group, msg.ID).Err(); err != nil {
					log.Warn().Err(err).Str("channel", channel).Str("stream_id", msg.ID).Msg("failed to acknowledge event")
				}
			}
		}
	}
}

func (b *RedisEventBus) dispatch(channel string, msg redis.XMessage) {
	payload, _ := msg.Values[eventField].(string)

	var event entities.AppointmentEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		log.Warn().Err(err).Str("channel", channel).Str("stream_id", msg.ID).Msg("failed to decode event")
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for subscriber := range b.subscribers[channel] {
		select {
		case subscriber <- &event:
		default:
			log.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("subscriber channel full, dropping event")
		}
	}
}

func (b *RedisEventBus) removeSubscriber(channel string, eventChan chan *entities.AppointmentEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscribers, exists := b.subscribers[channel]
	if !exists {
		return
	}
	if _, ok := subscribers[eventChan]; !ok {
		return
	}

	delete(subscribers, eventChan)
	close(eventChan)

	if len(subscribers) == 0 {
		b.stopChannelLocked(channel)
	}
}

// stopChannelLocked stops the channel's reader and closes its subscribers.
// Callers hold b.mu.
func (b *RedisEventBus) stopChannelLocked(channel string) {
	if cancel, ok := b.readers[channel]; ok {
		cancel()
		delete(b.readers, channel)
		log.Info().Str("channel", channel).Msg("stopped stream reader")
	}
	for subscriber := range b.subscribers[channel] {
		close(subscriber)
	}
	delete(b.subscribers, channel)
}

// Unsubscribe stops reading the channel and closes its subscribers
func (b *RedisEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	b.stopChannelLocked(channel)
	b.mu.Unlock()
	return nil
}

// Close stops every reader and waits for them to exit
func (b *RedisEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	channels := make([]string, 0, len(b.readers))
	for channel := range b.readers {
		channels = append(channels, channel)
	}
	for _, channel := range channels {
		b.stopChannelLocked(channel)
	}
	b.mu.Unlock()

	b.wg.Wait()
	log.Info().Msg("event bus closed")
	return nil
}
