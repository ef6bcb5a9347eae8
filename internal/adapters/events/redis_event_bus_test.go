package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/streamlinecare/internal/adapters/memory"
	"github.com/zatekoja/streamlinecare/internal/application/services"
	"github.com/zatekoja/streamlinecare/internal/domain/entities"
	"github.com/zatekoja/streamlinecare/internal/domain/providers"
)

// fakeStreams models one Redis server's streams and consumer groups
type fakeStreams struct {
	mu      sync.Mutex
	seq     int
	entries map[string][]redis.XMessage
	cursors map[string]int
	acked   map[string]int
}

func newFakeStreams() *fakeStreams {
	return &fakeStreams{
		entries: make(map[string][]redis.XMessage),
		cursors: make(map[string]int),
		acked:   make(map[string]int),
	}
}

func groupKey(stream, group string) string {
	return stream + "/" + group
}

func (f *fakeStreams) XAdd(_ context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	id := fmt.Sprintf("%d-0", f.seq)
	values, _ := a.Values.(map[string]interface{})
	f.entries[a.Stream] = append(f.entries[a.Stream], redis.XMessage{ID: id, Values: values})
	return redis.NewStringResult(id, nil)
}

func (f *fakeStreams) XGroupCreateMkStream(_ context.Context, stream, group, _ string) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := groupKey(stream, group)
	if _, exists := f.cursors[key]; exists {
		return redis.NewStatusResult("", errors.New("BUSYGROUP Consumer Group name already exists"))
	}
	f.cursors[key] = len(f.entries[stream])
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeStreams) XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd {
	stream := a.Streams[0]
	key := groupKey(stream, a.Group)
	deadline := time.Now().Add(a.Block)

	for {
		f.mu.Lock()
		cursor := f.cursors[key]
		if pending := f.entries[stream][cursor:]; len(pending) > 0 {
			n := len(pending)
			if a.Count > 0 && int64(n) > a.Count {
				n = int(a.Count)
			}
			msgs := append([]redis.XMessage(nil), pending[:n]...)
			f.cursors[key] = cursor + n
			f.mu.Unlock()
			return redis.NewXStreamSliceCmdResult([]redis.XStream{{Stream: stream, Messages: msgs}}, nil)
		}
		f.mu.Unlock()

		if ctx.Err() != nil {
			return redis.NewXStreamSliceCmdResult(nil, ctx.Err())
		}
		if time.Now().After(deadline) {
			return redis.NewXStreamSliceCmdResult(nil, redis.Nil)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (f *fakeStreams) XAck(_ context.Context, stream, group string, ids ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.acked[groupKey(stream, group)] += len(ids)
	return redis.NewIntResult(int64(len(ids)), nil)
}

func (f *fakeStreams) ackedCount(stream, group string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.acked[groupKey(stream, group)]
}

func (f *fakeStreams) hasGroup(stream, group string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.cursors[groupKey(stream, group)]
	return ok
}

// drain counts events arriving on chans within wait
func drain(wait time.Duration, chans ...<-chan *entities.AppointmentEvent) int {
	var count int
	timeout := time.After(wait)
	for {
		for _, ch := range chans {
			select {
			case <-ch:
				count++
			default:
			}
		}
		select {
		case <-timeout:
			return count
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestRedisEventBus_GroupDeliversEachEventOnce(t *testing.T) {
	streams := newFakeStreams()
	first := newStreamEventBus(streams, "api", "first")
	second := newStreamEventBus(streams, "api", "second")
	defer first.Close()
	defer second.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	subFirst, err := first.Subscribe(ctx, providers.EventChannelAppointments)
	require.NoError(t, err)
	subSecond, err := second.Subscribe(ctx, providers.EventChannelAppointments)
	require.NoError(t, err)

	require.NoError(t, first.Publish(ctx, providers.EventChannelAppointments, bookedEvent()))
	require.NoError(t, second.Publish(ctx, providers.EventChannelAppointments, bookedEvent()))

	assert.Equal(t, 2, drain(300*time.Millisecond, subFirst, subSecond))
	assert.Eventually(t, func() bool {
		return streams.ackedCount(providers.EventChannelAppointments, "api") == 2
	}, time.Second, 10*time.Millisecond)
}

func TestRedisEventBus_LocalSubscribersAllReceive(t *testing.T) {
	bus := newStreamEventBus(newFakeStreams(), "api", "only")
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	one, err := bus.Subscribe(ctx, providers.EventChannelAppointments)
	require.NoError(t, err)
	two, err := bus.Subscribe(ctx, providers.EventChannelAppointments)
	require.NoError(t, err)

	event := bookedEvent()
	require.NoError(t, bus.Publish(ctx, providers.EventChannelAppointments, event))

	got := receive(t, one)
	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, event.Appointment.Time, got.Appointment.Time)
	assert.Equal(t, event.ID, receive(t, two).ID)
}

func TestRedisEventBus_CancelClosesSubscription(t *testing.T) {
	bus := newStreamEventBus(newFakeStreams(), "api", "only")
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := bus.Subscribe(ctx, providers.EventChannelAppointments)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-sub:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}
}

func TestRedisEventBus_SubscribeAfterClose(t *testing.T) {
	bus := newStreamEventBus(newFakeStreams(), "api", "only")
	require.NoError(t, bus.Close())

	_, err := bus.Subscribe(context.Background(), providers.EventChannelAppointments)
	assert.ErrorIs(t, err, ErrBusClosed)
}

type countingNotifier struct {
	sent atomic.Int32
}

func (n *countingNotifier) Channel() string { return services.ChannelEmail }

func (n *countingNotifier) Send(context.Context, providers.Message) error {
	n.sent.Add(1)
	return nil
}

func TestRedisEventBus_ConfirmationSentOncePerBooking(t *testing.T) {
	streams := newFakeStreams()
	notifier := &countingNotifier{}
	catalog := memory.NewCatalog()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	buses := make([]*RedisEventBus, 0, 2)
	for _, consumer := range []string{"api-1", "api-2"} {
		bus := newStreamEventBus(streams, "api", consumer)
		buses = append(buses, bus)
		svc := services.NewNotificationService(catalog.Hospitals(), catalog.Doctors(), entities.DisplayFormat24h, zerolog.Nop(), notifier)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.Run(ctx, bus)
		}()
	}
	defer func() {
		cancel()
		wg.Wait()
		for _, bus := range buses {
			_ = bus.Close()
		}
	}()

	require.Eventually(t, func() bool {
		return streams.hasGroup(providers.EventChannelAppointments, "api")
	}, time.Second, 5*time.Millisecond)

	event := bookedEvent()
	event.Appointment.Email = "ama@example.com"
	require.NoError(t, buses[0].Publish(ctx, providers.EventChannelAppointments, event))

	assert.Eventually(t, func() bool { return notifier.sent.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), notifier.sent.Load())
}
