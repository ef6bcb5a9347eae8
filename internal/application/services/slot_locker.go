package services

import (
	"context"
	"sync"
)

// SlotLocker serializes work on a single slot key within this process.
// Entries are reference counted and dropped once no caller holds or waits on them.
type SlotLocker struct {
	mu    sync.Mutex
	slots map[string]*slotLock
}

type slotLock struct {
	ch   chan struct{}
	refs int
}

// NewSlotLocker creates an empty locker
func NewSlotLocker() *SlotLocker {
	return &SlotLocker{slots: make(map[string]*slotLock)}
}

// Lock blocks until key is free or ctx is done. The returned func releases
// the lock and is safe to call more than once.
func (l *SlotLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	sl, ok := l.slots[key]
	if !ok {
		sl = &slotLock{ch: make(chan struct{}, 1)}
		l.slots[key] = sl
	}
	sl.refs++
	l.mu.Unlock()

	select {
	case sl.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, sl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-sl.ch
			l.release(key, sl)
		})
	}, nil
}

func (l *SlotLocker) release(key string, sl *slotLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	sl.refs--
	if sl.refs == 0 {
		delete(l.slots, key)
	}
}

// Len returns the number of keys currently held or awaited
func (l *SlotLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
