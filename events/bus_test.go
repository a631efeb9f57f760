package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
		return nil
	}
}

func TestTransactionalBus_FlushDelivers(t *testing.T) {
	bus := NewBus()
	received := make(chan Event, 1)
	bus.Subscribe(EventTypeCycleSettled, func(ctx context.Context, event Event) {
		received <- event
	})

	tx := NewTransactionalBus(bus)
	cycleID := uuid.New()
	tx.Publish(CycleSettledEvent{CycleID: cycleID, WagersResolved: 2})
	assert.Equal(t, 1, tx.Pending())

	require.NoError(t, tx.Flush(context.Background()))
	assert.Equal(t, 0, tx.Pending())

	ev := waitFor(t, received)
	settled, ok := ev.(CycleSettledEvent)
	require.True(t, ok)
	assert.Equal(t, cycleID, settled.CycleID)
	assert.Equal(t, 2, settled.WagersResolved)
}

func TestTransactionalBus_DiscardDropsEvents(t *testing.T) {
	bus := NewBus()
	received := make(chan Event, 1)
	bus.Subscribe(EventTypeWagerPlaced, func(ctx context.Context, event Event) {
		received <- event
	})

	tx := NewTransactionalBus(bus)
	tx.Publish(WagerPlacedEvent{DiscordID: 1})
	tx.Discard()
	require.NoError(t, tx.Flush(context.Background()))

	select {
	case ev := <-received:
		t.Fatalf("unexpected event %v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBus_SubscribeAll(t *testing.T) {
	bus := NewBus()
	var mu sync.Mutex
	seen := map[EventType]int{}
	var wg sync.WaitGroup
	wg.Add(2)

	bus.SubscribeAll(func(ctx context.Context, event Event) {
		defer wg.Done()
		mu.Lock()
		seen[event.Type()]++
		mu.Unlock()
	})

	bus.Emit(context.Background(), WagerPlacedEvent{})
	bus.Emit(context.Background(), QueueLowEvent{Remaining: 1, Watermark: 10})
	wg.Wait()

	assert.Equal(t, 1, seen[EventTypeWagerPlaced])
	assert.Equal(t, 1, seen[EventTypeQueueLow])
}

func TestBus_HandlerPanicIsRecovered(t *testing.T) {
	bus := NewBus()
	received := make(chan Event, 1)
	bus.Subscribe(EventTypeQueueLow, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeQueueLow, func(ctx context.Context, event Event) {
		received <- event
	})

	bus.Emit(context.Background(), QueueLowEvent{Remaining: 3})

	ev := waitFor(t, received)
	assert.Equal(t, EventTypeQueueLow, ev.Type())
}

func TestTransactionalBus_FlushAfterCancel(t *testing.T) {
	bus := NewBus()
	handlerCtx := make(chan context.Context, 1)
	bus.Subscribe(EventTypeQueueLow, func(ctx context.Context, event Event) {
		handlerCtx <- ctx
	})

	type ctxKey struct{}
	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), ctxKey{}, "cycle-7"))
	tx := NewTransactionalBus(bus)
	tx.Publish(QueueLowEvent{Remaining: 2, Watermark: 10})
	cancel()

	require.NoError(t, tx.Flush(ctx))

	select {
	case got := <-handlerCtx:
		assert.NoError(t, got.Err())
		assert.Equal(t, "cycle-7", got.Value(ctxKey{}))
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}
