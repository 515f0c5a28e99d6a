package events

import (
	"context"
	"errors"
	"testing"

	"expoconnect_backend/platform/logger"
)

type testEvent struct {
	BaseEvent
	Value string
}

func (e testEvent) EventName() string { return "test.event" }

func TestPublishSyncRunsAllHandlers(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	var calls int
	bus.Subscribe("test.event", HandlerFunc(func(_ context.Context, _ Event) error {
		calls++
		return nil
	}))
	bus.Subscribe("test.event", HandlerFunc(func(_ context.Context, _ Event) error {
		calls++
		return nil
	}))

	if err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()}); err != nil {
		t.Fatalf("PublishSync returned error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 handler calls, got %d", calls)
	}
}

func TestPublishSyncReturnsFirstErrorAndContinues(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	wantErr := errors.New("boom")
	var secondCalled bool
	bus.Subscribe("test.event", HandlerFunc(func(_ context.Context, _ Event) error {
		return wantErr
	}))
	bus.Subscribe("test.event", HandlerFunc(func(_ context.Context, _ Event) error {
		secondCalled = true
		return nil
	}))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected first handler error, got %v", err)
	}
	if !secondCalled {
		t.Fatal("expected remaining handlers to run after a failure")
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))
	bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent()})
}
