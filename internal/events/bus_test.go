package events

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus(64)
	defer bus.Close()

	var mu sync.Mutex
	var received []Event

	bus.Subscribe(func(e Event) {
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
	}, EventStageAdvanced)

	bus.Publish(NewTypedEvent(SourceController, StageAdvancedPayload{From: 0, To: 1}))
	bus.Publish(NewTypedEvent(SourceWizard, TurnStartedPayload{Text: "hello"}))

	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	if len(received) != 1 {
		t.Fatalf("expected 1 event, got %d", len(received))
	}
	if received[0].Type != EventStageAdvanced {
		t.Errorf("expected stage.advanced, got %s", received[0].Type)
	}
}

func TestBusSubscribeAll(t *testing.T) {
	bus := NewBus(64)
	defer bus.Close()

	var mu sync.Mutex
	count := 0

	bus.Subscribe(func(e Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	bus.Publish(NewTypedEvent(SourceController, SessionResetPayload{}))
	bus.Publish(NewTypedEvent(SourceWizard, TurnStartedPayload{Text: "hello"}))

	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	if count != 2 {
		t.Errorf("expected 2 events, got %d", count)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus(64)
	defer bus.Close()

	var mu sync.Mutex
	count := 0

	unsub := bus.Subscribe(func(e Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	unsub()

	bus.Publish(NewTypedEvent(SourceController, SessionResetPayload{}))
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if count != 0 {
		t.Errorf("expected 0 events after unsubscribe, got %d", count)
	}
}

func TestBusPublishAfterClose(t *testing.T) {
	bus := NewBus(4)
	bus.Close()
	bus.Close()

	// Must not panic.
	bus.Publish(NewTypedEvent(SourceController, SessionResetPayload{}))
}

func TestBusHistory(t *testing.T) {
	bus := NewBus(8)
	defer bus.Close()

	bus.Publish(NewTypedEventWithSession(SourceWizard, TurnStartedPayload{Text: "a"}, "tok"))

	var history []Event
	for i := 0; i < 100; i++ {
		history = bus.History(10)
		if len(history) > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 event in history, got %d", len(history))
	}
	if history[0].SessionID != "tok" {
		t.Errorf("SessionID = %q, want tok", history[0].SessionID)
	}
}

func TestRingBuffer(t *testing.T) {
	rb := NewRingBuffer(3)

	for i := 0; i < 5; i++ {
		rb.Add(NewEvent(EventTurnStarted, SourceWizard, map[string]any{"i": i}))
	}

	events := rb.Get(10)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	// Oldest retained first.
	if got := events[0].Payload["i"]; got != 2 {
		t.Errorf("first retained i = %v, want 2", got)
	}
}

func TestExtractPayload(t *testing.T) {
	e := NewTypedEvent(SourceWizard, TurnFailedPayload{Kind: "backend", Error: "bad token"})

	p, ok := GetTurnFailedPayload(e)
	if !ok {
		t.Fatal("expected payload")
	}
	if p.Kind != "backend" || p.Error != "bad token" {
		t.Errorf("unexpected payload: %+v", p)
	}

	if _, ok := GetTurnCompletedPayload(e); ok {
		t.Error("extracting the wrong payload type should fail")
	}
}

func TestFlushWaitsForHandlers(t *testing.T) {
	bus := NewBus(16)
	defer bus.Close()

	var handled atomic.Int32
	bus.Subscribe(func(Event) {
		time.Sleep(20 * time.Millisecond)
		handled.Add(1)
	})

	for i := 0; i < 3; i++ {
		bus.Publish(NewTypedEvent(SourceWizard, TurnStartedPayload{Text: "x"}))
	}

	if !bus.Flush(2 * time.Second) {
		t.Fatal("Flush timed out")
	}
	if n := handled.Load(); n != 3 {
		t.Errorf("handled = %d, want 3", n)
	}
}
