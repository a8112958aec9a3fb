package events

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int

	handler := func(event *Event) error {
		received = event
		callCount++
		return nil
	}

	bus.Subscribe(EventSyncFailed, handler)

	payload := SyncEventPayload{
		WindowStart: time.Date(2021, 3, 26, 0, 0, 0, 0, time.UTC),
		WindowEnd:   time.Date(2021, 3, 27, 0, 0, 0, 0, time.UTC),
		Error:       "remote unreachable",
	}
	err := bus.PublishJSON(EventSyncFailed, payload)
	if err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}

	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}

	if received.Type != EventSyncFailed {
		t.Errorf("expected type %s, got %s", EventSyncFailed, received.Type)
	}

	var decoded SyncEventPayload
	if err := json.Unmarshal(received.Payload, &decoded); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}

	if decoded.Error != "remote unreachable" {
		t.Errorf("expected error field to round-trip, got %q", decoded.Error)
	}
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	var count1, count2 int

	bus.Subscribe("event", func(_ *Event) error { count1++; return nil })
	bus.Subscribe("event", func(_ *Event) error { count2++; return nil })

	bus.Publish(&Event{Type: "event"})

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both handlers to be called once, got %d and %d", count1, count2)
	}
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus()
	// Should not panic
	bus.Publish(&Event{Type: "unknown"})
	if err := bus.PublishJSON("unknown", nil); err != nil {
		t.Errorf("PublishJSON failed: %v", err)
	}
}

func TestNilBusIsSafe(t *testing.T) {
	var bus *EventBus
	if err := bus.PublishJSON(EventSyncCompleted, SyncEventPayload{}); err != nil {
		t.Errorf("nil bus PublishJSON failed: %v", err)
	}
}
