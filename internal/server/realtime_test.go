package server

import (
	"context"
	"testing"
	"time"
)

func TestRealtimeDispatcherPublishesToSubscriber(t *testing.T) {
	dispatcher := NewRealtimeDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, cleanup := dispatcher.Subscribe(ctx, "owner-1")
	defer cleanup()

	message := RealtimeMessage{
		OwnerID:      "owner-1",
		EventType:    RealtimeEventValentineReceived,
		ValentineIDs: []string{"valentine-a", "valentine-b"},
		Timestamp:    time.Now().UTC(),
	}
	dispatcher.Publish(message)

	select {
	case received := <-stream:
		if received.EventType != RealtimeEventValentineReceived {
			t.Fatalf("expected event type %s, got %s", RealtimeEventValentineReceived, received.EventType)
		}
		if len(received.ValentineIDs) != 2 {
			t.Fatalf("expected 2 valentine ids, got %d", len(received.ValentineIDs))
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected realtime message within deadline")
	}
}

func TestRealtimeDispatcherIsolatedByOwner(t *testing.T) {
	dispatcher := NewRealtimeDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	otherCtx, otherCancel := context.WithCancel(context.Background())
	defer otherCancel()

	ownerStream, cleanup := dispatcher.Subscribe(ctx, "owner-2")
	defer cleanup()

	otherStream, otherCleanup := dispatcher.Subscribe(otherCtx, "owner-3")
	defer otherCleanup()

	dispatcher.Publish(RealtimeMessage{
		OwnerID:      "owner-3",
		EventType:    RealtimeEventValentineReceived,
		ValentineIDs: []string{"valentine-c"},
		Timestamp:    time.Now().UTC(),
	})

	select {
	case <-ownerStream:
		t.Fatal("did not expect realtime message for unrelated owner")
	case <-time.After(200 * time.Millisecond):
	}

	select {
	case msg := <-otherStream:
		if msg.OwnerID != "owner-3" {
			t.Fatalf("expected owner-3, received %s", msg.OwnerID)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected realtime message for subscribed owner")
	}
}
