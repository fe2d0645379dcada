package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shotbook/shotbook-api/internal/pkg/events"
)

func waitForConnections(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ConnectionCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d connections, got %d", want, hub.ConnectionCount())
}

func TestHubDeliversOnlyToOwner(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Shutdown()

	owner := &Connection{UserID: uuid.New(), Send: make(chan []byte, 4)}
	other := &Connection{UserID: uuid.New(), Send: make(chan []byte, 4)}
	hub.Register(owner)
	hub.Register(other)
	waitForConnections(t, hub, 2)

	event := events.New(events.BookingStatusChanged, uuid.New(), owner.UserID, "approved", nil)
	if err := hub.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case msg := <-owner.Send:
		var got events.Event
		if err := json.Unmarshal(msg, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.ID != event.ID || got.Status != "approved" {
			t.Fatalf("unexpected event %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("owner did not receive the event")
	}

	select {
	case msg := <-other.Send:
		t.Fatalf("other user received %s", msg)
	default:
	}

	hub.Unregister(owner)
	waitForConnections(t, hub, 1)
	if _, ok := <-owner.Send; ok {
		t.Fatal("send channel should be closed after unregister")
	}
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Shutdown()

	conn := &Connection{UserID: uuid.New(), Send: make(chan []byte, 1)}
	hub.Register(conn)
	waitForConnections(t, hub, 1)

	before := wsEventsDroppedTotal.Value()
	for i := 0; i < 3; i++ {
		hub.Publish(context.Background(), events.New(events.DeliveryUpdated, uuid.New(), conn.UserID, "", nil))
	}
	if got := wsEventsDroppedTotal.Value() - before; got != 2 {
		t.Fatalf("expected 2 dropped events, got %d", got)
	}
}

func TestHubIgnoresOwnRelayedEvents(t *testing.T) {
	hub := NewHubWithInstanceID(nil, "instance-a")
	go hub.Run()
	defer hub.Shutdown()

	conn := &Connection{UserID: uuid.New(), Send: make(chan []byte, 2)}
	hub.Register(conn)
	waitForConnections(t, hub, 1)

	relay := func(sender string) string {
		body, _ := json.Marshal(userEventMessage{
			UserID:           conn.UserID.String(),
			Payload:          json.RawMessage(`{"type":"booking.created"}`),
			SenderInstanceID: sender,
		})
		return string(body)
	}

	hub.handleUserEventPayload(relay("instance-a"))
	hub.handleUserEventPayload(relay("instance-b"))

	if len(conn.Send) != 1 {
		t.Fatalf("expected exactly the foreign relay to be delivered, got %d", len(conn.Send))
	}
}
