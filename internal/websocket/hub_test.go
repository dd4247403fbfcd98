package websocket

import (
	"encoding/json"
	"testing"
	"time"
)

func TestHubRegisterBroadcastUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := NewClient(hub)
	hub.Register(client)

	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Broadcast([]byte(`{"type":"notification"}`))

	select {
	case msg := <-client.Send():
		if string(msg) != `{"type":"notification"}` {
			t.Errorf("received %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("client never received the broadcast")
	}

	hub.Unregister(client)
	waitFor(t, func() bool { return hub.ClientCount() == 0 })

	// The send channel is closed on unregister.
	if _, ok := <-client.Send(); ok {
		t.Error("send channel should be closed after unregister")
	}
}

func TestEventBroadcasterEnvelope(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := NewClient(hub)
	hub.Register(client)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	b := NewEventBroadcaster(hub)
	b.BroadcastBookingStatusChanged("b1", "BC-b1", "confirmed", "completed", "event window elapsed")

	select {
	case raw := <-client.Send():
		var msg struct {
			Type    MessageType          `json:"type"`
			Payload BookingStatusPayload `json:"payload"`
		}
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg.Type != TypeBookingStatusChanged {
			t.Errorf("type = %q", msg.Type)
		}
		if msg.Payload.Reference != "BC-b1" || msg.Payload.NewStatus != "completed" {
			t.Errorf("payload = %+v", msg.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never met")
}
