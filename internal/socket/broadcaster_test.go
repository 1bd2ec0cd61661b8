package socket

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func newTestClient(userID string) *Client {
	return &Client{
		ID:     "test-" + userID,
		UserID: userID,
		Send:   make(chan []byte, 8),
		Rooms:  make(map[string]bool),
	}
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case data := <-c.Send:
		return data
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestPublishNotificationReachesRoom(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	client := newTestClient("user-1")
	if !hub.JoinRoom(context.Background(), client, RoomForEstimation("est-1")) {
		t.Fatal("join rejected")
	}

	b := NewBroadcaster(hub)
	if err := b.PublishNotification("est-1", "item_update", "update", "item-1"); err != nil {
		t.Fatalf("PublishNotification failed: %v", err)
	}

	data := receive(t, client)

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("bad frame: %v", err)
	}
	if msg.Type != MessageItemUpdate {
		t.Errorf("type = %s, want %s", msg.Type, MessageItemUpdate)
	}
	payload, ok := msg.Payload.(map[string]interface{})
	if !ok {
		t.Fatalf("payload type = %T", msg.Payload)
	}
	if payload["id"] != "item-1" || payload["action"] != "update" {
		t.Errorf("payload = %v", payload)
	}
	// The frame must say which document changed; clients hold several room
	// subscriptions over one connection.
	if payload["estimationId"] != "est-1" {
		t.Errorf("estimationId = %v, want est-1", payload["estimationId"])
	}

	// Notifications carry ids only. Anything resembling document content in
	// the frame means access revocation no longer bounds what a stale
	// subscriber can see.
	frame := string(data)
	for _, leak := range []string{"title", "value", "email"} {
		if strings.Contains(frame, leak) {
			t.Errorf("notification frame contains %q: %s", leak, frame)
		}
	}
	if len(data) > 200 {
		t.Errorf("notification frame is %d bytes, want a small fixed-shape event", len(data))
	}
}

func TestPublishIsScopedToRoom(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	subscribed := newTestClient("user-1")
	other := newTestClient("user-2")
	ctx := context.Background()
	if !hub.JoinRoom(ctx, subscribed, RoomForEstimation("est-1")) {
		t.Fatal("join rejected")
	}
	if !hub.JoinRoom(ctx, other, RoomForEstimation("est-2")) {
		t.Fatal("join rejected")
	}

	b := NewBroadcaster(hub)
	if err := b.PublishNotification("est-1", "document_update", "update", "est-1"); err != nil {
		t.Fatalf("PublishNotification failed: %v", err)
	}

	receive(t, subscribed)

	select {
	case data := <-other.Send:
		t.Errorf("client in another room received %s", data)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestJoinRoomAuthorization(t *testing.T) {
	allowed := map[string]bool{"user-1": true}
	hub := NewHub(func(ctx context.Context, userID, estimationID string) bool {
		return allowed[userID] && estimationID == "est-1"
	})
	go hub.Run()

	ctx := context.Background()
	if !hub.JoinRoom(ctx, newTestClient("user-1"), RoomForEstimation("est-1")) {
		t.Error("authorized user rejected")
	}
	if hub.JoinRoom(ctx, newTestClient("user-2"), RoomForEstimation("est-1")) {
		t.Error("unauthorized user admitted")
	}
	if hub.JoinRoom(ctx, newTestClient("user-1"), RoomForEstimation("est-2")) {
		t.Error("admitted to room without access")
	}
	if hub.JoinRoom(ctx, newTestClient("user-1"), "not-a-room") {
		t.Error("admitted to unparseable room name")
	}
}

func TestPublishFragmentCarriesPayload(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	client := newTestClient("user-1")
	if !hub.JoinRoom(context.Background(), client, RoomForEstimation("est-1")) {
		t.Fatal("join rejected")
	}

	b := NewBroadcaster(hub)
	payload := map[string]interface{}{"sum": 12.0, "buffer": 6.0}
	if err := b.PublishFragment("est-1", payload); err != nil {
		t.Fatalf("PublishFragment failed: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(receive(t, client), &msg); err != nil {
		t.Fatalf("bad frame: %v", err)
	}
	if msg.Type != MessageFragmentUpdate {
		t.Errorf("type = %s, want %s", msg.Type, MessageFragmentUpdate)
	}
	got, ok := msg.Payload.(map[string]interface{})
	if !ok || got["sum"] != 12.0 {
		t.Errorf("payload = %v", msg.Payload)
	}
}
