package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/shotbook/shotbook-api/internal/middleware"
	"github.com/shotbook/shotbook-api/internal/pkg/events"
	"github.com/shotbook/shotbook-api/internal/pkg/jwt"
)

func newServer(t *testing.T) (*httptest.Server, *Hub, *jwt.Service) {
	t.Helper()
	jwtService := jwt.NewService("test-secret", time.Hour, 2*time.Hour)

	hub := NewHub(nil)
	go hub.Run()
	t.Cleanup(hub.Shutdown)

	r := chi.NewRouter()
	r.Mount("/ws", NewHandler(hub, nil).Routes(middleware.Auth(jwtService)))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub, jwtService
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func TestWebSocketStreamsOwnerEvents(t *testing.T) {
	srv, hub, jwtService := newServer(t)
	userID := uuid.New()
	token, err := jwtService.GenerateAccessToken(userID, "ana@example.com", "client")
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv.URL)+"/ws?token="+token, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitForConnections(t, hub, 1)

	event := events.New(events.DeliveryCreated, uuid.New(), userID, "completed", map[string]int{"photos": 3})
	if err := hub.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got events.Event
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatalf("unmarshal: %v (%s)", err, msg)
	}
	if got.Type != events.DeliveryCreated || got.BookingID != event.BookingID {
		t.Fatalf("unexpected event %+v", got)
	}

	conn.Close()
	waitForConnections(t, hub, 0)
}

func TestWebSocketRequiresToken(t *testing.T) {
	srv, _, _ := newServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv.URL)+"/ws", nil)
	if err == nil {
		t.Fatal("expected handshake to fail without token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %+v", resp)
	}

	_, resp, err = websocket.DefaultDialer.Dial(wsURL(srv.URL)+"/ws?token=garbage", nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %v", err)
	}
}
