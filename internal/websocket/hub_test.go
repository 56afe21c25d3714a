package websocket

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel) // Reduce noise in tests
	logger.SetOutput(io.Discard)
	return logger
}

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeSession(w, r, r.URL.Query().Get("session"))
	}))
	t.Cleanup(func() {
		cancel()
		server.Close()
	})
	return hub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d clients, got %d", n, hub.GetClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to decode message: %v", err)
	}
	return msg
}

func TestSendReachesOnlyThatSession(t *testing.T) {
	hub, url := startHub(t)
	alice := dial(t, url+"?session=a")
	bob := dial(t, url+"?session=b")
	waitForClients(t, hub, 2)

	hub.Send("a", "alert", "Cart cleared!", "console")
	hub.Broadcast("view_changed", "products", "console")

	first := readMessage(t, alice)
	if first.Type != "alert" || first.Data != "Cart cleared!" {
		t.Errorf("Unexpected first message for a: %+v", first)
	}
	if second := readMessage(t, alice); second.Type != "view_changed" {
		t.Errorf("Expected broadcast after direct message, got %+v", second)
	}

	// b never sees a's alert; its first message is the broadcast
	if msg := readMessage(t, bob); msg.Type != "view_changed" {
		t.Errorf("Expected only the broadcast for b, got %+v", msg)
	}
}

func TestClientDisconnectIsUnregistered(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url+"?session=a")
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestServeSessionAfterHubStops(t *testing.T) {
	hub := NewHub(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	served := make(chan struct{}, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeSession(w, r, "a")
		served <- struct{}{}
	}))
	defer server.Close()
	url := "ws" + strings.TrimPrefix(server.URL, "http")

	early := dial(t, url)
	<-served
	waitForClients(t, hub, 1)

	cancel()
	<-stopped

	// The connected client's read loop must be able to leave
	early.Close()

	late := dial(t, url)
	select {
	case <-served:
	case <-time.After(2 * time.Second):
		t.Fatal("ServeSession blocked after the hub stopped")
	}

	late.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := late.ReadMessage(); err == nil {
		t.Error("Expected connection to be closed by a stopped hub")
	}
}
