package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestMonitorStreamsSessionEvents(t *testing.T) {
	ts := newTestServer(t, DefaultConfig())

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/monitor"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial monitor: %v", err)
	}
	defer conn.Close()

	// Registration races the broadcast; give the hub a moment to add us.
	time.Sleep(50 * time.Millisecond)

	resp, err := http.Get(ts.URL + "/init_stabilizer")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read event: %v", err)
	}

	var ev MonitorEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Type != "session_created" {
		t.Fatalf("event type = %q, want session_created", ev.Type)
	}
	if ev.Timestamp == "" {
		t.Fatal("event missing timestamp")
	}
}

func TestBroadcastWithoutClientsDoesNotBlock(t *testing.T) {
	h := NewHub()
	go h.Run()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			h.Broadcast(newMonitorEvent("session_created", nil))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked with no clients attached")
	}
}
