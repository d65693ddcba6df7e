package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kamal-hamza/px-cli/internal/core/domain"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	go hub.Run(ctx)

	server := httptest.NewServer(hub.Handler())
	t.Cleanup(func() {
		server.Close()
		cancel()
	})
	return hub, server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// The hello frame is only written once the client is registered
	msg := readMessage(t, conn)
	if msg.Type != MsgHello {
		t.Fatalf("expected hello frame, got %q", msg.Type)
	}
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return msg
}

func TestHub_BroadcastsChangesInOrder(t *testing.T) {
	hub, server := startHub(t)
	first := dial(t, server)
	second := dial(t, server)

	reasons := []domain.ChangeReason{
		domain.FolderInspectionStarted,
		domain.AssetCreated,
		domain.CatalogProcessEnded,
	}
	for i, r := range reasons {
		hub.Publish(domain.CatalogChange{Seq: uint64(i + 1), Reason: r, Time: time.Now()})
	}

	for _, conn := range []*websocket.Conn{first, second} {
		for i, want := range reasons {
			msg := readMessage(t, conn)
			if msg.Type != MsgCatalogChange {
				t.Fatalf("Type = %q", msg.Type)
			}
			if msg.Seq != uint64(i+1) {
				t.Errorf("Seq = %d, want %d", msg.Seq, i+1)
			}
			var change domain.CatalogChange
			if err := json.Unmarshal(msg.Data, &change); err != nil {
				t.Fatalf("decode change: %v", err)
			}
			if change.Reason != want {
				t.Errorf("Reason = %q, want %q", change.Reason, want)
			}
		}
	}
}

func TestHub_Healthz(t *testing.T) {
	_, server := startHub(t)
	dial(t, server)

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body struct {
		Status  string `json:"status"`
		Clients int    `json:"clients"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Clients != 1 {
		t.Errorf("healthz = %+v", body)
	}
}

func TestHub_UnregistersClosedClient(t *testing.T) {
	hub, server := startHub(t)
	conn := dial(t, server)

	if hub.ClientCount() != 1 {
		t.Fatalf("ClientCount() = %d, want 1", hub.ClientCount())
	}
	conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for hub.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client was not unregistered")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
