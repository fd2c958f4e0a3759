package signaling

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// echoServer answers a register with registered and then forwards every
// message it receives on got.
func echoServer(t *testing.T, got chan<- Message, push []Message) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for {
			var msg Message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			got <- msg
			if msg.Type == TypeRegister {
				_ = conn.WriteJSON(Message{Type: TypeRegistered, ID: msg.ID})
				for _, m := range push {
					_ = conn.WriteJSON(m)
				}
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClient_RegisterAndDispatch(t *testing.T) {
	got := make(chan Message, 8)
	offer := json.RawMessage(`{"type":"offer","sdp":"v=0"}`)
	srv := echoServer(t, got, []Message{
		{Type: TypeOffer, From: "viewer-1", Payload: offer},
		{Type: TypePeerLeft, PeerID: "viewer-1"},
	})

	registered := make(chan struct{}, 1)
	offers := make(chan string, 1)
	left := make(chan string, 1)
	c := NewClient(wsURL(srv), "cam-1", RoleBroadcaster, Handler{
		OnRegistered: func() { registered <- struct{}{} },
		OnOffer: func(from string, payload json.RawMessage) {
			offers <- from + " " + string(payload)
		},
		OnPeerLeft: func(id string) { left <- id },
	}, discard())

	if c.ID() != "cam-1" {
		t.Fatalf("ID() = %q", c.ID())
	}
	if err := c.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	select {
	case msg := <-got:
		if msg.Type != TypeRegister || msg.ID != c.ID() || msg.Role != RoleBroadcaster {
			t.Fatalf("register message = %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no register message")
	}

	waitFor(t, registered, "registered")
	select {
	case s := <-offers:
		if s != `viewer-1 {"type":"offer","sdp":"v=0"}` {
			t.Fatalf("offer = %q", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("offer not dispatched")
	}
	select {
	case id := <-left:
		if id != "viewer-1" {
			t.Fatalf("peer left = %q", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("peer-left not dispatched")
	}

	if err := c.SendAnswer("viewer-1", json.RawMessage(`{}`)); err != nil {
		t.Fatalf("send answer: %v", err)
	}
	select {
	case msg := <-got:
		if msg.Type != TypeAnswer || msg.Target != "viewer-1" {
			t.Fatalf("answer message = %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("answer not received by server")
	}
}

func TestClient_SendAfterClose(t *testing.T) {
	c := NewClient("ws://127.0.0.1:1", "x", RoleViewer, Handler{}, discard())
	if err := c.SendOffer("y", nil); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
	c.Close()
	c.Close()
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}
