package bridge

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"voxnote/pkg/protocol"
)

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
		panic("unreachable")
	}
}

func TestBridgeRoundTrip(t *testing.T) {
	events := make(chan any, 4)
	s := New()
	s.OnEvent = func(ev any) { events <- ev }
	s.OnConnect = func(send func(string, any) error) {
		send(protocol.MessageStatus, protocol.Status{Enabled: true, Text: "voxnote on"})
	}

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + Path
	c, err := protocol.Dial(ctx, url, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	msgs := make(chan any, 4)
	c.OnMessage = func(m any) { msgs <- m }
	go c.Run(ctx)

	st, ok := recv(t, msgs).(*protocol.Status)
	if !ok || !st.Enabled || st.Text != "voxnote on" {
		t.Fatalf("first message = %+v", st)
	}
	if s.Clients() != 1 {
		t.Fatalf("clients = %d", s.Clients())
	}

	if err := c.Send(protocol.Terminals{Count: 2}); err != nil {
		t.Fatal(err)
	}
	ev, ok := recv(t, events).(*protocol.Terminals)
	if !ok || ev.Count != 2 {
		t.Fatalf("event = %+v", ev)
	}

	if err := s.Broadcast(protocol.MessageToast, protocol.Toast{Level: "info", Text: "hello"}); err != nil {
		t.Fatal(err)
	}
	toast, ok := recv(t, msgs).(*protocol.Toast)
	if !ok || toast.Text != "hello" {
		t.Fatalf("toast = %+v", toast)
	}
}

func TestBroadcastWithoutClients(t *testing.T) {
	s := New()
	if err := s.Broadcast(protocol.MessageToast, protocol.Toast{Text: "nobody"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestListenAndShutdown(t *testing.T) {
	s := New()
	addr, err := s.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	c, err := protocol.Dial(ctx, "ws://"+addr.String()+Path, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := s.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := protocol.Dial(ctx, "ws://"+addr.String()+Path, time.Second); err == nil {
		t.Fatal("dial succeeded after shutdown")
	}
}

func TestDisconnectReportsRemainingClients(t *testing.T) {
	left := make(chan int, 4)
	s := New()
	s.OnDisconnect = func(remaining int) { left <- remaining }

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx := context.Background()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + Path
	first, err := protocol.Dial(ctx, url, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	second, err := protocol.Dial(ctx, url, time.Second)
	if err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for s.Clients() != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want 2", s.Clients())
		}
		time.Sleep(10 * time.Millisecond)
	}

	first.Close()
	if n := recv(t, left); n != 1 {
		t.Fatalf("remaining after first close = %d, want 1", n)
	}
	second.Close()
	if n := recv(t, left); n != 0 {
		t.Fatalf("remaining after second close = %d, want 0", n)
	}
	if s.Clients() != 0 {
		t.Fatalf("clients = %d", s.Clients())
	}
}
