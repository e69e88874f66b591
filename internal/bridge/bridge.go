// Package bridge is the websocket endpoint the editor shim connects to. Host
// events flow in, status and toasts flow out to every client.
package bridge

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"

	"voxnote/pkg/protocol"
)

const (
	Path         = "/events"
	writeTimeout = 5 * time.Second
)

type Server struct {
	// OnEvent receives every decoded host event.
	OnEvent func(any)
	// OnConnect is called with a send function for each new client, to push
	// the current status.
	OnConnect func(send func(typ string, payload any) error)
	// OnDisconnect is called after a client is gone with the number of
	// clients still connected.
	OnDisconnect func(remaining int)

	upgrader ws.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	srv     *http.Server
}

type client struct {
	mu   sync.Mutex
	conn *ws.Conn
}

func (c *client) write(raw []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(ws.TextMessage, raw)
}

func New() *Server {
	return &Server{
		// the shim runs inside the editor, any local origin is fine
		upgrader: ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		clients:  make(map[*client]struct{}),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(Path, s.serveEvents)
	return mux
}

func (s *Server) serveEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("Websocket upgrade failed", "err", err)
		return
	}

	c := &client{conn: conn}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	n := len(s.clients)
	s.mu.Unlock()
	log.Info("Bridge client connected", "remote", r.RemoteAddr, "clients", n)

	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		remaining := len(s.clients)
		s.mu.Unlock()
		conn.Close()
		log.Info("Bridge client disconnected", "remote", r.RemoteAddr, "clients", remaining)
		if s.OnDisconnect != nil {
			s.OnDisconnect(remaining)
		}
	}()

	if s.OnConnect != nil {
		s.OnConnect(func(typ string, payload any) error {
			raw, err := protocol.Encode(typ, payload)
			if err != nil {
				return err
			}
			return c.write(raw)
		})
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if !ws.IsCloseError(err, ws.CloseNormalClosure, ws.CloseGoingAway) {
				log.Debug("Bridge read ended", "err", err)
			}
			return
		}

		ev, err := protocol.DecodeEvent(raw)
		if err != nil {
			log.Warn("Dropping bridge frame", "err", err)
			continue
		}
		if s.OnEvent != nil {
			s.OnEvent(ev)
		}
	}
}

// Broadcast sends one message to every connected client.
func (s *Server) Broadcast(typ string, payload any) error {
	raw, err := protocol.Encode(typ, payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	var errs []error
	for _, c := range clients {
		if err := c.write(raw); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Clients reports the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Listen starts serving on addr in the background and returns the bound address.
func (s *Server) Listen(addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	s.mu.Lock()
	s.srv = srv
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Bridge server stopped", "err", err)
		}
	}()

	log.Info("Bridge listening", "addr", ln.Addr().String(), "path", Path)
	return ln.Addr(), nil
}

// Shutdown stops the listener and closes every client.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	for c := range s.clients {
		c.conn.Close()
	}
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
