package protocol

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

// Client is the editor side of the bridge: it sends events and receives
// status and toast messages, redialing when the daemon goes away.
type Client struct {
	url    string
	reconn time.Duration

	mu   sync.Mutex
	conn *ws.Conn

	// OnMessage receives decoded outbound messages (*Status, *Toast).
	OnMessage func(any)
}

func Dial(ctx context.Context, url string, reconn time.Duration) (*Client, error) {
	log.Debug("Dialing bridge", "url", url)

	conn, _, err := ws.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	if reconn <= 0 {
		reconn = time.Second
	}
	return &Client{url: url, reconn: reconn, conn: conn}, nil
}

// Send encodes and writes one event.
func (c *Client) Send(event any) error {
	typ, err := EventType(event)
	if err != nil {
		return err
	}
	raw, err := Encode(typ, event)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	log.Debug("Write ws", "msg", string(raw))
	return c.conn.WriteMessage(ws.TextMessage, raw)
}

// Run reads messages until ctx is done.
func (c *Client) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		c.Close()
	}()

	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()

		_, raw, err := conn.ReadMessage()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			if !isClosed(err) {
				log.Error("Failed to read", "err", err)
			}
			log.Warn("Trying to reconnect", "url", c.url)
			if err := c.redial(ctx); err != nil {
				return err
			}
			log.Info("Reconnected", "url", c.url)
			continue
		}

		msg, err := DecodeMessage(raw)
		if err != nil {
			log.Warn("Failed to parse", "msg", string(raw), "err", err)
			continue
		}
		if c.OnMessage != nil {
			c.OnMessage(msg)
		}
	}
}

func (c *Client) redial(ctx context.Context) error {
	for {
		conn, _, err := ws.DefaultDialer.DialContext(ctx, c.url, nil)
		if err == nil {
			c.mu.Lock()
			c.conn = conn
			c.mu.Unlock()
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.reconn):
		}
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.conn.WriteMessage(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseNormalClosure, ""))
	if cerr := c.conn.Close(); err == nil {
		err = cerr
	}
	if errors.Is(err, ws.ErrCloseSent) {
		return nil
	}
	return err
}

func isClosed(err error) bool {
	return ws.IsCloseError(err,
		ws.CloseNormalClosure,
		ws.CloseGoingAway,
		ws.CloseAbnormalClosure)
}
