// Package ipc is the control channel between voxnote-ctl and the daemon: one
// JSON request and one JSON reply per unix socket connection.
package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"net"
	"os"
	"path/filepath"
	"time"
)

// Commands understood by the daemon.
const (
	CmdToggle = "toggle"
	CmdTest   = "test"
	CmdReplay = "replay"
	CmdRandom = "random"
	CmdNight  = "night"
	CmdStatus = "status"
	CmdReload = "reload"
)

const dialTimeout = 2 * time.Second

type ControlMessage struct {
	Cmd  string   `json:"cmd"`
	Args []string `json:"args,omitempty"`
}

type Reply struct {
	OK    bool              `json:"ok"`
	Error string            `json:"error,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

// DefaultSocketPath places the socket in the user runtime dir when available.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "voxnote.sock")
	}
	return filepath.Join(os.TempDir(), "voxnote.sock")
}

// StartServer listens on path and serves each connection with handler. The
// returned closer stops accepting and removes the socket.
func StartServer(path string, handler func(ControlMessage) Reply) (io.Closer, error) {
	os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				log.Warn("Control accept failed", "err", err)
				continue
			}
			go handleConn(conn, handler)
		}
	}()

	log.Info("Control socket listening", "path", path)
	return ln, nil
}

func handleConn(conn net.Conn, handler func(ControlMessage) Reply) {
	defer conn.Close()

	var msg ControlMessage
	dec := json.NewDecoder(conn)
	if err := dec.Decode(&msg); err != nil {
		log.Debug("Bad control message", "err", err)
		return
	}

	log.Debug("Control command", "cmd", msg.Cmd, "args", msg.Args)
	reply := handler(msg)
	if err := json.NewEncoder(conn).Encode(reply); err != nil {
		log.Debug("Failed to write control reply", "err", err)
	}
}

// SendCommand sends msg to the daemon at path and waits for its reply.
func SendCommand(path string, msg ControlMessage) (Reply, error) {
	conn, err := net.DialTimeout("unix", path, dialTimeout)
	if err != nil {
		return Reply{}, fmt.Errorf("connect to daemon: %w", err)
	}
	defer conn.Close()

	if err := json.NewEncoder(conn).Encode(msg); err != nil {
		return Reply{}, fmt.Errorf("send command: %w", err)
	}

	var reply Reply
	if err := json.NewDecoder(conn).Decode(&reply); err != nil {
		return Reply{}, fmt.Errorf("read reply: %w", err)
	}
	if !reply.OK {
		return reply, errors.New(reply.Error)
	}
	return reply, nil
}
