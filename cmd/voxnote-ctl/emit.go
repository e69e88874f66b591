package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"voxnote/pkg/protocol"
)

var bridgeURL string

func init() {
	emit := &cobra.Command{
		Use:   "emit <type> <json>",
		Short: "Send one host event to the daemon bridge",
		Long: `Send one host event, e.g. emit terminals '{"count":2}'. Useful for wiring editors without an extension.

Notifications only play while an editor is active. Send an activeEditor event
with a document first, e.g.
  emit activeEditor '{"document":{"uri":"file:///w/a.go","scheme":"file","fileName":"/w/a.go"}}'
and send it again without a document when no editor has focus. The daemon also
clears the active editor when the last bridge client disconnects, so emitted
events only fire while a host shim or voxnote-ctl listen stays connected.`,
		Args: cobra.ExactArgs(2),
		Run:  runEmit,
	}
	listen := &cobra.Command{
		Use:   "listen",
		Short: "Print status and toast messages from the daemon bridge",
		Args:  cobra.NoArgs,
		Run:   runListen,
	}

	for _, c := range []*cobra.Command{emit, listen} {
		c.Flags().StringVarP(&bridgeURL, "url", "u", "ws://127.0.0.1:8765/events", "Bridge websocket URL")
		rootCmd.AddCommand(c)
	}
}

func runEmit(cmd *cobra.Command, args []string) {
	raw, err := json.Marshal(protocol.Frame{Type: args[0], Data: json.RawMessage(args[1])})
	if err != nil {
		exitErr("encode", err)
	}
	ev, err := protocol.DecodeEvent(raw)
	if err != nil {
		exitErr("event", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := protocol.Dial(ctx, bridgeURL, time.Second)
	if err != nil {
		exitErr("connect", err)
	}
	defer c.Close()

	if err := c.Send(ev); err != nil {
		exitErr("send", err)
	}
}

func runListen(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c, err := protocol.Dial(ctx, bridgeURL, time.Second)
	if err != nil {
		exitErr("connect", err)
	}
	c.OnMessage = func(m any) {
		switch v := m.(type) {
		case *protocol.Status:
			fmt.Printf("status  %s (%s)\n", v.Text, v.Tooltip)
		case *protocol.Toast:
			fmt.Printf("toast   [%s] %s\n", v.Level, v.Text)
		}
	}
	if err := c.Run(ctx); err != nil && ctx.Err() == nil {
		exitErr("listen", err)
	}
}
