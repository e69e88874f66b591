// Package protocol defines the JSON frames exchanged between the editor shim
// and the daemon's websocket bridge.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrUnknownEvent = errors.New("unknown event type")

// Inbound event types, sent by the editor.
const (
	EventTextChange   = "textChange"
	EventSave         = "save"
	EventActiveEditor = "activeEditor"
	EventTerminals    = "terminals"
	EventExtension    = "extension"
	EventFilesCreated = "filesCreated"
	EventSelection    = "selection"
)

// Outbound message types, sent by the daemon.
const (
	MessageStatus = "status"
	MessageToast  = "toast"
)

// Frame is the envelope of every websocket message.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type Document struct {
	URI      string `json:"uri"`
	Scheme   string `json:"scheme"`
	FileName string `json:"fileName"`
}

type TextChange struct {
	Document Document `json:"document"`
	// Text of the first content change.
	Text string `json:"text"`
}

type Save struct {
	Document Document `json:"document"`
}

type ActiveEditor struct {
	// Document is nil when no editor has focus.
	Document *Document `json:"document"`
}

type Terminals struct {
	Count int `json:"count"`
}

type Extension struct {
	ID     string `json:"id"`
	Active bool   `json:"active"`
}

type FilesCreated struct {
	Files []string `json:"files"`
}

type Selection struct {
	Document Document `json:"document"`
	Length   int      `json:"length"`
}

type Status struct {
	Enabled bool   `json:"enabled"`
	Busy    bool   `json:"busy"`
	Text    string `json:"text"`
	Tooltip string `json:"tooltip"`
}

type Toast struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// Encode wraps payload into a frame of the given type.
func Encode(typ string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", typ, err)
	}
	return json.Marshal(Frame{Type: typ, Data: data})
}

// DecodeEvent parses an inbound frame into its typed payload.
func DecodeEvent(raw []byte) (any, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("unmarshal frame: %w", err)
	}

	var v any
	switch f.Type {
	case EventTextChange:
		v = &TextChange{}
	case EventSave:
		v = &Save{}
	case EventActiveEditor:
		v = &ActiveEditor{}
	case EventTerminals:
		v = &Terminals{}
	case EventExtension:
		v = &Extension{}
	case EventFilesCreated:
		v = &FilesCreated{}
	case EventSelection:
		v = &Selection{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, f.Type)
	}

	if len(f.Data) > 0 {
		if err := json.Unmarshal(f.Data, v); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", f.Type, err)
		}
	}
	return v, nil
}

// DecodeMessage parses an outbound frame, as seen by a client.
func DecodeMessage(raw []byte) (any, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("unmarshal frame: %w", err)
	}

	var v any
	switch f.Type {
	case MessageStatus:
		v = &Status{}
	case MessageToast:
		v = &Toast{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, f.Type)
	}
	if err := json.Unmarshal(f.Data, v); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", f.Type, err)
	}
	return v, nil
}

// EventType returns the frame type for a typed event payload.
func EventType(v any) (string, error) {
	switch v.(type) {
	case TextChange, *TextChange:
		return EventTextChange, nil
	case Save, *Save:
		return EventSave, nil
	case ActiveEditor, *ActiveEditor:
		return EventActiveEditor, nil
	case Terminals, *Terminals:
		return EventTerminals, nil
	case Extension, *Extension:
		return EventExtension, nil
	case FilesCreated, *FilesCreated:
		return EventFilesCreated, nil
	case Selection, *Selection:
		return EventSelection, nil
	}
	return "", fmt.Errorf("%w: %T", ErrUnknownEvent, v)
}
