package monitor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"voxnote/internal/clock"
	"voxnote/internal/detect"
	"voxnote/pkg/protocol"
)

var start = time.Unix(1_700_000_000, 0)

type sink struct {
	mu      sync.Mutex
	reasons []string
}

func (s *sink) emit(sig detect.Signal) {
	s.mu.Lock()
	s.reasons = append(s.reasons, sig.Reason)
	s.mu.Unlock()
}

func (s *sink) get() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.reasons...)
}

func newMonitor(opts Options) (*Monitor, *sink, *clock.Manual) {
	clk := clock.NewManual(start)
	opts.Clock = clk
	m := New(opts)
	s := &sink{}
	m.Subscribe(s.emit)
	return m, s, clk
}

var file = protocol.Document{URI: "file:///w/add.js", Scheme: "file", FileName: "/w/add.js"}

func TestHandleDispatch(t *testing.T) {
	m, s, clk := newMonitor(Options{FilterManual: func() bool { return true }})

	m.Handle(&protocol.TextChange{Document: file, Text: strings.Repeat("function add(a, b) {\n  return a + b;\n}\n", 5)})
	m.Handle(&protocol.Terminals{Count: 1})
	m.Handle(&protocol.Save{Document: file})
	m.Handle(&protocol.Extension{ID: detect.ChatExtensionID, Active: true})
	m.Handle(&protocol.FilesCreated{Files: []string{"/w/new.go"}})
	m.Handle(&protocol.Selection{Document: file, Length: 500})
	m.Handle("garbage")
	clk.Advance(5 * time.Second)

	want := []string{
		detect.ReasonCodeInsertion, detect.ReasonMultiLine, detect.ReasonGeneratedCode,
		detect.ReasonTerminal, detect.ReasonSave, detect.ReasonExtension, detect.ReasonNewFile,
	}
	if got := s.get(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("reasons = %q, want %q", got, want)
	}
}

func TestActiveEditor(t *testing.T) {
	m, _, _ := newMonitor(Options{})
	if m.HasActiveEditor() {
		t.Fatal("active editor before any event")
	}
	m.Handle(&protocol.ActiveEditor{Document: &file})
	if !m.HasActiveEditor() {
		t.Fatal("editor not recorded")
	}
	m.Handle(&protocol.ActiveEditor{})
	if m.HasActiveEditor() {
		t.Fatal("editor still active after blur")
	}
}

func TestBurstOfEditsSignalsChat(t *testing.T) {
	m, s, clk := newMonitor(Options{
		FilterManual: func() bool { return true },
		Active:       func(string) bool { return false },
	})

	for i := 0; i < 6; i++ {
		m.Handle(&protocol.TextChange{Document: file, Text: "a"})
		clk.Advance(200 * time.Millisecond)
	}
	if got := s.get(); len(got) != 0 {
		t.Fatalf("typing produced %q", got)
	}

	m.Tick()
	clk.Advance(detect.ChatSettle)
	if got := s.get(); len(got) != 1 || got[0] != detect.ReasonChatInteraction {
		t.Fatalf("reasons = %q", got)
	}
}

func TestClipboardSampledEveryFifthTick(t *testing.T) {
	reads := 0
	m, _, _ := newMonitor(Options{Clipboard: func() (string, error) {
		reads++
		return "", nil
	}})

	for i := 0; i < 12; i++ {
		m.Tick()
	}
	if reads != 2 {
		t.Fatalf("clipboard read %d times, want 2", reads)
	}
	if len(m.Sources()) != 7 {
		t.Fatalf("sources = %d", len(m.Sources()))
	}
}

func TestRunProcessesPostedEvents(t *testing.T) {
	m := New(Options{})
	got := make(chan string, 1)
	m.Subscribe(func(sig detect.Signal) { got <- sig.Reason })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	m.Post(&protocol.Terminals{Count: 2})
	select {
	case r := <-got:
		if r != detect.ReasonTerminal {
			t.Fatalf("reason = %s", r)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("event not processed")
	}

	cancel()
	<-done
}

func TestWatchWorkspace(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0755); err != nil {
		t.Fatal(err)
	}
	m := New(Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := m.WatchWorkspace(ctx, root); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(root, ".git", "index"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(root, "main.go")
	if err := os.WriteFile(path, []byte("package main\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-m.events:
		fc, ok := ev.(*protocol.FilesCreated)
		if !ok || len(fc.Files) != 1 || fc.Files[0] != path {
			t.Fatalf("event = %#v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no file creation event")
	}
}
