// Package monitor feeds host events to the signal collectors and drives the
// periodic checks from a single loop.
package monitor

import (
	"context"
	log "log/slog"
	"sync/atomic"
	"time"

	"voxnote/internal/clock"
	"voxnote/internal/detect"
	"voxnote/pkg/protocol"
)

const (
	TickInterval = time.Second
	// clipboard is sampled every few ticks
	clipboardEvery = 5
	queueSize      = 256
)

type Options struct {
	Clock clock.Clock
	// FilterManual reports whether hand-typed changes are vetoed.
	FilterManual func() bool
	// Active reports whether a reason is already scheduled or recently fired.
	Active func(reason string) bool
	// Clipboard reads the system clipboard. Nil disables sampling.
	Clipboard func() (string, error)
}

type Monitor struct {
	text      *detect.TextCollector
	save      *detect.SaveCollector
	terminals *detect.TerminalCollector
	activity  *detect.ActivityCollector
	extension *detect.ExtensionCollector
	files     *detect.FileCollector
	clipboard *detect.ClipboardCollector
	filter    *detect.ManualFilter
	delays    *detect.Delays

	events       chan any
	activeEditor atomic.Bool
	ticks        int
}

func New(opts Options) *Monitor {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	clk := opts.Clock
	delays := detect.NewDelays(clk)
	filter := detect.NewManualFilter()

	m := &Monitor{
		text:      detect.NewTextCollector(clk, filter, opts.FilterManual),
		save:      detect.NewSaveCollector(clk, delays),
		terminals: detect.NewTerminalCollector(clk),
		activity:  detect.NewActivityCollector(clk, delays, opts.Active),
		extension: detect.NewExtensionCollector(clk, delays),
		files:     detect.NewFileCollector(clk, delays),
		filter:    filter,
		delays:    delays,
		events:    make(chan any, queueSize),
	}
	if opts.Clipboard != nil {
		m.clipboard = detect.NewClipboardCollector(opts.Clipboard)
	}
	return m
}

// Sources lists every collector.
func (m *Monitor) Sources() []detect.Source {
	sources := []detect.Source{m.text, m.save, m.terminals, m.activity, m.extension, m.files}
	if m.clipboard != nil {
		sources = append(sources, m.clipboard)
	}
	return sources
}

// Subscribe routes every collector into emit.
func (m *Monitor) Subscribe(emit detect.Emit) {
	for _, s := range m.Sources() {
		s.Subscribe(emit)
	}
}

// HasActiveEditor reports whether the host last reported a focused editor.
func (m *Monitor) HasActiveEditor() bool {
	return m.activeEditor.Load()
}

// Post queues a host event for the loop. Events are dropped when the queue is
// full.
func (m *Monitor) Post(ev any) {
	select {
	case m.events <- ev:
	default:
		log.Warn("Monitor queue full, dropping event", "type", typeName(ev))
	}
}

func typeName(ev any) string {
	if t, err := protocol.EventType(ev); err == nil {
		return t
	}
	return "unknown"
}

func doc(d protocol.Document) detect.Document {
	return detect.Document{URI: d.URI, Scheme: d.Scheme, FileName: d.FileName}
}

// Handle dispatches one host event to the collectors.
func (m *Monitor) Handle(ev any) {
	switch e := ev.(type) {
	case *protocol.TextChange:
		d := doc(e.Document)
		m.activity.Bump(d)
		m.text.Change(d, e.Text)
	case *protocol.Save:
		m.save.Saved(doc(e.Document))
	case *protocol.ActiveEditor:
		m.activeEditor.Store(e.Document != nil)
		if e.Document != nil {
			m.activity.Bump(doc(*e.Document))
		}
	case *protocol.Terminals:
		m.terminals.Count(e.Count)
	case *protocol.Extension:
		m.extension.Changed(e.ID, e.Active)
	case *protocol.FilesCreated:
		m.files.Created(e.Files)
	case *protocol.Selection:
		detect.SelectionLogged(doc(e.Document), e.Length)
	default:
		log.Debug("Ignoring host event", "type", typeName(ev))
	}
}

// Tick runs the periodic collectors once.
func (m *Monitor) Tick() {
	m.activity.Tick()
	m.ticks++
	if m.clipboard != nil && m.ticks%clipboardEvery == 0 {
		m.clipboard.Poll()
	}
}

// Run processes queued events and ticks until ctx is done, then cancels the
// collectors' pending delays.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()
	defer m.delays.Close()

	log.Info("Monitor started")
	for {
		select {
		case <-ctx.Done():
			log.Info("Monitor stopped")
			return
		case ev := <-m.events:
			m.Handle(ev)
		case <-ticker.C:
			m.Tick()
		}
	}
}
