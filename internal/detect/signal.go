// Package detect turns loosely correlated editor activity into notification
// signals. Every collector is a Source reporting into a single Emit.
package detect

import (
	"sync"
	"time"

	"voxnote/internal/clock"
)

// Reason tags carried by signals.
const (
	ReasonCodeInsertion   = "code insertion"
	ReasonMultiLine       = "multi-line block"
	ReasonGeneratedCode   = "generated code pattern"
	ReasonExplanation     = "explanation"
	ReasonSave            = "save"
	ReasonTerminal        = "terminal activity"
	ReasonChatInteraction = "chat interaction"
	ReasonExtension       = "extension activation"
	ReasonNewFile         = "new file creation"
)

// Signal is a hint that the assistant may have produced output.
type Signal struct {
	Reason string
	At     time.Time
}

type Emit func(Signal)

// Source is one origin of signals.
type Source interface {
	Subscribe(emit Emit)
}

// emitter is embedded by collectors.
type emitter struct {
	mu   sync.Mutex
	emit Emit
}

func (e *emitter) Subscribe(emit Emit) {
	e.mu.Lock()
	e.emit = emit
	e.mu.Unlock()
}

func (e *emitter) send(s Signal) {
	e.mu.Lock()
	emit := e.emit
	e.mu.Unlock()
	if emit != nil {
		emit(s)
	}
}

// Delays tracks the short settle timers collectors use before forwarding a
// signal, so they can all be cancelled on shutdown.
type Delays struct {
	clk clock.Clock

	mu     sync.Mutex
	seq    int
	timers map[int]clock.Timer
	closed bool
}

func NewDelays(clk clock.Clock) *Delays {
	return &Delays{clk: clk, timers: make(map[int]clock.Timer)}
}

func (d *Delays) After(delay time.Duration, f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	d.seq++
	id := d.seq
	d.timers[id] = d.clk.AfterFunc(delay, func() {
		d.mu.Lock()
		_, live := d.timers[id]
		delete(d.timers, id)
		d.mu.Unlock()
		if live {
			f()
		}
	})
}

// Len reports the number of outstanding delays.
func (d *Delays) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}

func (d *Delays) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for id, t := range d.timers {
		t.Stop()
		delete(d.timers, id)
	}
}
