// Package status keeps the two-state indicator shown to bridge clients.
package status

import (
	"sync"
	"time"

	"voxnote/internal/clock"
)

const ActivityFlash = 2 * time.Second

// State is what clients render.
type State struct {
	Enabled bool   `json:"enabled"`
	Busy    bool   `json:"busy"`
	Text    string `json:"text"`
	Tooltip string `json:"tooltip"`
}

type Indicator struct {
	clk     clock.Clock
	publish func(State)

	mu      sync.Mutex
	enabled bool
	busy    bool
	gen     int
	flash   clock.Timer
}

func NewIndicator(clk clock.Clock, enabled bool, publish func(State)) *Indicator {
	return &Indicator{clk: clk, publish: publish, enabled: enabled}
}

func render(enabled, busy bool) State {
	s := State{Enabled: enabled, Busy: busy}
	switch {
	case busy:
		s.Text = "voxnote ..."
		s.Tooltip = "Playing notification"
	case enabled:
		s.Text = "voxnote on"
		s.Tooltip = "Notifications enabled - toggle to mute"
	default:
		s.Text = "voxnote muted"
		s.Tooltip = "Notifications disabled - toggle to enable"
	}
	return s
}

func (i *Indicator) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return render(i.enabled, i.busy)
}

// Set switches between active and muted.
func (i *Indicator) Set(enabled bool) {
	i.mu.Lock()
	changed := i.enabled != enabled
	i.enabled = enabled
	s := render(i.enabled, i.busy)
	i.mu.Unlock()

	if changed {
		i.send(s)
	}
}

// ShowActivity flashes the busy state for a couple of seconds.
func (i *Indicator) ShowActivity() {
	i.mu.Lock()
	if i.flash != nil {
		i.flash.Stop()
	}
	i.busy = true
	i.gen++
	gen := i.gen
	i.flash = i.clk.AfterFunc(ActivityFlash, func() { i.endActivity(gen) })
	s := render(i.enabled, i.busy)
	i.mu.Unlock()

	i.send(s)
}

func (i *Indicator) endActivity(gen int) {
	i.mu.Lock()
	if gen != i.gen {
		i.mu.Unlock()
		return
	}
	i.busy = false
	i.flash = nil
	s := render(i.enabled, i.busy)
	i.mu.Unlock()

	i.send(s)
}

func (i *Indicator) send(s State) {
	if i.publish != nil {
		i.publish(s)
	}
}

// Close stops a running flash.
func (i *Indicator) Close() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.flash != nil {
		i.flash.Stop()
		i.flash = nil
	}
	i.gen++
}
