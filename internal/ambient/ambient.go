// Package ambient runs the periodic chat clip and the midnight clip.
package ambient

import (
	log "log/slog"
	"math"
	"sync"
	"time"

	"voxnote/internal/clock"
)

// NextMidnight returns the first local midnight strictly after now.
func NextMidnight(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}

// MaxChatMinutes is the longest chat interval a time.Duration can hold.
const MaxChatMinutes = float64(math.MaxInt64 / int64(time.Minute))

// Timers owns the chat interval timer and the midnight timer.
type Timers struct {
	clk     clock.Clock
	onChat  func()
	onNight func()

	mu       sync.Mutex
	chat     clock.Timer
	chatGen  int
	night    clock.Timer
	nightGen int
}

func New(clk clock.Clock, onChat, onNight func()) *Timers {
	return &Timers{clk: clk, onChat: onChat, onNight: onNight}
}

// StartChat (re)starts the random chat timer. A non-positive interval in
// minutes disables it. Intervals above MaxChatMinutes are capped.
func (t *Timers) StartChat(minutes float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopChatLocked()
	if !(minutes > 0) {
		log.Info("Random chat timer disabled")
		return
	}
	if minutes > MaxChatMinutes {
		log.Warn("Random chat interval too long, capping", "minutes", minutes, "max", MaxChatMinutes)
		minutes = MaxChatMinutes
	}

	interval := time.Duration(minutes * float64(time.Minute))
	log.Info("Starting random chat timer", "interval", interval)
	t.armChatLocked(t.chatGen, interval)
}

func (t *Timers) armChatLocked(gen int, interval time.Duration) {
	t.chat = t.clk.AfterFunc(interval, func() {
		t.mu.Lock()
		if gen != t.chatGen {
			t.mu.Unlock()
			return
		}
		t.armChatLocked(gen, interval)
		t.mu.Unlock()

		log.Debug("Timer triggered random chat")
		t.onChat()
	})
}

func (t *Timers) stopChatLocked() {
	t.chatGen++
	if t.chat != nil {
		t.chat.Stop()
		t.chat = nil
	}
}

// StartNight arms the midnight timer, repeating every 24 hours.
func (t *Timers) StartNight() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopNightLocked()
	now := t.clk.Now()
	first := NextMidnight(now).Sub(now)
	log.Info("Starting midnight timer", "in", first.Round(time.Minute))
	t.armNightLocked(t.nightGen, first)
}

func (t *Timers) armNightLocked(gen int, d time.Duration) {
	t.night = t.clk.AfterFunc(d, func() {
		t.mu.Lock()
		if gen != t.nightGen {
			t.mu.Unlock()
			return
		}
		t.armNightLocked(gen, 24*time.Hour)
		t.mu.Unlock()

		log.Info("Midnight, playing night sound")
		t.onNight()
	})
}

func (t *Timers) stopNightLocked() {
	t.nightGen++
	if t.night != nil {
		t.night.Stop()
		t.night = nil
	}
}

func (t *Timers) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopChatLocked()
	t.stopNightLocked()
}
