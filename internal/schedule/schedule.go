// Package schedule debounces detection signals into at most one notification
// per cooldown window.
package schedule

import (
	log "log/slog"
	"sync"
	"time"

	"voxnote/internal/clock"
	"voxnote/internal/detect"
)

const (
	DefaultGrace        = 2 * time.Second
	DefaultCooldown     = 10 * time.Second
	DefaultChatCooldown = 3 * time.Second
	DefaultResetAfter   = 10 * time.Second
)

// Options tune the scheduler. Zero fields take the defaults.
type Options struct {
	Clock        clock.Clock
	Grace        time.Duration
	Cooldown     time.Duration
	ChatCooldown time.Duration
	ResetAfter   time.Duration

	// Gate is consulted when the grace delay expires. A false result drops the
	// notification.
	Gate func() bool
}

// Scheduler keeps a single pending notification. A newly accepted signal
// replaces the pending one instead of queueing behind it.
type Scheduler struct {
	clk  clock.Clock
	opts Options
	fire func(reason string)

	mu         sync.Mutex
	active     map[string]struct{}
	pending    clock.Timer
	pendingGen int
	reset      clock.Timer
	lastFired  time.Time
	closed     bool
}

func New(fire func(reason string), opts Options) *Scheduler {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Grace <= 0 {
		opts.Grace = DefaultGrace
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	if opts.ChatCooldown <= 0 {
		opts.ChatCooldown = DefaultChatCooldown
	}
	if opts.ResetAfter <= 0 {
		opts.ResetAfter = DefaultResetAfter
	}
	return &Scheduler{
		clk:    opts.Clock,
		opts:   opts,
		fire:   fire,
		active: make(map[string]struct{}),
	}
}

func (s *Scheduler) cooldown(reason string) time.Duration {
	if reason == detect.ReasonChatInteraction {
		return s.opts.ChatCooldown
	}
	return s.opts.Cooldown
}

// Submit offers a signal and reports whether it was accepted.
func (s *Scheduler) Submit(sig detect.Signal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	now := s.clk.Now()
	if !s.lastFired.IsZero() && now.Sub(s.lastFired) < s.cooldown(sig.Reason) {
		log.Debug("Notification blocked by cooldown", "reason", sig.Reason)
		return false
	}
	if _, ok := s.active[sig.Reason]; ok {
		log.Debug("Notification blocked, reason already active", "reason", sig.Reason)
		return false
	}

	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
		log.Debug("Cancelled previous pending notification")
	}

	s.active[sig.Reason] = struct{}{}
	s.pendingGen++
	gen := s.pendingGen
	s.pending = s.clk.AfterFunc(s.opts.Grace, func() { s.expire(gen, sig.Reason) })

	log.Debug("Scheduled notification", "reason", sig.Reason, "in", s.opts.Grace)
	return true
}

func (s *Scheduler) expire(gen int, reason string) {
	s.mu.Lock()
	if s.closed || gen != s.pendingGen || s.pending == nil {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	s.mu.Unlock()

	if s.opts.Gate != nil && !s.opts.Gate() {
		log.Debug("Scheduled notification dropped", "reason", reason)
		s.mu.Lock()
		delete(s.active, reason)
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.lastFired = s.clk.Now()
	if s.reset != nil {
		s.reset.Stop()
	}
	s.reset = s.clk.AfterFunc(s.opts.ResetAfter, s.clearActive)
	s.mu.Unlock()

	log.Info("Completion detected", "reason", reason)
	if s.fire != nil {
		s.fire(reason)
	}
}

func (s *Scheduler) clearActive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.active)
	s.reset = nil
}

// IsActive reports whether reason is scheduled or fired within the current window.
func (s *Scheduler) IsActive(reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[reason]
	return ok
}

// Pending reports whether a notification is waiting for its grace delay.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// LastFired returns the time of the most recent notification, zero if none.
func (s *Scheduler) LastFired() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFired
}

// Close cancels all timers. Later submissions are rejected.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	if s.reset != nil {
		s.reset.Stop()
		s.reset = nil
	}
	clear(s.active)
}
