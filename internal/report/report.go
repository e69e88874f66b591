// Package report rate-limits error logging and surfaces critical failures to
// the user once.
package report

import (
	"fmt"
	log "log/slog"
	"sync"
)

const (
	CategoryAudioCritical = "audio-critical"
	CategoryPlayback      = "playback"
	CategoryDetection     = "detection"
	CategoryConfig        = "config"
	CategoryTeardown      = "teardown"

	DefaultMaxPerKey = 5
)

// Reporter counts errors per category and message.
type Reporter struct {
	max int
	// Surface shows a message to the user.
	surface func(msg string)

	mu     sync.Mutex
	counts map[string]int
}

func New(surface func(msg string)) *Reporter {
	return &Reporter{
		max:     DefaultMaxPerKey,
		surface: surface,
		counts:  make(map[string]int),
	}
}

// Report logs err unless its key was already reported max times. It returns
// whether the error was logged.
func (r *Reporter) Report(category string, err error, attrs ...any) bool {
	if err == nil {
		return false
	}

	key := category + ":" + err.Error()

	r.mu.Lock()
	n := r.counts[key]
	if n >= r.max {
		r.mu.Unlock()
		return false
	}
	r.counts[key] = n + 1
	r.mu.Unlock()

	log.Error("Error reported", append([]any{"category", category, "err", err}, attrs...)...)

	if category == CategoryAudioCritical && n == 0 && r.surface != nil {
		r.surface(fmt.Sprintf("voxnote: %v", err))
	}
	return true
}

// Count returns how many times key category:message was logged.
func (r *Reporter) Count(category string, err error) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[category+":"+err.Error()]
}

// Reset forgets all counts.
func (r *Reporter) Reset() {
	r.mu.Lock()
	clear(r.counts)
	r.mu.Unlock()
}
