package detect

import (
	"math"
	"sync"
	"time"
)

const (
	// Gaps above this look like a human at the keyboard.
	ManualEditThreshold = 100 * time.Millisecond

	automatedGap   = 50 * time.Millisecond
	intervalWindow = 5
)

// ManualFilter classifies text changes as hand-typed or inserted by a tool,
// from the timing and size of consecutive changes on the same document.
type ManualFilter struct {
	mu        sync.Mutex
	last      map[string]time.Time
	intervals map[string][]float64 // ms
}

func NewManualFilter() *ManualFilter {
	return &ManualFilter{
		last:      make(map[string]time.Time),
		intervals: make(map[string][]float64),
	}
}

// IsManual records the change at now and reports whether it looks typed by hand.
// Ambiguous changes are reported as not manual so notifications are not missed.
func (f *ManualFilter) IsManual(doc Document, text string, now time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := doc.key()
	// an unseen document measures from the epoch, i.e. an enormous gap
	var lastMs int64
	if t, ok := f.last[key]; ok {
		lastMs = t.UnixMilli()
	}
	gap := float64(now.UnixMilli() - lastMs)
	f.last[key] = now

	iv := f.intervals[key]
	if len(iv) >= intervalWindow {
		iv = iv[1:]
	}
	iv = append(iv, gap)
	f.intervals[key] = iv

	length := textLen(text)
	threshold := float64(ManualEditThreshold.Milliseconds())
	fast := float64(automatedGap.Milliseconds())

	if length <= 3 && gap > threshold {
		return true
	}

	if len(iv) >= 3 {
		var sum float64
		for _, v := range iv {
			sum += v
		}
		avg := sum / float64(len(iv))
		regular := true
		for _, v := range iv {
			if math.Abs(v-avg) >= avg*0.5 {
				regular = false
				break
			}
		}
		if regular && avg > threshold {
			return true
		}
	}

	if looksTyped(text) && gap > fast {
		return true
	}

	// fast bursts and large inserts are automated, everything else is unclear
	return false
}

// Forget drops timing history for a document.
func (f *ManualFilter) Forget(doc Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.last, doc.key())
	delete(f.intervals, doc.key())
}
