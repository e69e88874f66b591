package detect

import (
	log "log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"voxnote/internal/clock"
)

const (
	SaveSettle      = 500 * time.Millisecond
	ChatSettle      = 4 * time.Second
	NewFileSettle   = 2 * time.Second
	ExtensionSettle = time.Second

	ActivityThreshold = 5.0
	ActivityDecay     = 0.5

	ClipboardMinLen = 100
	SelectionMinLen = 200
)

// ChatExtensionID is the assistant chat extension whose activation is watched.
const ChatExtensionID = "GitHub.copilot-chat"

func textLen(s string) int { return utf8.RuneCountInString(s) }

// TextCollector inspects inserted text.
type TextCollector struct {
	emitter
	clk    clock.Clock
	filter *ManualFilter
	// FilterManual reports whether the manual-edit veto is switched on.
	FilterManual func() bool
}

func NewTextCollector(clk clock.Clock, filter *ManualFilter, filterManual func() bool) *TextCollector {
	return &TextCollector{clk: clk, filter: filter, FilterManual: filterManual}
}

// Change analyses the first content change of a document edit.
func (c *TextCollector) Change(doc Document, text string) {
	if IsIgnoredPath(doc) {
		return
	}

	now := c.clk.Now()
	length := textLen(text)

	if c.FilterManual != nil && c.FilterManual() && c.filter.IsManual(doc, text, now) {
		log.Debug("Skipping notification: manual editing", "file", doc.FileName, "length", length)
		return
	}

	code := LooksLikeGeneratedCode(text)

	if length > 50 && (length > 150 || code) {
		c.send(Signal{Reason: ReasonCodeInsertion, At: now})
	}
	if lines := strings.Count(text, "\n"); lines > 3 {
		c.send(Signal{Reason: ReasonMultiLine, At: now})
	}
	if length > 30 && code {
		c.send(Signal{Reason: ReasonGeneratedCode, At: now})
	}
	if length > 20 && LooksLikeExplanation(text) {
		c.send(Signal{Reason: ReasonExplanation, At: now})
	}
}

// SaveCollector forwards document saves after a short settle delay.
type SaveCollector struct {
	emitter
	clk    clock.Clock
	delays *Delays
}

func NewSaveCollector(clk clock.Clock, delays *Delays) *SaveCollector {
	return &SaveCollector{clk: clk, delays: delays}
}

func (c *SaveCollector) Saved(doc Document) {
	if IsSettingsFile(doc) {
		log.Debug("Skipping settings/config file save", "file", doc.FileName)
		return
	}
	c.delays.After(SaveSettle, func() {
		c.send(Signal{Reason: ReasonSave, At: c.clk.Now()})
	})
}

// TerminalCollector signals when the number of open terminals grows.
type TerminalCollector struct {
	emitter
	clk clock.Clock

	mu   sync.Mutex
	last int
}

func NewTerminalCollector(clk clock.Clock) *TerminalCollector {
	return &TerminalCollector{clk: clk}
}

func (c *TerminalCollector) Count(n int) {
	c.mu.Lock()
	grew := n > c.last
	c.last = n
	c.mu.Unlock()

	if grew {
		log.Debug("New terminal detected", "count", n)
		c.send(Signal{Reason: ReasonTerminal, At: c.clk.Now()})
	}
}

// ActivityCollector keeps a rolling count of editor events. Crossing the
// threshold suggests a burst of chat-driven edits.
type ActivityCollector struct {
	emitter
	clk    clock.Clock
	delays *Delays
	// Active reports whether a reason is already scheduled or recently fired.
	Active func(reason string) bool

	mu    sync.Mutex
	count float64
}

func NewActivityCollector(clk clock.Clock, delays *Delays, active func(string) bool) *ActivityCollector {
	return &ActivityCollector{clk: clk, delays: delays, Active: active}
}

func (c *ActivityCollector) Bump(doc Document) {
	if IsSettingsFile(doc) {
		return
	}
	c.mu.Lock()
	c.count++
	c.mu.Unlock()
}

func (c *ActivityCollector) Count() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Tick runs once per monitor tick.
func (c *ActivityCollector) Tick() {
	c.mu.Lock()
	burst := c.count > ActivityThreshold
	if burst {
		log.Debug("High activity detected", "events", c.count)
		c.count = 0
	}
	if c.count > 0 {
		c.count -= ActivityDecay
		if c.count < 0 {
			c.count = 0
		}
	}
	c.mu.Unlock()

	if !burst {
		return
	}
	if c.Active != nil && c.Active(ReasonChatInteraction) {
		return
	}
	c.delays.After(ChatSettle, func() {
		c.send(Signal{Reason: ReasonChatInteraction, At: c.clk.Now()})
	})
}

// ExtensionCollector watches the chat extension's activation state.
type ExtensionCollector struct {
	emitter
	clk    clock.Clock
	delays *Delays
}

func NewExtensionCollector(clk clock.Clock, delays *Delays) *ExtensionCollector {
	return &ExtensionCollector{clk: clk, delays: delays}
}

func (c *ExtensionCollector) Changed(id string, active bool) {
	if id != ChatExtensionID || !active {
		return
	}
	log.Debug("Chat extension state changed - now active")
	c.delays.After(ExtensionSettle, func() {
		c.send(Signal{Reason: ReasonExtension, At: c.clk.Now()})
	})
}

// FileCollector signals new files appearing in the workspace.
type FileCollector struct {
	emitter
	clk    clock.Clock
	delays *Delays
}

func NewFileCollector(clk clock.Clock, delays *Delays) *FileCollector {
	return &FileCollector{clk: clk, delays: delays}
}

func (c *FileCollector) Created(files []string) {
	var kept int
	for _, f := range files {
		if IsIgnoredPath(Document{FileName: f}) {
			continue
		}
		kept++
	}
	if kept == 0 {
		return
	}
	log.Debug("New files detected", "count", kept)
	c.delays.After(NewFileSettle, func() {
		c.send(Signal{Reason: ReasonNewFile, At: c.clk.Now()})
	})
}

// ClipboardCollector samples the clipboard. Copies are usually made by the user,
// so large code-like content is only recorded as an observation.
type ClipboardCollector struct {
	emitter
	read func() (string, error)

	mu       sync.Mutex
	last     string
	Observed int
}

func NewClipboardCollector(read func() (string, error)) *ClipboardCollector {
	return &ClipboardCollector{read: read}
}

func (c *ClipboardCollector) Poll() {
	text, err := c.read()
	if err != nil {
		// clipboard access fails on headless sessions
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if text == c.last {
		return
	}
	c.last = text

	if textLen(text) > ClipboardMinLen && (LooksLikeGeneratedCode(text) || LooksLikeExplanation(text)) {
		c.Observed++
		log.Debug("Potential assistant content in clipboard", "length", textLen(text))
	}
}

// SelectionLogged reports large selections, which often mean output is being
// reviewed. It never signals.
func SelectionLogged(doc Document, length int) bool {
	if length > SelectionMinLen {
		log.Debug("Large text selection", "file", doc.FileName, "length", length)
		return true
	}
	return false
}
