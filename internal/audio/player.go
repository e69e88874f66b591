package audio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	log "log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const DefaultTimeout = 10 * time.Second

var (
	ErrTimeout  = errors.New("audio playback timeout")
	ErrNoPlayer = errors.New("no audio player available")
	ErrBusy     = errors.New("audio already playing")
)

// Runner starts an external process and waits for it.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// CommandFunc builds the player invocation for a clip path and volume in [0,1].
type CommandFunc func(path string, volume float64) (string, []string, error)

// ExecRunner runs the command with os/exec; the process is killed when ctx ends.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = time.Second
	return cmd.Run()
}

// Player plays one clip at a time. A request arriving while another is playing
// is dropped, never queued.
type Player struct {
	cache     *Cache
	assetsDir string
	tempDir   string
	timeout   time.Duration
	runner    Runner
	command   CommandFunc

	playing atomic.Bool
}

type Option func(*Player)

func WithTempDir(dir string) Option      { return func(p *Player) { p.tempDir = dir } }
func WithTimeout(d time.Duration) Option { return func(p *Player) { p.timeout = d } }
func WithRunner(r Runner) Option         { return func(p *Player) { p.runner = r } }
func WithCommand(fn CommandFunc) Option  { return func(p *Player) { p.command = fn } }

func NewPlayer(cache *Cache, assetsDir string, opts ...Option) *Player {
	p := &Player{
		cache:     cache,
		assetsDir: assetsDir,
		tempDir:   filepath.Join(os.TempDir(), "voxnote"),
		timeout:   DefaultTimeout,
		runner:    ExecRunner{},
		command:   PlayerCommand,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Player) TempDir() string { return p.tempDir }

// Playing reports whether a playback is in flight.
func (p *Player) Playing() bool { return p.playing.Load() }

// Setup creates the temp directory and removes clips left by a previous run.
func (p *Player) Setup() error {
	if err := os.MkdirAll(p.tempDir, 0755); err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	removed := p.removeTempClips()
	log.Debug("Temp directory ready", "dir", p.tempDir, "removed", removed)
	return nil
}

// Close removes temp clips and the temp directory if it ended up empty.
func (p *Player) Close() error {
	p.removeTempClips()
	if err := os.Remove(p.tempDir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Debug("Temp directory not removed", "dir", p.tempDir, "err", err)
	}
	return nil
}

func (p *Player) removeTempClips() int {
	entries, err := os.ReadDir(p.tempDir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() || !isClip(e.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(p.tempDir, e.Name())); err != nil {
			log.Warn("Failed to remove temp clip", "file", e.Name(), "err", err)
			continue
		}
		n++
	}
	return n
}

// Play writes the clip to a unique temp file and runs the platform player on it.
// It returns ErrBusy without doing anything when another playback is in flight.
func (p *Player) Play(ctx context.Context, name string, volume float64) error {
	if !p.playing.CompareAndSwap(false, true) {
		log.Debug("Audio already playing, skipping", "clip", name)
		return ErrBusy
	}
	defer p.playing.Store(false)

	data, ok := p.cache.Get(name)
	if !ok {
		log.Warn("Audio not found in cache, falling back to disk", "clip", name)

		var err error
		data, err = os.ReadFile(filepath.Join(p.assetsDir, name))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("%w: %s", ErrClipNotFound, name)
			}
			return fmt.Errorf("read clip: %w", err)
		}
	}

	if err := os.MkdirAll(p.tempDir, 0755); err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}

	tmp := filepath.Join(p.tempDir, uuid.NewString()+"_"+name)
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write temp clip: %w", err)
	}
	defer func() {
		if err := os.Remove(tmp); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn("Failed to cleanup temp file", "path", tmp, "err", err)
		}
	}()

	prog, args, err := p.command(tmp, volume)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	log.Debug("Playing clip", "clip", name, "volume", volume, "player", prog)

	if err := p.runner.Run(runCtx, prog, args...); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s: %s", ErrTimeout, p.timeout, name)
		}
		return fmt.Errorf("%s: %w", prog, err)
	}

	log.Info("Audio played", "clip", name)
	return nil
}
