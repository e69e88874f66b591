// Package notify decides which clip a notification plays and plays it.
package notify

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"voxnote/internal/audio"
	"voxnote/internal/config"
)

var (
	ErrNoLast    = errors.New("no previous notification to replay")
	ErrNoAmbient = errors.New("no ambient clips loaded")
)

// Player plays a clip by filename.
type Player interface {
	Play(ctx context.Context, name string, volume float64) error
}

// Clips is the preloaded clip cache.
type Clips interface {
	Load(dir string, names []string) (int, error)
	Names(prefix string) []string
	Clear()
}

type Options struct {
	// Toast shows a short message to the user when a clip falls back to text.
	Toast func(msg string)
	// OnError receives playback failures after they were handled locally.
	OnError func(err error)
	// Pick returns a random index in [0, n).
	Pick func(n int) int
	// Wait blocks for the configured notification delay.
	Wait func(ctx context.Context, d time.Duration) error
}

type Notifier struct {
	player    Player
	clips     Clips
	settings  func() config.Settings
	assetsDir string
	opts      Options

	mu   sync.Mutex
	last string
}

func New(player Player, clips Clips, settings func() config.Settings, assetsDir string, opts Options) *Notifier {
	if opts.Pick == nil {
		opts.Pick = rand.IntN
	}
	if opts.Wait == nil {
		opts.Wait = sleep
	}
	return &Notifier{
		player:    player,
		clips:     clips,
		settings:  settings,
		assetsDir: assetsDir,
		opts:      opts,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Preload fills the clip cache from the assets directory.
func (n *Notifier) Preload() (int, error) {
	return n.clips.Load(n.assetsDir, ExpectedFiles(n.assetsDir))
}

// Reload drops every cached clip and the replay target, then preloads again.
// A failed reload leaves the cache empty; playback falls back to disk.
func (n *Notifier) Reload() error {
	n.clips.Clear()
	n.mu.Lock()
	n.last = ""
	n.mu.Unlock()

	if _, err := n.Preload(); err != nil {
		return fmt.Errorf("reload clips: %w", err)
	}
	return nil
}

// Last returns the filename of the last played notification.
func (n *Notifier) Last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last
}

// Choose returns the clip for kind under the given settings.
func (n *Notifier) Choose(kind Kind, s config.Settings) string {
	if kind == KindTaskComplete && s.RandomTaskComplete {
		var pool []string
		for _, name := range n.clips.Names(taskCompletePrefix) {
			if isTaskComplete(name) {
				pool = append(pool, name)
			}
		}
		if len(pool) > 0 {
			i := n.opts.Pick(len(pool))
			log.Debug("Randomly selected task-complete clip", "clip", pool[i], "of", len(pool))
			return pool[i]
		}
	}
	return FileName(kind, s.VoiceCharacter)
}

// Notify plays the clip for kind if notifications are enabled.
func (n *Notifier) Notify(ctx context.Context, kind Kind) error {
	s := n.settings()
	if !s.Enabled {
		return nil
	}
	if kind == KindError && !s.EnableForErrors {
		return nil
	}
	return n.play(ctx, kind, s)
}

// Test plays a task-complete notification regardless of the enabled flag.
func (n *Notifier) Test(ctx context.Context) error {
	return n.play(ctx, KindTaskComplete, n.settings())
}

// Greet plays the activation clip when the startup greeting is on.
func (n *Notifier) Greet(ctx context.Context) error {
	s := n.settings()
	if !s.Enabled || !s.EnableStartupGreeting {
		return nil
	}
	return n.play(ctx, KindActivated, s)
}

func (n *Notifier) play(ctx context.Context, kind Kind, s config.Settings) error {
	if s.NotificationDelay > 0 {
		if err := n.opts.Wait(ctx, time.Duration(s.NotificationDelay)*time.Millisecond); err != nil {
			return err
		}
	}

	name := n.Choose(kind, s)
	played, err := n.playClip(ctx, name, s.Volume)
	if err != nil {
		log.Warn("Failed to play audio, using placeholder", "clip", name, "err", err)
		if n.opts.OnError != nil {
			n.opts.OnError(err)
		}
		n.placeholder(kind, s)
		return nil
	}
	if !played {
		return nil
	}

	n.mu.Lock()
	n.last = name
	n.mu.Unlock()
	return nil
}

// playClip plays one clip. A clip dropped because another one is still
// playing is not an error and reports played=false.
func (n *Notifier) playClip(ctx context.Context, name string, volume float64) (bool, error) {
	err := n.player.Play(ctx, name, volume)
	if errors.Is(err, audio.ErrBusy) {
		log.Debug("Skipping notification, audio busy", "clip", name)
		return false, nil
	}
	return err == nil, err
}

func (n *Notifier) placeholder(kind Kind, s config.Settings) {
	phrase := Phrase(kind, s.VoiceCharacter)
	log.Info("Audio placeholder", "phrase", phrase, "voice", s.VoiceCharacter, "volume", s.Volume)
	if n.opts.Toast != nil {
		n.opts.Toast(fmt.Sprintf("%s (%s)", phrase, s.VoiceCharacter))
	}
}

// Replay plays the last notification again.
func (n *Notifier) Replay(ctx context.Context) error {
	last := n.Last()
	if last == "" {
		return ErrNoLast
	}
	log.Info("Replaying last notification", "clip", last)
	_, err := n.playClip(ctx, last, n.settings().Volume)
	return err
}

// RandomChat plays one of the loaded ambient chat clips.
func (n *Notifier) RandomChat(ctx context.Context) error {
	pool := n.clips.Names(randomPrefix)
	if len(pool) == 0 {
		return ErrNoAmbient
	}
	_, err := n.playClip(ctx, pool[n.opts.Pick(len(pool))], n.settings().Volume)
	return err
}

// Night plays the midnight clip.
func (n *Notifier) Night(ctx context.Context) error {
	_, err := n.playClip(ctx, NightClip, n.settings().Volume)
	return err
}
