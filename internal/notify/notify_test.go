package notify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"voxnote/internal/audio"
	"voxnote/internal/config"
)

type fakePlayer struct {
	played  []string
	volumes []float64
	err     error
}

func (p *fakePlayer) Play(_ context.Context, name string, volume float64) error {
	p.played = append(p.played, name)
	p.volumes = append(p.volumes, volume)
	return p.err
}

func writeClips(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("clip:"+name), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

type fixture struct {
	n        *Notifier
	player   *fakePlayer
	cache    *audio.Cache
	settings config.Settings
	toasts   []string
	errs     []error
	waits    []time.Duration
	pick     int
}

func newFixture(t *testing.T, dir string) *fixture {
	t.Helper()
	f := &fixture{
		player:   &fakePlayer{},
		cache:    audio.NewCache(),
		settings: config.Settings{Enabled: true, VoiceCharacter: "zundamon", Volume: 0.7, EnableForErrors: true},
	}
	f.n = New(f.player, f.cache, func() config.Settings { return f.settings }, dir, Options{
		Toast:   func(msg string) { f.toasts = append(f.toasts, msg) },
		OnError: func(err error) { f.errs = append(f.errs, err) },
		Pick:    func(int) int { return f.pick },
		Wait: func(_ context.Context, d time.Duration) error {
			f.waits = append(f.waits, d)
			return nil
		},
	})
	return f
}

func TestFileName(t *testing.T) {
	tests := []struct {
		kind    Kind
		profile string
		want    string
	}{
		{KindTaskComplete, "zundamon", "task-complete_zundamon.wav"},
		{KindError, "metan", "completion-error_metan.wav"},
		{KindLongProcess, "kiritan", "long-process_kiritan.wav"},
		{KindActivated, "tsumugi", "activated-tsumugi.wav"},
	}
	for _, tt := range tests {
		if got := FileName(tt.kind, tt.profile); got != tt.want {
			t.Errorf("FileName(%s, %s) = %s, want %s", tt.kind, tt.profile, got, tt.want)
		}
	}
}

func TestExpectedFiles(t *testing.T) {
	dir := writeClips(t, "task-complete_bonus.mp3", "task-complete_zundamon.wav", "readme.txt")
	names := ExpectedFiles(dir)

	for _, want := range []string{
		"task-complete_zundamon.wav", "completion-success_metan.wav", "activated-kiritan.wav",
		NightClip, "random-2.wav", "task-complete_bonus.mp3",
	} {
		if !slices.Contains(names, want) {
			t.Errorf("missing %s", want)
		}
	}
	if slices.Contains(names, "readme.txt") {
		t.Error("non-clip file listed")
	}

	seen := map[string]bool{}
	for _, name := range names {
		if seen[name] {
			t.Errorf("duplicate %s", name)
		}
		seen[name] = true
	}
}

func TestNotifyRespectsSettings(t *testing.T) {
	f := newFixture(t, t.TempDir())
	ctx := context.Background()

	f.settings.Enabled = false
	f.n.Notify(ctx, KindTaskComplete)
	if len(f.player.played) != 0 {
		t.Fatalf("played while disabled: %v", f.player.played)
	}

	f.settings.Enabled = true
	f.settings.EnableForErrors = false
	f.n.Notify(ctx, KindError)
	if len(f.player.played) != 0 {
		t.Fatalf("played error kind with errors off: %v", f.player.played)
	}

	f.settings.EnableForErrors = true
	f.settings.VoiceCharacter = "metan"
	f.n.Notify(ctx, KindError)
	if want := []string{"completion-error_metan.wav"}; !slices.Equal(f.player.played, want) {
		t.Fatalf("played %v, want %v", f.player.played, want)
	}
	if f.player.volumes[0] != 0.7 {
		t.Fatalf("volume = %v", f.player.volumes[0])
	}
}

func TestNotifyWaitsConfiguredDelay(t *testing.T) {
	f := newFixture(t, t.TempDir())
	f.settings.NotificationDelay = 500

	if err := f.n.Notify(context.Background(), KindTaskComplete); err != nil {
		t.Fatal(err)
	}
	if len(f.waits) != 1 || f.waits[0] != 500*time.Millisecond {
		t.Fatalf("waits = %v", f.waits)
	}

	f.settings.NotificationDelay = 0
	f.n.Notify(context.Background(), KindTaskComplete)
	if len(f.waits) != 1 {
		t.Fatalf("waited with zero delay: %v", f.waits)
	}
}

func TestRandomTaskComplete(t *testing.T) {
	dir := writeClips(t, "task-complete_zundamon.wav", "task-complete_alt.mp3", "completion-success_zundamon.wav")
	f := newFixture(t, dir)
	if _, err := f.n.Preload(); err != nil {
		t.Fatal(err)
	}

	f.settings.RandomTaskComplete = true
	f.pick = 0
	if got := f.n.Choose(KindTaskComplete, f.settings); got != "task-complete_alt.mp3" {
		t.Fatalf("picked %s", got)
	}
	f.pick = 1
	if got := f.n.Choose(KindTaskComplete, f.settings); got != "task-complete_zundamon.wav" {
		t.Fatalf("picked %s", got)
	}
	if got := f.n.Choose(KindSuccess, f.settings); got != "completion-success_zundamon.wav" {
		t.Fatalf("random selection applied to %s", got)
	}

	f.settings.RandomTaskComplete = false
	f.settings.VoiceCharacter = "tsumugi"
	if got := f.n.Choose(KindTaskComplete, f.settings); got != "task-complete_tsumugi.wav" {
		t.Fatalf("picked %s", got)
	}
}

func TestPlaybackFailureFallsBackToPlaceholder(t *testing.T) {
	f := newFixture(t, t.TempDir())
	f.player.err = audio.ErrClipNotFound

	if err := f.n.Notify(context.Background(), KindTaskComplete); err != nil {
		t.Fatalf("Notify = %v, want recovered", err)
	}
	if len(f.toasts) != 1 || f.toasts[0] != "タスク完了なのだ！ (zundamon)" {
		t.Fatalf("toasts = %q", f.toasts)
	}
	if len(f.errs) != 1 || !errors.Is(f.errs[0], audio.ErrClipNotFound) {
		t.Fatalf("errs = %v", f.errs)
	}
	if f.n.Last() != "" {
		t.Fatalf("failed clip recorded as last: %s", f.n.Last())
	}
}

func TestBusyPlayerKeepsLast(t *testing.T) {
	f := newFixture(t, t.TempDir())
	ctx := context.Background()

	if err := f.n.Notify(ctx, KindTaskComplete); err != nil {
		t.Fatal(err)
	}

	f.player.err = audio.ErrBusy
	if err := f.n.Notify(ctx, KindSuccess); err != nil {
		t.Fatalf("Notify = %v, want nil when busy", err)
	}
	if err := f.n.Night(ctx); err != nil {
		t.Fatalf("Night = %v, want nil when busy", err)
	}
	if got := f.n.Last(); got != "task-complete_zundamon.wav" {
		t.Fatalf("last = %q, want the clip that actually played", got)
	}
	if len(f.toasts) != 0 || len(f.errs) != 0 {
		t.Fatalf("busy skip reported: toasts=%q errs=%v", f.toasts, f.errs)
	}
}

func TestReplay(t *testing.T) {
	f := newFixture(t, t.TempDir())
	ctx := context.Background()

	if err := f.n.Replay(ctx); !errors.Is(err, ErrNoLast) {
		t.Fatalf("Replay = %v, want ErrNoLast", err)
	}

	f.n.Notify(ctx, KindSuccess)
	if err := f.n.Replay(ctx); err != nil {
		t.Fatal(err)
	}
	want := []string{"completion-success_zundamon.wav", "completion-success_zundamon.wav"}
	if !slices.Equal(f.player.played, want) {
		t.Fatalf("played %v", f.player.played)
	}
}

func TestGreetAndTest(t *testing.T) {
	f := newFixture(t, t.TempDir())
	ctx := context.Background()

	f.settings.EnableStartupGreeting = false
	f.n.Greet(ctx)
	f.settings.EnableStartupGreeting = true
	f.settings.VoiceCharacter = "kiritan"
	f.n.Greet(ctx)

	f.settings.Enabled = false
	f.n.Test(ctx)

	want := []string{"activated-kiritan.wav", "task-complete_kiritan.wav"}
	if !slices.Equal(f.player.played, want) {
		t.Fatalf("played %v, want %v", f.player.played, want)
	}
}

func TestReloadClearsState(t *testing.T) {
	dir := writeClips(t, "task-complete_zundamon.wav")
	f := newFixture(t, dir)
	ctx := context.Background()

	if _, err := f.n.Preload(); err != nil {
		t.Fatal(err)
	}
	f.n.Notify(ctx, KindTaskComplete)
	if f.n.Last() == "" {
		t.Fatal("last not recorded")
	}

	if err := os.Remove(filepath.Join(dir, "task-complete_zundamon.wav")); err != nil {
		t.Fatal(err)
	}
	err := f.n.Reload()
	if !errors.Is(err, audio.ErrNoClips) {
		t.Fatalf("Reload = %v, want ErrNoClips", err)
	}
	if f.n.Last() != "" {
		t.Fatal("last survived reload")
	}
	if f.cache.Len() != 0 {
		t.Fatalf("cache holds %d clips", f.cache.Len())
	}
}

func TestAmbient(t *testing.T) {
	dir := writeClips(t, "random-1.wav", "random-3.wav", NightClip)
	f := newFixture(t, dir)
	ctx := context.Background()

	if err := f.n.RandomChat(ctx); !errors.Is(err, ErrNoAmbient) {
		t.Fatalf("RandomChat before preload = %v", err)
	}
	if _, err := f.n.Preload(); err != nil {
		t.Fatal(err)
	}

	f.pick = 1
	if err := f.n.RandomChat(ctx); err != nil {
		t.Fatal(err)
	}
	if err := f.n.Night(ctx); err != nil {
		t.Fatal(err)
	}
	want := []string{"random-3.wav", NightClip}
	if !slices.Equal(f.player.played, want) {
		t.Fatalf("played %v, want %v", f.player.played, want)
	}
}

func TestPhraseFallback(t *testing.T) {
	if got := Phrase(KindSuccess, "nobody"); got != Phrases[KindSuccess]["zundamon"] {
		t.Fatalf("Phrase = %s", got)
	}
	if got := Phrase(Kind("mystery"), "zundamon"); got != "mystery" {
		t.Fatalf("Phrase = %s", got)
	}
}
