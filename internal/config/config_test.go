package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenMissingFileUsesDefaults(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "settings.json"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	got := s.Get()
	if !got.Enabled {
		t.Error("Enabled should default to true")
	}
	if got.VoiceCharacter != "zundamon" {
		t.Errorf("VoiceCharacter = %q, want zundamon", got.VoiceCharacter)
	}
	if got.Volume != 0.7 {
		t.Errorf("Volume = %v, want 0.7", got.Volume)
	}
	if got.NotificationDelay != 500 {
		t.Errorf("NotificationDelay = %d, want 500", got.NotificationDelay)
	}
	if !got.FilterManualEdits || !got.RandomTaskComplete || !got.EnableForErrors {
		t.Errorf("boolean defaults wrong: %+v", got)
	}
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("VOXNOTE_VOICE", "metan")
	t.Setenv("VOXNOTE_VOLUME", "0.25")
	t.Setenv("VOXNOTE_ENABLED", "false")
	t.Setenv("VOXNOTE_RANDOM_CHAT_INTERVAL", "0")

	got := Defaults()
	if got.VoiceCharacter != "metan" || got.Volume != 0.25 || got.Enabled || got.RandomChatInterval != 0 {
		t.Errorf("Defaults() = %+v", got)
	}
}

func TestOpenPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"voiceCharacter":"tsumugi","volume":3}`), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	got := s.Get()
	if got.VoiceCharacter != "tsumugi" {
		t.Errorf("VoiceCharacter = %q, want tsumugi", got.VoiceCharacter)
	}
	if got.Volume != 1 {
		t.Errorf("Volume = %v, want clamped to 1", got.Volume)
	}
	if !got.Enabled {
		t.Error("Enabled should keep default true")
	}
}

func TestOpenInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{`), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Open(path); err == nil {
		t.Error("expected error for invalid json")
	}
}

func TestNormalizeUnknownVoice(t *testing.T) {
	s := Settings{VoiceCharacter: "nobody", Volume: -1, NotificationDelay: -5}.Normalize()
	if s.VoiceCharacter != DefaultProfile {
		t.Errorf("VoiceCharacter = %q, want %q", s.VoiceCharacter, DefaultProfile)
	}
	if s.Volume != 0 {
		t.Errorf("Volume = %v, want 0", s.Volume)
	}
	if s.NotificationDelay != 0 {
		t.Errorf("NotificationDelay = %d, want 0", s.NotificationDelay)
	}
}

func TestTogglePersistsAndNotifies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	var seen []bool
	s.OnChange(func(cfg Settings) { seen = append(seen, cfg.Enabled) })

	enabled, err := s.Toggle()
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if enabled {
		t.Error("Toggle() from default should disable")
	}
	if len(seen) != 1 || seen[0] {
		t.Errorf("subscribers saw %v, want [false]", seen)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if reopened.IsEnabled() {
		t.Error("toggled value was not persisted")
	}
}

func TestRefreshOnlyNotifiesOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	calls := 0
	s.OnChange(func(Settings) { calls++ })

	if err := s.Refresh(); err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Errorf("unchanged refresh notified %d times", calls)
	}

	if err := os.WriteFile(path, []byte(`{"voiceCharacter":"kiritan"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := s.Refresh(); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("changed refresh notified %d times, want 1", calls)
	}
	if s.Get().VoiceCharacter != "kiritan" {
		t.Errorf("VoiceCharacter = %q, want kiritan", s.Get().VoiceCharacter)
	}
}

func TestSpeakerID(t *testing.T) {
	tests := map[string]int{"zundamon": 3, "metan": 2, "tsumugi": 8, "kiritan": 108, "unknown": 3}
	for profile, want := range tests {
		if got := SpeakerID(profile); got != want {
			t.Errorf("SpeakerID(%q) = %d, want %d", profile, got, want)
		}
	}
}
