// Package config holds the user-tunable notification settings.
package config

import (
	"encoding/json"
	"fmt"
	log "log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

const (
	appName        = "voxnote"
	configFileName = "settings.json"
)

// Voice profiles with their VOICEVOX speaker ids.
var SpeakerIDs = map[string]int{
	"zundamon": 3,
	"metan":    2,
	"tsumugi":  8,
	"kiritan":  108,
}

// Profiles lists the known voice profiles in a stable order.
var Profiles = []string{"zundamon", "metan", "tsumugi", "kiritan"}

const DefaultProfile = "zundamon"

// Settings mirrors the host settings schema.
type Settings struct {
	Enabled               bool    `json:"enabled"`
	VoiceCharacter        string  `json:"voiceCharacter"`
	Volume                float64 `json:"volume"`
	NotificationDelay     int     `json:"notificationDelay"` // ms
	EnableForErrors       bool    `json:"enableForErrors"`
	RandomTaskComplete    bool    `json:"randomTaskComplete"`
	FilterManualEdits     bool    `json:"filterManualEdits"`
	EnableStartupGreeting bool    `json:"enableStartupGreeting"`
	RandomChatInterval    float64 `json:"randomChatInterval"` // minutes, <=0 disables
}

// Defaults returns the built-in settings, overridden by VOXNOTE_* variables.
func Defaults() Settings {
	return Settings{
		Enabled:               getEnvBool("VOXNOTE_ENABLED", true),
		VoiceCharacter:        getEnv("VOXNOTE_VOICE", DefaultProfile),
		Volume:                getEnvFloat("VOXNOTE_VOLUME", 0.7),
		NotificationDelay:     getEnvInt("VOXNOTE_NOTIFICATION_DELAY", 500),
		EnableForErrors:       getEnvBool("VOXNOTE_ENABLE_FOR_ERRORS", true),
		RandomTaskComplete:    getEnvBool("VOXNOTE_RANDOM_TASK_COMPLETE", true),
		FilterManualEdits:     getEnvBool("VOXNOTE_FILTER_MANUAL_EDITS", true),
		EnableStartupGreeting: getEnvBool("VOXNOTE_STARTUP_GREETING", true),
		RandomChatInterval:    getEnvFloat("VOXNOTE_RANDOM_CHAT_INTERVAL", 30),
	}
}

// Normalize clamps out-of-range values.
func (s Settings) Normalize() Settings {
	if s.Volume < 0 {
		s.Volume = 0
	}
	if s.Volume > 1 {
		s.Volume = 1
	}
	if _, ok := SpeakerIDs[s.VoiceCharacter]; !ok {
		log.Warn("Unknown voice character, using default", "voice", s.VoiceCharacter, "default", DefaultProfile)
		s.VoiceCharacter = DefaultProfile
	}
	if s.NotificationDelay < 0 {
		s.NotificationDelay = 0
	}
	return s
}

// SpeakerID returns the VOICEVOX speaker for a profile, falling back to zundamon.
func SpeakerID(profile string) int {
	if id, ok := SpeakerIDs[profile]; ok {
		return id
	}
	return SpeakerIDs[DefaultProfile]
}

// DefaultPath returns the settings file location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, appName, configFileName), nil
}

// Store is the read-mostly settings cache backed by a JSON file.
type Store struct {
	path string

	mu       sync.RWMutex
	settings Settings
	subs     []func(Settings)
}

// Open loads settings from path. A missing file yields defaults.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	settings, err := s.read()
	if err != nil {
		return nil, err
	}
	s.settings = settings
	return s, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) read() (Settings, error) {
	settings := Defaults()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings.Normalize(), nil
		}
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	if err := json.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("unmarshal settings: %w", err)
	}

	return settings.Normalize(), nil
}

// Get returns a copy of the cached settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

func (s *Store) IsEnabled() bool {
	return s.Get().Enabled
}

// Save persists settings and publishes them to subscribers.
func (s *Store) Save(settings Settings) error {
	settings = settings.Normalize()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	s.apply(settings)
	return nil
}

// Toggle flips the enabled flag, persists it and returns the new value.
func (s *Store) Toggle() (bool, error) {
	settings := s.Get()
	settings.Enabled = !settings.Enabled
	if err := s.Save(settings); err != nil {
		return !settings.Enabled, err
	}
	return settings.Enabled, nil
}

// OnChange registers fn to receive settings whenever they change.
func (s *Store) OnChange(fn func(Settings)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// Refresh rereads the file and notifies subscribers if anything changed.
func (s *Store) Refresh() error {
	settings, err := s.read()
	if err != nil {
		return err
	}
	s.apply(settings)
	return nil
}

func (s *Store) apply(settings Settings) {
	s.mu.Lock()
	changed := settings != s.settings
	s.settings = settings
	subs := append([]func(Settings){}, s.subs...)
	s.mu.Unlock()

	if !changed {
		return
	}

	log.Info("Configuration refreshed",
		"enabled", settings.Enabled,
		"voice", settings.VoiceCharacter,
		"volume", settings.Volume,
	)
	for _, fn := range subs {
		fn(settings)
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}
