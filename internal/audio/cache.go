// Package audio keeps notification clips in memory and plays them through the
// platform's audio player.
package audio

import (
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var (
	ErrNoClips      = errors.New("no audio clips could be loaded")
	ErrClipNotFound = errors.New("audio clip not found")
)

// Cache maps clip filenames to their raw bytes. It is never evicted; Clear drops
// everything at once.
type Cache struct {
	mu    sync.RWMutex
	clips map[string][]byte
}

func NewCache() *Cache {
	return &Cache{clips: make(map[string][]byte)}
}

// Load reads every named clip from dir into the cache. Missing files are skipped
// with a warning; it fails only when nothing at all could be loaded.
func (c *Cache) Load(dir string, names []string) (int, error) {
	if _, err := os.Stat(dir); err != nil {
		return 0, fmt.Errorf("assets directory: %w", err)
	}

	loaded := 0
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				log.Debug("Audio file not found for preloading", "path", path)
			} else {
				log.Warn("Failed to read audio file", "path", path, "err", err)
			}
			continue
		}

		info, err := Probe(name, data)
		if err != nil {
			log.Warn("Clip did not decode, keeping raw bytes", "clip", name, "err", err)
		} else {
			log.Debug("Preloaded clip", "clip", name, "bytes", len(data), "format", info.Format, "duration", info.Duration)
		}

		c.mu.Lock()
		c.clips[name] = data
		c.mu.Unlock()
		loaded++
	}

	if loaded == 0 {
		return 0, fmt.Errorf("%w from %s", ErrNoClips, dir)
	}

	log.Info("Preloaded audio clips", "count", loaded, "dir", dir)
	return loaded, nil
}

func (c *Cache) Get(name string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.clips[name]
	return data, ok
}

// Names returns the cached filenames starting with prefix, sorted.
func (c *Cache) Names(prefix string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []string
	for name := range c.clips {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.clips)
}

func (c *Cache) Clear() {
	c.mu.Lock()
	c.clips = make(map[string][]byte)
	c.mu.Unlock()
}

// Scan lists the playable files in dir whose names start with prefix.
func Scan(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read assets dir: %w", err)
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !isClip(name) {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func isClip(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".wav", ".mp3":
		return true
	}
	return false
}
