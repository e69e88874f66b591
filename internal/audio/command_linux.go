//go:build linux

package audio

import (
	"fmt"
	"os/exec"
)

// PlayerCommand prefers paplay, which takes a volume, and falls back to aplay.
func PlayerCommand(path string, volume float64) (string, []string, error) {
	if p, err := exec.LookPath("paplay"); err == nil {
		// 65536 is PA_VOLUME_NORM
		return p, []string{fmt.Sprintf("--volume=%d", int(volume*65536)), path}, nil
	}
	if p, err := exec.LookPath("aplay"); err == nil {
		return p, []string{"-q", path}, nil
	}
	return "", nil, ErrNoPlayer
}
