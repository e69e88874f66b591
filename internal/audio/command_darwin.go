//go:build darwin

package audio

import (
	"strconv"
)

func PlayerCommand(path string, volume float64) (string, []string, error) {
	return "afplay", []string{"-v", strconv.FormatFloat(volume, 'f', 2, 64), path}, nil
}
