//go:build !linux && !darwin && !windows

package audio

func PlayerCommand(path string, volume float64) (string, []string, error) {
	return "", nil, ErrNoPlayer
}
