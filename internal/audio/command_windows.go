//go:build windows

package audio

import (
	"fmt"
)

func PlayerCommand(path string, volume float64) (string, []string, error) {
	script := fmt.Sprintf(
		`Add-Type -AssemblyName presentationCore; $player = New-Object System.Windows.Media.MediaPlayer; $player.Open([uri]"%s"); $player.Volume = %.2f; $player.Play(); Start-Sleep -Seconds 3`,
		path, volume,
	)
	return "powershell.exe", []string{"-NoProfile", "-NonInteractive", "-Command", script}, nil
}
