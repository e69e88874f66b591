package audio

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

type ClipInfo struct {
	Format     string
	SampleRate int
	Channels   int
	Duration   time.Duration
}

// Probe decodes the clip header to check that it is playable.
func Probe(name string, data []byte) (ClipInfo, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".wav":
		return probeWAV(data)
	case ".mp3":
		return probeMP3(data)
	default:
		// sniff
		if bytes.HasPrefix(data, []byte("RIFF")) {
			return probeWAV(data)
		}
		return ClipInfo{}, fmt.Errorf("unsupported format: %s (supported: wav/mp3)", ext)
	}
}

func probeWAV(data []byte) (ClipInfo, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return ClipInfo{}, errors.New("invalid wav")
	}

	if err := dec.FwdToPCM(); err != nil {
		return ClipInfo{}, fmt.Errorf("wav data chunk: %w", err)
	}

	bytesPerSec := int64(dec.SampleRate) * int64(dec.NumChans) * int64(dec.BitDepth) / 8
	if bytesPerSec <= 0 {
		return ClipInfo{}, errors.New("invalid wav format chunk")
	}

	return ClipInfo{
		Format:     "wav",
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		Duration:   time.Duration(dec.PCMLen() * int64(time.Second) / bytesPerSec),
	}, nil
}

func probeMP3(data []byte) (ClipInfo, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return ClipInfo{}, fmt.Errorf("mp3 decoder: %w", err)
	}

	sr := dec.SampleRate()
	if sr <= 0 {
		return ClipInfo{}, errors.New("invalid mp3 sample rate")
	}

	// decoder output is 16-bit stereo
	frames := dec.Length() / 4
	return ClipInfo{
		Format:     "mp3",
		SampleRate: sr,
		Channels:   2,
		Duration:   time.Duration(float64(frames) / float64(sr) * float64(time.Second)),
	}, nil
}
