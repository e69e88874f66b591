package report

import (
	"errors"
	"testing"
)

func TestReportCapsPerKey(t *testing.T) {
	r := New(nil)
	err := errors.New("boom")

	logged := 0
	for i := 0; i < 8; i++ {
		if r.Report(CategoryPlayback, err) {
			logged++
		}
	}
	if logged != DefaultMaxPerKey {
		t.Fatalf("logged %d, want %d", logged, DefaultMaxPerKey)
	}
	if got := r.Count(CategoryPlayback, err); got != DefaultMaxPerKey {
		t.Fatalf("count = %d", got)
	}

	if !r.Report(CategoryPlayback, errors.New("other")) {
		t.Fatal("different message capped")
	}
	if !r.Report(CategoryDetection, err) {
		t.Fatal("different category capped")
	}

	r.Reset()
	if !r.Report(CategoryPlayback, err) {
		t.Fatal("capped after reset")
	}
}

func TestAudioCriticalSurfacedOnce(t *testing.T) {
	var shown []string
	r := New(func(msg string) { shown = append(shown, msg) })

	err := errors.New("no audio clips loaded")
	r.Report(CategoryAudioCritical, err)
	r.Report(CategoryAudioCritical, err)
	r.Report(CategoryPlayback, err)

	if len(shown) != 1 || shown[0] != "voxnote: no audio clips loaded" {
		t.Fatalf("shown = %q", shown)
	}
}

func TestReportNil(t *testing.T) {
	r := New(nil)
	if r.Report(CategoryConfig, nil) {
		t.Fatal("nil error reported")
	}
}
