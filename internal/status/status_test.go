package status

import (
	"testing"
	"time"

	"voxnote/internal/clock"
)

func TestSetPublishesChanges(t *testing.T) {
	var got []State
	ind := NewIndicator(clock.NewManual(time.Unix(0, 0)), true, func(s State) { got = append(got, s) })

	ind.Set(true)
	ind.Set(false)
	ind.Set(false)
	ind.Set(true)

	if len(got) != 2 {
		t.Fatalf("published %d states, want 2", len(got))
	}
	if got[0].Enabled || got[0].Text != "voxnote muted" {
		t.Fatalf("first = %+v", got[0])
	}
	if !got[1].Enabled || got[1].Text != "voxnote on" {
		t.Fatalf("second = %+v", got[1])
	}
}

func TestShowActivityFlash(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	var got []State
	ind := NewIndicator(clk, false, func(s State) { got = append(got, s) })

	ind.ShowActivity()
	if !ind.State().Busy {
		t.Fatal("not busy after ShowActivity")
	}

	clk.Advance(time.Second)
	ind.ShowActivity()
	clk.Advance(time.Second + 500*time.Millisecond)
	if !ind.State().Busy {
		t.Fatal("second flash ended early")
	}

	clk.Advance(500 * time.Millisecond)
	s := ind.State()
	if s.Busy || s.Enabled || s.Text != "voxnote muted" {
		t.Fatalf("state after flash = %+v", s)
	}
	if len(got) != 3 {
		t.Fatalf("published %d states, want 3", len(got))
	}
}

func TestCloseStopsFlash(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	ind := NewIndicator(clk, true, nil)
	ind.ShowActivity()
	ind.Close()
	if clk.Pending() != 0 {
		t.Fatalf("%d timers armed", clk.Pending())
	}
}
