package parser

import (
	"testing"
	"time"

	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/model"
)

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"15Public Skate", "Public Skate"},
		{"- Stick & Puck", "Stick & Puck"},
		{"** Drop-In Hockey", "Drop-In Hockey"},
		{"Public Skate Click Here to Register", "Public Skate"},
		{"Register Now Open Skate", "Open Skate"},
		{"  Learn   to  Skate ", "Learn to Skate"},
		{"Freestyle", "Freestyle"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanTitle(tt.in); got != tt.want {
			t.Errorf("CleanTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFinalize_RetentionWindow(t *testing.T) {
	ctx := testCtx() // now = 2025-07-01T00:00Z
	mk := func(start time.Time) model.CanonicalEvent {
		return model.CanonicalEvent{
			Title:     "Public Skate",
			StartTime: start,
			EndTime:   start.Add(time.Hour),
		}
	}

	events := []model.CanonicalEvent{
		mk(time.Date(2025, time.June, 30, 12, 0, 0, 0, time.UTC)),   // past
		mk(time.Date(2025, time.July, 15, 12, 0, 0, 0, time.UTC)),   // in window
		mk(time.Date(2025, time.August, 15, 12, 0, 0, 0, time.UTC)), // beyond 30 days
	}
	got := finalize(events, ctx)
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	if got[0].StartTime.Day() != 15 {
		t.Errorf("kept wrong event: %v", got[0].StartTime)
	}
}

func TestFinalize_WiderWindowDeviation(t *testing.T) {
	ctx := testCtx()
	ctx.WindowDays = 90
	ev := model.CanonicalEvent{
		Title:     "Fall League Game",
		StartTime: time.Date(2025, time.August, 15, 12, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2025, time.August, 15, 13, 0, 0, 0, time.UTC),
	}
	if got := finalize([]model.CanonicalEvent{ev}, ctx); len(got) != 1 {
		t.Fatalf("got %d events, want 1 under the widened window", len(got))
	}
}

func TestFinalize_DropsInvertedDuration(t *testing.T) {
	ctx := testCtx()
	start := time.Date(2025, time.July, 10, 12, 0, 0, 0, time.UTC)
	events := []model.CanonicalEvent{
		{Title: "Backwards", StartTime: start, EndTime: start.Add(-time.Hour)},
		{Title: "Zero Length", StartTime: start, EndTime: start},
		{Title: "Fine", StartTime: start, EndTime: start.Add(time.Hour)},
	}
	got := finalize(events, ctx)
	if len(got) != 1 || got[0].Title != "Fine" {
		t.Fatalf("finalize kept %v, want only the valid sibling", got)
	}
}
