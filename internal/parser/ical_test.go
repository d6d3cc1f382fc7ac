package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/clock"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/model"
)

func testCtx() Context {
	return Context{
		SourceID: "test-src",
		RinkID:   "test-rink",
		Policy:   clock.Mountain,
		Now:      time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC),
	}
}

func icsPayload(lines ...string) []byte {
	return []byte(strings.Join(lines, "\r\n") + "\r\n")
}

func TestICalParser_NaiveTimesGoThroughPolicy(t *testing.T) {
	payload := icsPayload(
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Rink//EN",
		"BEGIN:VEVENT",
		"UID:evt-1",
		"SUMMARY:Public Skate",
		"DTSTART:20250715T180000",
		"DTEND:20250715T200000",
		"END:VEVENT",
		"END:VCALENDAR",
	)

	events, err := (&ICalParser{}).Parse(payload, testCtx())
	if err != nil {
		t.Fatalf("Parse returned unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if want := time.Date(2025, time.July, 16, 0, 0, 0, 0, time.UTC); !ev.StartTime.Equal(want) {
		t.Errorf("start = %v, want %v", ev.StartTime, want)
	}
	if want := time.Date(2025, time.July, 16, 2, 0, 0, 0, time.UTC); !ev.EndTime.Equal(want) {
		t.Errorf("end = %v, want %v", ev.EndTime, want)
	}
	if ev.Category != model.CategoryPublicSkate {
		t.Errorf("category = %q, want %q", ev.Category, model.CategoryPublicSkate)
	}
	if ev.RinkID != "test-rink" {
		t.Errorf("rink = %q", ev.RinkID)
	}
}

func TestICalParser_MissingDTENDProducesNoEvent(t *testing.T) {
	payload := icsPayload(
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Rink//EN",
		"BEGIN:VEVENT",
		"UID:evt-open",
		"SUMMARY:Open Ended Session",
		"DTSTART:20250716T100000",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:evt-ok",
		"SUMMARY:Stick and Puck",
		"DTSTART:20250716T000000Z",
		"DTEND:20250716T020000Z",
		"END:VEVENT",
		"END:VCALENDAR",
	)

	events, err := (&ICalParser{}).Parse(payload, testCtx())
	if err != nil {
		t.Fatalf("Parse returned unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1 (block without DTEND must not emit)", len(events))
	}
	if events[0].Title != "Stick and Puck" {
		t.Errorf("title = %q", events[0].Title)
	}
	// The Z-suffixed value is absolute already; the policy must not touch it.
	if want := time.Date(2025, time.July, 16, 0, 0, 0, 0, time.UTC); !events[0].StartTime.Equal(want) {
		t.Errorf("start = %v, want %v", events[0].StartTime, want)
	}
}

func TestICalParser_UnescapesText(t *testing.T) {
	payload := icsPayload(
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Rink//EN",
		"BEGIN:VEVENT",
		"UID:evt-esc",
		`SUMMARY:Public Skate\, All Ages`,
		"DTSTART:20250715T090000",
		"DTEND:20250715T110000",
		"END:VEVENT",
		"END:VCALENDAR",
	)

	events, err := (&ICalParser{}).Parse(payload, testCtx())
	if err != nil {
		t.Fatalf("Parse returned unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if got := events[0].Title; got != "Public Skate, All Ages" {
		t.Errorf("title = %q, want unescaped comma", got)
	}
}

func TestICalParser_RejectsGarbage(t *testing.T) {
	if _, err := (&ICalParser{}).Parse([]byte("this is not a calendar"), testCtx()); err == nil {
		t.Fatal("expected error for non-ICS payload")
	}
}
