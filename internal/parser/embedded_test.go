package parser

import (
	"testing"
	"time"

	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/model"
)

const embeddedPayload = `<!DOCTYPE html>
<html>
<head>
<script>
  var pageConfig = {"theme": "da}rk", "analytics": {"enabled": true}};
</script>
</head>
<body>
<div id="calendar"></div>
<script>
  window.__SCHEDULE__ = {"2025-07-15": [{"name": "Stick & Puck", "start": "9:15am", "end": "10:45am"}, {"name": "Public Skate", "start": "6:00pm", "end": "8:00pm"}], "2025-07-16": [{"name": "Drop-In Hockey", "start": "12:00pm", "end": "1:30pm"}]};
  renderCalendar(window.__SCHEDULE__);
</script>
</body>
</html>`

func TestEmbeddedJSONParser_Parse(t *testing.T) {
	events, err := (&EmbeddedJSONParser{}).Parse([]byte(embeddedPayload), testCtx())
	if err != nil {
		t.Fatalf("Parse returned unexpected error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}

	first := events[0]
	if first.Title != "Stick & Puck" {
		t.Errorf("title = %q", first.Title)
	}
	if first.Category != model.CategoryStickAndPuck {
		t.Errorf("category = %q", first.Category)
	}
	// 9:15am civil on 2025-07-15 is 15:15 UTC in the summer offset.
	if want := time.Date(2025, time.July, 15, 15, 15, 0, 0, time.UTC); !first.StartTime.Equal(want) {
		t.Errorf("start = %v, want %v", first.StartTime, want)
	}
	if want := time.Date(2025, time.July, 15, 16, 45, 0, 0, time.UTC); !first.EndTime.Equal(want) {
		t.Errorf("end = %v, want %v", first.EndTime, want)
	}

	last := events[2]
	if last.Title != "Drop-In Hockey" || last.Category != model.CategoryDropInHockey {
		t.Errorf("last = %q / %q", last.Title, last.Category)
	}
}

// The schedule literal itself contains nested objects, so cutting at the
// first closing brace would hand the JSON decoder a truncated document.
func TestBalancedObject(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{`{"a": {"b": 2}} trailing`, `{"a": {"b": 2}}`, true},
		{`{"s": "br}ace"}`, `{"s": "br}ace"}`, true},
		{`{"s": "esc\"}ape"}`, `{"s": "esc\"}ape"}`, true},
		{`{"unterminated": {`, "", false},
	}
	for _, tt := range tests {
		got, ok := balancedObject(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("balancedObject(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestEmbeddedJSONParser_NoScheduleLiteral(t *testing.T) {
	page := `<html><script>var x = {"just": "config"};</script></html>`
	if _, err := (&EmbeddedJSONParser{}).Parse([]byte(page), testCtx()); err == nil {
		t.Fatal("expected error when no dated literal is present")
	}
}
