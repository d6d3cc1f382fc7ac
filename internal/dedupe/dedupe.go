// Package dedupe collapses events that describe the same real-world
// session, whether they came from one source scraped twice or from two
// sources covering the same rink.
package dedupe

import (
	"fmt"

	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/model"
)

// Events returns the input with duplicates removed. Two events are
// duplicates iff their cleaned title and start time (to the second)
// match. The first occurrence in input order is kept, which makes the
// function idempotent and order-stable.
func Events(events []model.CanonicalEvent) []model.CanonicalEvent {
	seen := make(map[string]bool, len(events))
	out := make([]model.CanonicalEvent, 0, len(events))
	for _, ev := range events {
		key := fmt.Sprintf("%s|%d", ev.Title, ev.StartTime.Unix())
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ev)
	}
	return out
}
