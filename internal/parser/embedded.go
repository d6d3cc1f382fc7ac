package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/classify"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/clock"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/model"
)

// EmbeddedJSONParser handles pages whose schedule lives in a script
// block as an object literal keyed by date, each date mapping to a list
// of named time slots.
type EmbeddedJSONParser struct{}

var dateKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// scheduleSlot is one per-day record inside the embedded literal.
type scheduleSlot struct {
	Name  string `json:"name"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// Parse locates the dated-key object literal inside the page's script
// blocks and combines each slot's clock readings with its date key.
func (p *EmbeddedJSONParser) Parse(payload []byte, ctx Context) ([]model.CanonicalEvent, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	var schedule map[string][]scheduleSlot
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if found, ok := extractSchedule(s.Text()); ok {
			schedule = found
			return false
		}
		return true
	})
	if schedule == nil {
		return nil, fmt.Errorf("%w: no dated schedule literal in any script block", ErrBadPayload)
	}

	// Date keys iterate sorted so repeated parses emit a stable order.
	dates := make([]string, 0, len(schedule))
	for d := range schedule {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	log := ctx.logger()
	var events []model.CanonicalEvent
	for _, dateKey := range dates {
		day, err := time.Parse("2006-01-02", dateKey)
		if err != nil {
			continue
		}
		for i, slot := range schedule[dateKey] {
			startMin, okStart := clock.ParseClock(slot.Start)
			endMin, okEnd := clock.ParseClock(slot.End)
			if !okStart || !okEnd {
				log.Warn("dropping slot with unparseable times",
					"source", ctx.SourceID, "date", dateKey, "name", slot.Name)
				continue
			}
			start := ctx.Policy.Combine(day, startMin)
			end := ctx.Policy.Combine(day, endMin)
			events = append(events, model.CanonicalEvent{
				ID:        fmt.Sprintf("%s:%s-%d", ctx.SourceID, dateKey, i),
				RinkID:    ctx.RinkID,
				Title:     slot.Name,
				StartTime: start,
				EndTime:   end,
				Category:  classify.Classify(slot.Name, ""),
			})
		}
	}
	return finalize(events, ctx), nil
}

// extractSchedule scans script text for an assigned object literal whose
// keys are dates. Candidate literals are cut out with a brace-depth scan;
// taking the first closing brace would truncate any nested object.
func extractSchedule(script string) (map[string][]scheduleSlot, bool) {
	for i := 0; i < len(script); i++ {
		if script[i] != '=' {
			continue
		}
		j := i + 1
		for j < len(script) && (script[j] == ' ' || script[j] == '\t' || script[j] == '\n' || script[j] == '\r') {
			j++
		}
		if j >= len(script) || script[j] != '{' {
			continue
		}
		literal, ok := balancedObject(script[j:])
		if !ok {
			continue
		}
		var schedule map[string][]scheduleSlot
		if err := json.Unmarshal([]byte(literal), &schedule); err != nil {
			continue
		}
		if hasDateKey(schedule) {
			return schedule, true
		}
	}
	return nil, false
}

// balancedObject returns the substring from the opening brace at s[0]
// through its true matching closing brace, tracking string literals so
// braces inside quoted values do not affect the depth count.
func balancedObject(s string) (string, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}

func hasDateKey(schedule map[string][]scheduleSlot) bool {
	for k := range schedule {
		if dateKeyPattern.MatchString(k) {
			return true
		}
	}
	return false
}
