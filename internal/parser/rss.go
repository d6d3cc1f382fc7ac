package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/classify"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/clock"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/model"
)

// RSSParser handles feeds where each <item> announces one session. The
// publish date carries the session start; the description carries an
// explicit "Time: 9:00am - 11:00am" range for the end.
type RSSParser struct{}

var timeRangePattern = regexp.MustCompile(`(?i)time:\s*(\d{1,2}(?::\d{2})?\s*[ap]\.?m\.?)\s*[-\x{2013}]\s*(\d{1,2}(?::\d{2})?\s*[ap]\.?m\.?)`)

// Parse emits one event per feed item.
func (p *RSSParser) Parse(payload []byte, ctx Context) ([]model.CanonicalEvent, error) {
	feed, err := gofeed.NewParser().ParseString(string(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	log := ctx.logger()
	var events []model.CanonicalEvent
	for _, item := range feed.Items {
		if item.PublishedParsed == nil {
			log.Warn("dropping item without publish date", "source", ctx.SourceID, "title", item.Title)
			continue
		}
		start := item.PublishedParsed.UTC()

		// The end time reuses the start date with the range's closing
		// clock reading. Items without a recognizable range get a
		// one-hour session so the end-after-start invariant holds.
		end := start.Add(time.Hour)
		if m := timeRangePattern.FindStringSubmatch(item.Description); m != nil {
			if minutes, ok := clock.ParseClock(m[2]); ok {
				startCivil := ctx.Policy.ToCivil(start)
				end = ctx.Policy.Combine(startCivil, minutes)
			}
		}

		id := item.GUID
		if id == "" {
			id = item.Link
		}
		if id == "" {
			id = uuid.NewString()
		}

		events = append(events, model.CanonicalEvent{
			ID:          fmt.Sprintf("%s:%s", ctx.SourceID, id),
			RinkID:      ctx.RinkID,
			Title:       item.Title,
			StartTime:   start,
			EndTime:     end,
			Category:    p.categorize(item),
			Description: strings.TrimSpace(item.Description),
			EventURL:    item.Link,
		})
	}
	return finalize(events, ctx), nil
}

// categorize prefers a recognized tag token in the item's categories or
// description over the title heuristic.
func (p *RSSParser) categorize(item *gofeed.Item) model.Category {
	for _, tag := range item.Categories {
		if c, ok := matchTag(tag); ok {
			return c
		}
	}
	descLower := strings.ToLower(item.Description)
	for _, c := range model.AllCategories {
		if c == model.CategoryOther {
			continue
		}
		if strings.Contains(descLower, strings.ToLower(string(c))) {
			return c
		}
	}
	return classify.Classify(item.Title, item.Description)
}

func matchTag(tag string) (model.Category, bool) {
	t := strings.ToLower(strings.TrimSpace(tag))
	for _, c := range model.AllCategories {
		if t == strings.ToLower(string(c)) {
			return c, true
		}
	}
	return "", false
}
