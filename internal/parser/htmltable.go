package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/classify"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/clock"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/model"
)

// HTMLTableParser handles server-rendered month-calendar tables. It is
// strictly the fallback for the source family whose embedded-JSON form
// is sometimes unavailable; when both are served, configure the
// embedded-json type instead.
type HTMLTableParser struct{}

var (
	cellTimeRange = regexp.MustCompile(`(?i)(\d{1,2}(?::\d{2})?\s*[ap]\.?m\.?)\s*[-\x{2013}]\s*(\d{1,2}(?::\d{2})?\s*[ap]\.?m\.?)`)
	monthHeader   = regexp.MustCompile(`(?i)(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{4})`)
	// No \b after the digits: calendar scrapes glue the day onto the
	// title ("15Public Skate"), and a letter is still a word character.
	cellDayNumber = regexp.MustCompile(`^\s*(\d{1,2})(\D|$)`)
	weekdayToken  = regexp.MustCompile(`(?i)\b(Sunday|Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sun|Mon|Tue|Wed|Thu|Fri|Sat)\b`)
)

var monthsByName = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June, "july": time.July,
	"august": time.August, "september": time.September, "october": time.October,
	"november": time.November, "december": time.December,
}

// Parse walks the calendar cells; a cell yields an event when it carries
// a recognizable clock range. The title is whatever cell text remains
// after stripping the range, date tokens and boilerplate.
func (p *HTMLTableParser) Parse(payload []byte, ctx Context) ([]model.CanonicalEvent, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	m := monthHeader.FindStringSubmatch(doc.Text())
	if m == nil {
		return nil, fmt.Errorf("%w: no month header found", ErrBadPayload)
	}
	month := monthsByName[strings.ToLower(m[1])]
	year, _ := strconv.Atoi(m[2])

	var events []model.CanonicalEvent
	seq := 0
	doc.Find("td").Each(func(_ int, cell *goquery.Selection) {
		text := strings.TrimSpace(cell.Text())
		rangeMatch := cellTimeRange.FindStringSubmatch(text)
		if rangeMatch == nil {
			return
		}
		startMin, okStart := clock.ParseClock(rangeMatch[1])
		endMin, okEnd := clock.ParseClock(rangeMatch[2])
		if !okStart || !okEnd {
			return
		}

		day := 0
		if dm := cellDayNumber.FindStringSubmatch(text); dm != nil {
			day, _ = strconv.Atoi(dm[1])
		}
		if attr, ok := cell.Attr("data-day"); ok {
			if d, err := strconv.Atoi(attr); err == nil {
				day = d
			}
		}
		if day < 1 || day > 31 {
			return
		}

		title := strings.Replace(text, rangeMatch[0], " ", 1)
		title = weekdayToken.ReplaceAllString(title, " ")
		title = monthHeader.ReplaceAllString(title, " ")
		title = cellDayNumber.ReplaceAllString(title, " $2")

		date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		seq++
		events = append(events, model.CanonicalEvent{
			ID:        fmt.Sprintf("%s:%s-%d", ctx.SourceID, date.Format("2006-01-02"), seq),
			RinkID:    ctx.RinkID,
			Title:     title,
			StartTime: ctx.Policy.Combine(date, startMin),
			EndTime:   ctx.Policy.Combine(date, endMin),
			Category:  classify.Classify(title, ""),
		})
	})
	return finalize(events, ctx), nil
}
