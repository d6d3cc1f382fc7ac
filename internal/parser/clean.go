package parser

import (
	"regexp"
	"strings"

	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/model"
)

// Calendar-cell scrapes glue the day-of-month digits onto the title
// ("15Public Skate"); strip the leading digits when a letter follows.
var leadingDayDigits = regexp.MustCompile(`^\d{1,2}([A-Za-z].*)$`)

// Promotional boilerplate that shows up inside scraped titles.
var promoPhrases = []string{
	"click here to register",
	"click here",
	"register now",
	"register online",
	"register",
	"sign up today",
	"sign up",
	"buy tickets",
}

var leadingNonWord = regexp.MustCompile(`^[^A-Za-z0-9]+`)
var multiSpace = regexp.MustCompile(`\s{2,}`)

// CleanTitle normalizes a scraped session title: drops day-digit
// artifacts, leading dash/bullet characters, promotional substrings and
// leading non-word characters, and collapses whitespace.
func CleanTitle(title string) string {
	t := strings.TrimSpace(title)
	if m := leadingDayDigits.FindStringSubmatch(t); m != nil {
		t = m[1]
	}
	lower := strings.ToLower(t)
	for _, phrase := range promoPhrases {
		for {
			i := strings.Index(lower, phrase)
			if i < 0 {
				break
			}
			t = t[:i] + t[i+len(phrase):]
			lower = lower[:i] + lower[i+len(phrase):]
		}
	}
	t = leadingNonWord.ReplaceAllString(t, "")
	t = multiSpace.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// finalize applies the shared post-processing pass: title cleanup, the
// end-after-start invariant and the forward retention window. Events
// failing validation are dropped individually; siblings are unaffected.
func finalize(events []model.CanonicalEvent, ctx Context) []model.CanonicalEvent {
	now := ctx.now()
	horizon := now.AddDate(0, 0, ctx.windowDays())
	log := ctx.logger()

	out := make([]model.CanonicalEvent, 0, len(events))
	for _, ev := range events {
		ev.Title = CleanTitle(ev.Title)
		if ev.Title == "" {
			log.Debug("dropping event with empty title", "source", ctx.SourceID, "start", ev.StartTime)
			continue
		}
		if !ev.EndTime.After(ev.StartTime) {
			log.Warn("dropping event with non-positive duration",
				"source", ctx.SourceID, "title", ev.Title, "start", ev.StartTime, "end", ev.EndTime)
			continue
		}
		if ev.StartTime.Before(now) || ev.StartTime.After(horizon) {
			continue
		}
		if ev.Category == "" {
			ev.Category = model.CategoryOther
		}
		if ev.RinkID == "" {
			ev.RinkID = ctx.RinkID
		}
		out = append(out, ev)
	}
	return out
}
