// Package classify maps free-text session titles onto the activity
// taxonomy with an ordered keyword cascade.
package classify

import (
	"strings"

	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/model"
)

// Rule is one entry of the cascade. A rule matches when every phrase in
// All is present, or any phrase in Any is present. Rules with Combined
// set also search the description; the rest look at the title only.
type Rule struct {
	Any      []string
	All      []string
	Combined bool
	Category model.Category
}

// rules is evaluated top to bottom; the first match wins. Order is a
// contract: exact/closure phrases pre-empt the generic keyword rules
// further down (e.g. "stick and puck practice" must classify as
// Stick & Puck, not Hockey Practice).
var rules = []Rule{
	{Any: []string{"closed", "holiday", "ice maintenance", "facility maintenance", "no public sessions"}, Category: model.CategorySpecialEvent},
	{Any: []string{"public skate", "open skate", "all ages skate"}, Category: model.CategoryPublicSkate},
	{All: []string{"stick", "puck"}, Category: model.CategoryStickAndPuck},
	{Any: []string{"drop-in", "drop in", "pickup"}, Category: model.CategoryDropInHockey},
	{Any: []string{"learn", "lesson", "lts"}, Category: model.CategoryLearnToSkate},
	{Any: []string{"freestyle", "figure"}, Category: model.CategoryFigureSkating},
	{Any: []string{"practice", "training"}, Category: model.CategoryHockeyPractice},
	{Any: []string{"league", "game"}, Category: model.CategoryHockeyLeague},
	{Any: []string{"skate", "hockey"}, Combined: true, Category: model.CategoryOther},
}

func (r Rule) matches(title, combined string) bool {
	text := title
	if r.Combined {
		text = combined
	}
	for _, phrase := range r.All {
		if !strings.Contains(text, phrase) {
			return false
		}
	}
	if len(r.All) > 0 {
		return true
	}
	for _, phrase := range r.Any {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

// Classify assigns a category to a session title, optionally consulting
// the description. Unrecognized input gets CategoryOther, never an error.
func Classify(title, description string) model.Category {
	t := strings.ToLower(strings.TrimSpace(title))
	combined := t
	if description != "" {
		combined = t + " " + strings.ToLower(strings.TrimSpace(description))
	}
	for _, r := range rules {
		if r.matches(t, combined) {
			return r.Category
		}
	}
	return model.CategoryOther
}
