package filter

import (
	"sort"
	"time"

	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/clock"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/model"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/registry"
)

// DisplayEvent is a canonical event decorated for output.
type DisplayEvent struct {
	model.CanonicalEvent
	RinkLabel string `json:"rinkLabel"`
}

// Engine evaluates filter settings against an event list. It is a pure
// function of its inputs; Now is injectable for tests.
type Engine struct {
	Registry *registry.Registry
	Policy   clock.Policy
	Now      func() time.Time
}

// NewEngine builds an engine over the given registry and region policy.
func NewEngine(reg *registry.Registry, policy clock.Policy) *Engine {
	return &Engine{Registry: reg, Policy: policy, Now: time.Now}
}

// Evaluate runs the fixed pipeline: rink scope, date window, time-of-day
// window, category. Each stage narrows the input of the next. The result
// carries display labels and is sorted ascending by start time; ties
// keep input order (stable sort, no secondary key).
func (e *Engine) Evaluate(events []model.CanonicalEvent, s Settings, scopeID string) []DisplayEvent {
	kept := e.filterScope(events, s, scopeID)
	kept = e.filterDate(kept, s)
	kept = e.filterTime(kept, s)
	kept = filterCategory(kept, s)

	out := make([]DisplayEvent, 0, len(kept))
	for _, ev := range kept {
		out = append(out, DisplayEvent{CanonicalEvent: ev, RinkLabel: e.Registry.Label(ev.RinkID)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

// filterScope restricts to the rinks the scope covers. The secondary
// rink id filter applies only in the all-rinks view: a facility tab is
// already an explicit selection.
func (e *Engine) filterScope(events []model.CanonicalEvent, s Settings, scopeID string) []model.CanonicalEvent {
	allRinks := scopeID == "" || scopeID == registry.ScopeAll

	ids, err := e.Registry.ExpandScope(scopeID)
	if err != nil {
		// Unrecognized scope degrades to the all-rinks view rather
		// than failing the query.
		ids, _ = e.Registry.ExpandScope(registry.ScopeAll)
		allRinks = true
	}
	allowed := make(map[string]bool, len(ids))
	for _, id := range ids {
		allowed[id] = true
	}

	var secondary map[string]bool
	if allRinks && len(s.RinkIDs) > 0 {
		secondary = make(map[string]bool)
		for _, id := range s.RinkIDs {
			members, err := e.Registry.ExpandScope(id)
			if err != nil {
				continue
			}
			for _, m := range members {
				secondary[m] = true
			}
		}
	}

	out := events[:0:0]
	for _, ev := range events {
		if !allowed[ev.RinkID] {
			continue
		}
		if secondary != nil {
			in := secondary[ev.RinkID]
			if (s.RinkMode == ListExclude) == in {
				continue
			}
		}
		out = append(out, ev)
	}
	return out
}

// filterDate keeps events whose local calendar day falls inside the
// window. Comparison is by civil date: the event's absolute start is
// mapped back to the region's wall clock first, so a session late on the
// window's last local day is not lost to UTC-day rounding.
func (e *Engine) filterDate(events []model.CanonicalEvent, s Settings) []model.CanonicalEvent {
	today := clock.TruncateDay(e.Policy.ToCivil(e.Now().UTC()))
	firstDay, lastDay := e.dateWindow(s, today)

	out := events[:0:0]
	for _, ev := range events {
		day := clock.TruncateDay(e.Policy.ToCivil(ev.StartTime))
		if day.Before(firstDay) || day.After(lastDay) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// dateWindow computes the inclusive civil-day window. Any missing or
// invalid sub-field falls back to the default next-4-days window.
func (e *Engine) dateWindow(s Settings, today time.Time) (time.Time, time.Time) {
	nextDays := func(n int) (time.Time, time.Time) {
		if n < 1 {
			n = DefaultDays
		}
		return today, today.AddDate(0, 0, n-1)
	}

	switch s.DateMode {
	case DateModeSpecific:
		day, err := time.Parse("2006-01-02", s.SelectedDate)
		if err != nil {
			return nextDays(DefaultDays)
		}
		return day, day
	case DateModeRange:
		start, err1 := time.Parse("2006-01-02", s.DateStart)
		end, err2 := time.Parse("2006-01-02", s.DateEnd)
		if err1 != nil || err2 != nil || end.Before(start) {
			return nextDays(DefaultDays)
		}
		return start, end
	default:
		return nextDays(s.NumberOfDays)
	}
}

// filterTime applies the time-of-day window on local wall-clock minutes.
func (e *Engine) filterTime(events []model.CanonicalEvent, s Settings) []model.CanonicalEvent {
	keep := func(model.CanonicalEvent) bool { return true }

	switch s.TimeMode {
	case TimeModeAfter:
		cutoff, ok := clock.ParseClock(s.AfterTime)
		if ok {
			keep = func(ev model.CanonicalEvent) bool {
				return e.minuteOf(ev.EndTime) > cutoff
			}
		}
	case TimeModeBefore:
		cutoff, ok := clock.ParseClock(s.BeforeTime)
		if ok {
			keep = func(ev model.CanonicalEvent) bool {
				return e.minuteOf(ev.StartTime) < cutoff
			}
		}
	case TimeModeRange:
		rangeStart, ok1 := clock.ParseClock(s.TimeStart)
		rangeEnd, ok2 := clock.ParseClock(s.TimeEnd)
		if ok1 && ok2 {
			// Overlap, not containment: a 9:00-11:00 session passes a
			// 10:00-10:30 window.
			keep = func(ev model.CanonicalEvent) bool {
				return e.minuteOf(ev.EndTime) >= rangeStart && e.minuteOf(ev.StartTime) <= rangeEnd
			}
		}
	}

	out := events[:0:0]
	for _, ev := range events {
		if keep(ev) {
			out = append(out, ev)
		}
	}
	return out
}

func (e *Engine) minuteOf(abs time.Time) int {
	return clock.MinuteOfDay(e.Policy.ToCivil(abs))
}

// filterCategory applies the taxonomy set. Include with an empty set
// passes nothing; exclude with an empty set passes everything.
func filterCategory(events []model.CanonicalEvent, s Settings) []model.CanonicalEvent {
	active := make(map[model.Category]bool, len(s.Categories))
	for _, c := range s.Categories {
		active[c] = true
	}

	out := events[:0:0]
	for _, ev := range events {
		in := active[ev.Category]
		if s.CategoryMode == ListInclude && !in {
			continue
		}
		if s.CategoryMode == ListExclude && in {
			continue
		}
		out = append(out, ev)
	}
	return out
}
