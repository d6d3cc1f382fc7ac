// Package filter implements the event query pipeline: an immutable
// settings value, a fixed four-stage evaluation engine and the flat
// codec that persists settings.
package filter

import (
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/model"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/registry"
)

// DateMode selects how the date window is computed.
type DateMode string

const (
	DateModeNextDays DateMode = "next-days"
	DateModeSpecific DateMode = "specific-day"
	DateModeRange    DateMode = "date-range"
)

// TimeMode selects how the time-of-day window is computed.
type TimeMode string

const (
	TimeModeAll    TimeMode = "all"
	TimeModeAfter  TimeMode = "after"
	TimeModeBefore TimeMode = "before"
	TimeModeRange  TimeMode = "range"
)

// ListMode selects include or exclude semantics for a member set.
type ListMode string

const (
	ListInclude ListMode = "include"
	ListExclude ListMode = "exclude"
)

// DefaultDays is the span of the default next-days window.
const DefaultDays = 4

// Settings is one immutable filter configuration. Civil dates are
// "2006-01-02" strings and clock cutoffs are 24-hour "HH:MM" strings;
// empty means unset. The zero value is not meaningful — start from
// Defaults and derive new values with Apply.
type Settings struct {
	View string

	DateMode     DateMode
	NumberOfDays int
	SelectedDate string
	DateStart    string
	DateEnd      string

	TimeMode   TimeMode
	AfterTime  string
	BeforeTime string
	TimeStart  string
	TimeEnd    string

	RinkMode ListMode
	RinkIDs  []string

	CategoryMode ListMode
	Categories   []model.Category
}

// Defaults returns the baseline settings: the next four days, all times,
// all rinks, and exclude-mode with an empty category set (everything
// shows). Every absent or malformed persisted key decodes to these.
func Defaults() Settings {
	return Settings{
		View:         registry.ScopeAll,
		DateMode:     DateModeNextDays,
		NumberOfDays: DefaultDays,
		TimeMode:     TimeModeAll,
		RinkMode:     ListInclude,
		CategoryMode: ListExclude,
	}
}

// Apply returns a new Settings with the given flat-key changes layered
// over s. An empty value resets the key to its default. s itself is
// never mutated; the query layer always replaces whole values.
func (s Settings) Apply(changes map[string]string) Settings {
	flat := Encode(s)
	for k, v := range changes {
		if v == "" {
			delete(flat, k)
		} else {
			flat[k] = v
		}
	}
	return Decode(flat)
}
