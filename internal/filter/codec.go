package filter

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/model"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/registry"
)

// Flat representation keys. Presence of a key overrides the default;
// absence means "use default", which keeps the persisted form minimal.
const (
	keyView       = "view"
	keyMode       = "mode"
	keyCategories = "categories"
	keyRinkMode   = "rinkMode"
	keyRinkIDs    = "rinkIds"
	keyDateMode   = "dateMode"
	keyDays       = "days"
	keyDate       = "date"
	keyDateStart  = "dateStart"
	keyDateEnd    = "dateEnd"
	keyTimeMode   = "timeMode"
	keyAfterTime  = "afterTime"
	keyBeforeTime = "beforeTime"
	keyTimeStart  = "timeStart"
	keyTimeEnd    = "timeEnd"
)

// Encode serializes settings to a flat string map, emitting only the
// fields that differ from Defaults.
func Encode(s Settings) map[string]string {
	out := make(map[string]string)

	if s.View != "" && s.View != registry.ScopeAll {
		out[keyView] = s.View
	}

	if s.DateMode != DateModeNextDays && s.DateMode != "" {
		out[keyDateMode] = string(s.DateMode)
	}
	switch s.DateMode {
	case DateModeSpecific:
		if s.SelectedDate != "" {
			out[keyDate] = s.SelectedDate
		}
	case DateModeRange:
		if s.DateStart != "" {
			out[keyDateStart] = s.DateStart
		}
		if s.DateEnd != "" {
			out[keyDateEnd] = s.DateEnd
		}
	default:
		if s.NumberOfDays >= 1 && s.NumberOfDays != DefaultDays {
			out[keyDays] = strconv.Itoa(s.NumberOfDays)
		}
	}

	if s.TimeMode != TimeModeAll && s.TimeMode != "" {
		out[keyTimeMode] = string(s.TimeMode)
	}
	switch s.TimeMode {
	case TimeModeAfter:
		if s.AfterTime != "" {
			out[keyAfterTime] = s.AfterTime
		}
	case TimeModeBefore:
		if s.BeforeTime != "" {
			out[keyBeforeTime] = s.BeforeTime
		}
	case TimeModeRange:
		if s.TimeStart != "" {
			out[keyTimeStart] = s.TimeStart
		}
		if s.TimeEnd != "" {
			out[keyTimeEnd] = s.TimeEnd
		}
	}

	if s.RinkMode == ListExclude {
		out[keyRinkMode] = string(s.RinkMode)
	}
	if len(s.RinkIDs) > 0 {
		out[keyRinkIDs] = strings.Join(s.RinkIDs, ",")
	}

	if s.CategoryMode == ListInclude {
		out[keyMode] = string(s.CategoryMode)
	}
	if len(s.Categories) > 0 {
		names := make([]string, 0, len(s.Categories))
		for _, c := range s.Categories {
			names = append(names, string(c))
		}
		out[keyCategories] = strings.Join(names, ",")
	}

	return out
}

// Decode is total: every missing or malformed key falls back to its
// default rather than failing. decode(encode(s)) is filter-equivalent
// to s for any event set.
func Decode(flat map[string]string) Settings {
	s := Defaults()
	if flat == nil {
		return s
	}

	if v, ok := flat[keyView]; ok && v != "" {
		s.View = v
	}

	switch DateMode(flat[keyDateMode]) {
	case DateModeSpecific:
		s.DateMode = DateModeSpecific
	case DateModeRange:
		s.DateMode = DateModeRange
	case DateModeNextDays:
		s.DateMode = DateModeNextDays
	}
	if v, ok := flat[keyDays]; ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			s.NumberOfDays = n
		}
	}
	s.SelectedDate = flat[keyDate]
	s.DateStart = flat[keyDateStart]
	s.DateEnd = flat[keyDateEnd]

	switch TimeMode(flat[keyTimeMode]) {
	case TimeModeAfter:
		s.TimeMode = TimeModeAfter
	case TimeModeBefore:
		s.TimeMode = TimeModeBefore
	case TimeModeRange:
		s.TimeMode = TimeModeRange
	case TimeModeAll:
		s.TimeMode = TimeModeAll
	}
	s.AfterTime = flat[keyAfterTime]
	s.BeforeTime = flat[keyBeforeTime]
	s.TimeStart = flat[keyTimeStart]
	s.TimeEnd = flat[keyTimeEnd]

	if ListMode(flat[keyRinkMode]) == ListExclude {
		s.RinkMode = ListExclude
	}
	if v := flat[keyRinkIDs]; v != "" {
		s.RinkIDs = splitList(v)
	}

	if ListMode(flat[keyMode]) == ListInclude {
		s.CategoryMode = ListInclude
	}
	if v := flat[keyCategories]; v != "" {
		for _, name := range splitList(v) {
			if model.ValidCategory(name) {
				s.Categories = append(s.Categories, model.Category(name))
			}
		}
	}

	return s
}

// EncodeQuery renders settings as URL query values.
func EncodeQuery(s Settings) url.Values {
	values := url.Values{}
	for k, v := range Encode(s) {
		values.Set(k, v)
	}
	return values
}

// DecodeQuery reads settings from URL query values.
func DecodeQuery(values url.Values) Settings {
	flat := make(map[string]string, len(values))
	for k := range values {
		flat[k] = values.Get(k)
	}
	return Decode(flat)
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
