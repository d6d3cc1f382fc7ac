// Package clock converts the civil (timezone-naive) timestamps published
// by rink schedule sources into absolute UTC time and back.
//
// Civil times are carried as time.Time values in the UTC location whose
// wall-clock fields are the local reading; only Policy knows how to map
// them onto real instants.
package clock

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Policy describes a region that observes two fixed UTC offsets per
// year. The switchover dates are derived per calendar year: summer
// begins the second Sunday of March at 02:00 local and ends the first
// Sunday of November at 02:00 local.
type Policy struct {
	Name         string
	SummerOffset time.Duration
	WinterOffset time.Duration
}

// Mountain is the policy for the Denver area rinks: UTC-6 while DST is
// in effect, UTC-7 otherwise.
var Mountain = Policy{
	Name:         "America/Denver",
	SummerOffset: -6 * time.Hour,
	WinterOffset: -7 * time.Hour,
}

// nthSunday returns the civil date of the n-th Sunday of the month.
func nthSunday(year int, month time.Month, n int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (7 - int(first.Weekday())) % 7 // days until the first Sunday
	day := 1 + offset + (n-1)*7
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// SummerWindow returns the [start, end) civil interval during which the
// summer offset applies for the given year. Both bounds are the literal
// 02:00 wall reading: the start in winter (standard) time, the end in
// summer (daylight) time, as the clocks actually display at each switch.
func (p Policy) SummerWindow(year int) (time.Time, time.Time) {
	start := nthSunday(year, time.March, 2).Add(2 * time.Hour)
	end := nthSunday(year, time.November, 1).Add(2 * time.Hour)
	return start, end
}

// OffsetAt returns the UTC offset in effect at the given civil time.
func (p Policy) OffsetAt(civil time.Time) time.Duration {
	start, end := p.SummerWindow(civil.Year())
	if !civil.Before(start) && civil.Before(end) {
		return p.SummerOffset
	}
	return p.WinterOffset
}

// ToAbsolute maps a civil time onto the UTC instant it names.
func (p Policy) ToAbsolute(civil time.Time) time.Time {
	return civil.Add(-p.OffsetAt(civil)).UTC()
}

// ToCivil maps a UTC instant back to the region's wall-clock reading.
// For any civil input x, ToCivil(ToAbsolute(x)) == x. The instant is
// classified against the switchover instants expressed in absolute
// time; classifying a candidate wall reading instead would misplace the
// hour just before the spring switch, where both candidates look
// self-consistent.
func (p Policy) ToCivil(abs time.Time) time.Time {
	abs = abs.UTC()
	start, end := p.SummerWindow(abs.Add(p.SummerOffset).Year())
	absStart := start.Add(-p.WinterOffset)
	absEnd := end.Add(-p.SummerOffset)
	if !abs.Before(absStart) && abs.Before(absEnd) {
		return abs.Add(p.SummerOffset)
	}
	return abs.Add(p.WinterOffset)
}

// Layouts that embed an explicit offset or zone; values matching these
// are taken verbatim and the regional policy is not consulted.
var zonedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z07:00",
	"20060102T150405Z",
}

// Layouts for timezone-naive values, interpreted through the policy.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"20060102T150405",
	"2006-01-02T15:04",
	"2006-01-02",
	"20060102",
}

// ParseCivil parses a source timestamp string into absolute UTC time.
// Strings carrying their own offset are honored as-is; naive strings go
// through the policy. On failure the supplied fallback is returned along
// with a non-nil error so the caller can log the substitution; ParseCivil
// never panics.
func (p Policy) ParseCivil(value string, fallback time.Time) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return fallback, fmt.Errorf("empty timestamp")
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return p.ToAbsolute(t), nil
		}
	}
	return fallback, fmt.Errorf("unparseable timestamp %q", value)
}

// Combine builds the absolute time for a clock reading on a civil date.
func (p Policy) Combine(date time.Time, minuteOfDay int) time.Time {
	civil := time.Date(date.Year(), date.Month(), date.Day(), 0, minuteOfDay, 0, 0, time.UTC)
	return p.ToAbsolute(civil)
}

// ParseClock parses a time-of-day string such as "9:15am", "9:15 PM",
// "9 pm" or "21:15" into minutes since midnight.
func ParseClock(s string) (int, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.ReplaceAll(v, ".", "")
	meridiem := ""
	switch {
	case strings.HasSuffix(v, "am"):
		meridiem = "am"
		v = strings.TrimSpace(strings.TrimSuffix(v, "am"))
	case strings.HasSuffix(v, "pm"):
		meridiem = "pm"
		v = strings.TrimSpace(strings.TrimSuffix(v, "pm"))
	case strings.HasSuffix(v, "a"):
		meridiem = "am"
		v = strings.TrimSpace(strings.TrimSuffix(v, "a"))
	case strings.HasSuffix(v, "p"):
		meridiem = "pm"
		v = strings.TrimSpace(strings.TrimSuffix(v, "p"))
	}

	hourPart, minPart := v, "0"
	if i := strings.Index(v, ":"); i >= 0 {
		hourPart, minPart = v[:i], v[i+1:]
	}
	hour, err := strconv.Atoi(strings.TrimSpace(hourPart))
	if err != nil {
		return 0, false
	}
	min, err := strconv.Atoi(strings.TrimSpace(minPart))
	if err != nil {
		return 0, false
	}
	if min < 0 || min > 59 {
		return 0, false
	}
	switch meridiem {
	case "am":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour < 0 || hour > 23 {
			return 0, false
		}
	}
	return hour*60 + min, true
}

// FormatClock renders minutes since midnight as 24-hour "HH:MM".
func FormatClock(minuteOfDay int) string {
	return fmt.Sprintf("%02d:%02d", minuteOfDay/60, minuteOfDay%60)
}

// MinuteOfDay returns the wall-clock minute of a civil time.
func MinuteOfDay(civil time.Time) int {
	return civil.Hour()*60 + civil.Minute()
}

// SameCivilDay reports whether two civil times fall on the same calendar day.
func SameCivilDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// TruncateDay returns midnight of the civil time's calendar day.
func TruncateDay(civil time.Time) time.Time {
	return time.Date(civil.Year(), civil.Month(), civil.Day(), 0, 0, 0, 0, time.UTC)
}
