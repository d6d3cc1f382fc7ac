package parser

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/classify"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/model"
)

// ICalParser handles icalendar-text feeds. The underlying library takes
// care of line unfolding and VEVENT block tracking; this adapter owns
// the timezone resolution chain and text unescaping.
type ICalParser struct{}

// Parse emits one event per VEVENT that carries SUMMARY, DTSTART and
// DTEND. Blocks missing any of the three produce no event at all.
func (p *ICalParser) Parse(payload []byte, ctx Context) ([]model.CanonicalEvent, error) {
	cal, err := ics.ParseCalendar(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	// Calendar-level timezone declaration, used when a date property
	// carries no TZID of its own.
	calTZ := ""
	for _, prop := range cal.CalendarProperties {
		if prop.IANAToken == "X-WR-TIMEZONE" {
			calTZ = prop.Value
		}
	}

	log := ctx.logger()
	var events []model.CanonicalEvent
	for _, ve := range cal.Events() {
		summary := ve.GetProperty(ics.ComponentPropertySummary)
		dtStart := ve.GetProperty(ics.ComponentPropertyDtStart)
		dtEnd := ve.GetProperty(ics.ComponentPropertyDtEnd)
		if summary == nil || summary.Value == "" || dtStart == nil || dtStart.Value == "" || dtEnd == nil || dtEnd.Value == "" {
			continue
		}

		start, err := p.resolveTime(dtStart.Value, dtStart.ICalParameters, calTZ, ctx)
		if err != nil {
			log.Warn("dropping vevent with unparseable DTSTART",
				"source", ctx.SourceID, "value", dtStart.Value, "err", err)
			continue
		}
		end, err := p.resolveTime(dtEnd.Value, dtEnd.ICalParameters, calTZ, ctx)
		if err != nil {
			log.Warn("dropping vevent with unparseable DTEND",
				"source", ctx.SourceID, "value", dtEnd.Value, "err", err)
			continue
		}

		title := unescapeText(summary.Value)
		description := ""
		if d := ve.GetProperty(ics.ComponentPropertyDescription); d != nil {
			description = unescapeText(d.Value)
		}
		eventURL := ""
		if u := ve.GetProperty(ics.ComponentProperty("URL")); u != nil {
			eventURL = u.Value
		}

		id := ""
		if uid := ve.GetProperty(ics.ComponentPropertyUniqueId); uid != nil {
			id = uid.Value
		}
		if id == "" {
			id = fmt.Sprintf("%s-%d", ctx.SourceID, start.Unix())
		}

		events = append(events, model.CanonicalEvent{
			ID:          fmt.Sprintf("%s:%s", ctx.SourceID, id),
			RinkID:      ctx.RinkID,
			Title:       title,
			StartTime:   start,
			EndTime:     end,
			Category:    classify.Classify(title, description),
			Description: description,
			EventURL:    eventURL,
		})
	}
	return finalize(events, ctx), nil
}

// resolveTime maps one DTSTART/DTEND value onto absolute time. The
// chain: explicit UTC marker, then the property's TZID parameter, then
// the calendar-level timezone, then regional civil time.
func (p *ICalParser) resolveTime(value string, params map[string][]string, calTZ string, ctx Context) (time.Time, error) {
	v := strings.TrimSpace(value)
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}

	tzid := ""
	if params != nil {
		if tzs, ok := params["TZID"]; ok && len(tzs) > 0 {
			tzid = tzs[0]
		}
	}
	if tzid == "" {
		tzid = calTZ
	}
	if tzid != "" {
		if loc, err := time.LoadLocation(tzid); err == nil {
			if t, err := parseICalWall(v, loc); err == nil {
				return t.UTC(), nil
			}
		}
		// Unknown TZID falls through to the regional policy.
	}

	t, err := ctx.Policy.ParseCivil(v, time.Time{})
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

func parseICalWall(v string, loc *time.Location) (time.Time, error) {
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, loc)
	}
	return time.ParseInLocation("20060102", v, loc)
}

var textUnescaper = strings.NewReplacer(
	`\n`, "\n",
	`\N`, "\n",
	`\,`, ",",
	`\;`, ";",
	`\\`, `\`,
)

// unescapeText undoes RFC 5545 TEXT escaping.
func unescapeText(s string) string {
	return textUnescaper.Replace(s)
}
