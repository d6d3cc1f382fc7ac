// Package parser turns raw source payloads into canonical events. Each
// supported publisher format is one adapter behind a shared contract;
// the adapter is selected by the source's configured type tag, never by
// inspecting the payload at runtime.
package parser

import (
	"errors"
	"fmt"
	"time"

	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/clock"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/logger"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/model"
)

// ErrBadPayload indicates the payload does not match the structural
// shape the adapter expects. The whole payload is rejected rather than
// emitting partially-garbage events.
var ErrBadPayload = errors.New("payload does not match expected format")

// ErrUnknownType indicates an unrecognized source type tag.
var ErrUnknownType = errors.New("unknown source type")

// DefaultWindowDays is the forward retention window: events starting in
// the past or more than this many days out are dropped.
const DefaultWindowDays = 30

// Context carries the per-source configuration a parse run needs.
type Context struct {
	SourceID string
	RinkID   string
	Policy   clock.Policy
	Log      *logger.Logger
	// WindowDays overrides DefaultWindowDays when a source's policy
	// explicitly needs a wider window. Zero means the default.
	WindowDays int
	// Now is injectable for tests; the zero value means time.Now.
	Now time.Time
}

func (c Context) now() time.Time {
	if c.Now.IsZero() {
		return time.Now().UTC()
	}
	return c.Now
}

func (c Context) windowDays() int {
	if c.WindowDays > 0 {
		return c.WindowDays
	}
	return DefaultWindowDays
}

func (c Context) logger() *logger.Logger {
	if c.Log == nil {
		return logger.New("error")
	}
	return c.Log
}

// Parser is the shared adapter contract.
type Parser interface {
	Parse(payload []byte, ctx Context) ([]model.CanonicalEvent, error)
}

// ForType returns the adapter for a configured source type tag.
func ForType(sourceType string) (Parser, error) {
	switch sourceType {
	case "icalendar":
		return &ICalParser{}, nil
	case "rss":
		return &RSSParser{}, nil
	case "embedded-json":
		return &EmbeddedJSONParser{}, nil
	case "html-table":
		return &HTMLTableParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, sourceType)
	}
}
