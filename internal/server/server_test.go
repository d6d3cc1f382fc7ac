package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/clock"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/filter"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/logger"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/model"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/registry"
)

type memStore struct {
	events   []model.CanonicalEvent
	metadata map[string]model.SourceMetadata
}

func (m *memStore) Close() error                                         { return nil }
func (m *memStore) WriteEvents(string, []model.CanonicalEvent) error     { return nil }
func (m *memStore) WriteMetadata(model.SourceMetadata) error             { return nil }
func (m *memStore) ReadEvents(string) ([]model.CanonicalEvent, error)    { return m.events, nil }
func (m *memStore) ReadAllEvents() ([]model.CanonicalEvent, error)       { return m.events, nil }
func (m *memStore) ReadAllMetadata() (map[string]model.SourceMetadata, error) {
	return m.metadata, nil
}

func testServer(t *testing.T, events []model.CanonicalEvent) *Server {
	t.Helper()
	reg, err := registry.New(
		[]model.Facility{{ID: "big-bear", DisplayName: "Big Bear Ice Arena"}},
		[]model.Rink{
			{ID: "big-bear-north", FacilityID: "big-bear", DisplayName: "North Rink"},
			{ID: "big-bear-south", FacilityID: "big-bear", DisplayName: "South Rink"},
		},
	)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	engine := filter.NewEngine(reg, clock.Mountain)
	engine.Now = func() time.Time {
		return clock.Mountain.ToAbsolute(time.Date(2025, time.July, 14, 9, 0, 0, 0, time.UTC))
	}
	store := &memStore{events: events, metadata: map[string]model.SourceMetadata{}}
	return New(store, nil, reg, engine, logger.New("error"))
}

func TestHandleEvents_WireShape(t *testing.T) {
	start := clock.Mountain.ToAbsolute(time.Date(2025, time.July, 15, 18, 0, 0, 0, time.UTC))
	srv := testServer(t, []model.CanonicalEvent{{
		ID:        "src-a:1",
		RinkID:    "big-bear-north",
		Title:     "Public Skate",
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
		Category:  model.CategoryPublicSkate,
		EventURL:  "https://example.com/e/1",
	}})

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d events", len(out))
	}
	ev := out[0]
	for _, key := range []string{"id", "rinkId", "title", "startTime", "endTime", "category", "eventUrl", "rinkLabel"} {
		if _, ok := ev[key]; !ok {
			t.Errorf("missing wire field %q in %v", key, ev)
		}
	}
	if ev["startTime"] != "2025-07-16T00:00:00Z" {
		t.Errorf("startTime = %v, want ISO-8601 UTC", ev["startTime"])
	}
}

func TestHandleEvents_FilterQuery(t *testing.T) {
	start := clock.Mountain.ToAbsolute(time.Date(2025, time.July, 15, 9, 0, 0, 0, time.UTC))
	srv := testServer(t, []model.CanonicalEvent{
		{ID: "1", RinkID: "big-bear-north", Title: "Public Skate", StartTime: start, EndTime: start.Add(time.Hour), Category: model.CategoryPublicSkate},
		{ID: "2", RinkID: "big-bear-south", Title: "Drop-In", StartTime: start, EndTime: start.Add(time.Hour), Category: model.CategoryDropInHockey},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/events?mode=include&categories=Public+Skate", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var out []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0]["id"] != "1" {
		t.Errorf("filtered result = %v, want only the public skate", out)
	}
}

func TestHandleRinks(t *testing.T) {
	srv := testServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/rinks", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var out []struct {
		ID    string `json:"id"`
		Rinks []struct {
			ID    string `json:"id"`
			Label string `json:"label"`
		} `json:"rinks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0].ID != "big-bear" || len(out[0].Rinks) != 2 {
		t.Errorf("rinks payload = %+v", out)
	}
}
