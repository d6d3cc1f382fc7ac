package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/model"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New returned unexpected error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ev(id string, start time.Time) model.CanonicalEvent {
	return model.CanonicalEvent{
		ID:        id,
		RinkID:    "rink-1",
		Title:     "Public Skate",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Category:  model.CategoryPublicSkate,
	}
}

func TestWriteEvents_FullReplace(t *testing.T) {
	db := testDB(t)
	start := time.Date(2025, time.July, 15, 15, 0, 0, 0, time.UTC)

	if err := db.WriteEvents("src-a", []model.CanonicalEvent{ev("a1", start), ev("a2", start.Add(2*time.Hour))}); err != nil {
		t.Fatalf("WriteEvents: %v", err)
	}
	if err := db.WriteEvents("src-b", []model.CanonicalEvent{ev("b1", start)}); err != nil {
		t.Fatalf("WriteEvents: %v", err)
	}

	// A rescrape replaces src-a's set wholesale and leaves src-b alone.
	if err := db.WriteEvents("src-a", []model.CanonicalEvent{ev("a3", start)}); err != nil {
		t.Fatalf("WriteEvents: %v", err)
	}

	got, err := db.ReadEvents("src-a")
	if err != nil {
		t.Fatalf("ReadEvents: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a3" {
		t.Errorf("src-a events = %v, want only a3", got)
	}

	all, err := db.ReadAllEvents()
	if err != nil {
		t.Fatalf("ReadAllEvents: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("total events = %d, want 2", len(all))
	}
	if !all[0].StartTime.Equal(start) {
		t.Errorf("start round trip = %v, want %v", all[0].StartTime, start)
	}
}

func TestWriteMetadata_Upsert(t *testing.T) {
	db := testDB(t)
	now := time.Date(2025, time.July, 15, 12, 0, 0, 0, time.UTC)

	if err := db.WriteMetadata(model.SourceMetadata{
		SourceID: "src-a", LastAttempt: now, Status: model.StatusSuccess,
		EventCount: 5, LastSuccessfulAt: &now,
	}); err != nil {
		t.Fatalf("WriteMetadata: %v", err)
	}

	// A later failed cycle must keep the previous success timestamp.
	later := now.Add(time.Hour)
	if err := db.WriteMetadata(model.SourceMetadata{
		SourceID: "src-a", LastAttempt: later, Status: model.StatusError,
		ErrorMessage: "boom",
	}); err != nil {
		t.Fatalf("WriteMetadata: %v", err)
	}

	all, err := db.ReadAllMetadata()
	if err != nil {
		t.Fatalf("ReadAllMetadata: %v", err)
	}
	md, ok := all["src-a"]
	if !ok {
		t.Fatal("missing metadata for src-a")
	}
	if md.Status != model.StatusError || md.ErrorMessage != "boom" {
		t.Errorf("metadata = %+v", md)
	}
	if md.LastSuccessfulAt == nil || !md.LastSuccessfulAt.Equal(now) {
		t.Errorf("LastSuccessfulAt = %v, want %v preserved", md.LastSuccessfulAt, now)
	}
}

func TestWriteEvents_Empty(t *testing.T) {
	db := testDB(t)
	if err := db.WriteEvents("src-a", nil); err != nil {
		t.Fatalf("WriteEvents(nil): %v", err)
	}
	got, err := db.ReadEvents("src-a")
	if err != nil {
		t.Fatalf("ReadEvents: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("events = %v, want none", got)
	}
}
