package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/model"
)

// DB wraps the SQLite connection.
type DB struct {
	conn *sql.DB
}

// Ensure DB implements the Store interface.
var _ Store = (*DB)(nil)

// New opens or creates an SQLite database at the given path.
func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Enable WAL mode for better concurrency.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}
	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		rowid_seq INTEGER PRIMARY KEY AUTOINCREMENT,
		source_id TEXT NOT NULL,
		event_id TEXT NOT NULL,
		rink_id TEXT NOT NULL,
		title TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		category TEXT NOT NULL,
		description TEXT DEFAULT '',
		is_featured INTEGER DEFAULT 0,
		event_url TEXT DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_events_source ON events(source_id);
	CREATE TABLE IF NOT EXISTS source_metadata (
		source_id TEXT PRIMARY KEY,
		last_attempt TEXT NOT NULL,
		status TEXT NOT NULL,
		event_count INTEGER NOT NULL DEFAULT 0,
		error_message TEXT DEFAULT '',
		last_successful_at TEXT
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// WriteEvents replaces the source's stored events inside one transaction.
func (db *DB) WriteEvents(sourceID string, events []model.CanonicalEvent) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM events WHERE source_id = ?", sourceID); err != nil {
		return fmt.Errorf("clear source %s: %w", sourceID, err)
	}
	stmt, err := tx.Prepare(`INSERT INTO events
		(source_id, event_id, rink_id, title, start_time, end_time, category, description, is_featured, event_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		_, err := stmt.Exec(
			sourceID, ev.ID, ev.RinkID, ev.Title,
			ev.StartTime.UTC().Format(time.RFC3339),
			ev.EndTime.UTC().Format(time.RFC3339),
			string(ev.Category), ev.Description, boolToInt(ev.IsFeatured), ev.EventURL,
		)
		if err != nil {
			return fmt.Errorf("insert event %s: %w", ev.ID, err)
		}
	}
	return tx.Commit()
}

// WriteMetadata upserts the source's cycle metadata.
func (db *DB) WriteMetadata(md model.SourceMetadata) error {
	var lastOK interface{}
	if md.LastSuccessfulAt != nil {
		lastOK = md.LastSuccessfulAt.UTC().Format(time.RFC3339)
	}
	_, err := db.conn.Exec(`INSERT INTO source_metadata
		(source_id, last_attempt, status, event_count, error_message, last_successful_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			last_attempt = excluded.last_attempt,
			status = excluded.status,
			event_count = excluded.event_count,
			error_message = excluded.error_message,
			last_successful_at = COALESCE(excluded.last_successful_at, source_metadata.last_successful_at)`,
		md.SourceID, md.LastAttempt.UTC().Format(time.RFC3339), md.Status,
		md.EventCount, md.ErrorMessage, lastOK,
	)
	if err != nil {
		return fmt.Errorf("write metadata %s: %w", md.SourceID, err)
	}
	return nil
}

// ReadEvents returns the source's stored events in insertion order.
func (db *DB) ReadEvents(sourceID string) ([]model.CanonicalEvent, error) {
	rows, err := db.conn.Query(
		selectEvents+" WHERE source_id = ? ORDER BY rowid_seq", sourceID)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

// ReadAllEvents returns every stored event ordered by source id, then
// insertion order.
func (db *DB) ReadAllEvents() ([]model.CanonicalEvent, error) {
	rows, err := db.conn.Query(selectEvents + " ORDER BY source_id, rowid_seq")
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

const selectEvents = `SELECT event_id, rink_id, title, start_time, end_time, category, description, is_featured, event_url FROM events`

func scanEvents(rows *sql.Rows) ([]model.CanonicalEvent, error) {
	defer rows.Close()
	var events []model.CanonicalEvent
	for rows.Next() {
		var ev model.CanonicalEvent
		var start, end, category string
		var featured int
		if err := rows.Scan(&ev.ID, &ev.RinkID, &ev.Title, &start, &end,
			&category, &ev.Description, &featured, &ev.EventURL); err != nil {
			return nil, err
		}
		var err error
		if ev.StartTime, err = time.Parse(time.RFC3339, start); err != nil {
			return nil, fmt.Errorf("corrupt start_time %q: %w", start, err)
		}
		if ev.EndTime, err = time.Parse(time.RFC3339, end); err != nil {
			return nil, fmt.Errorf("corrupt end_time %q: %w", end, err)
		}
		ev.Category = model.Category(category)
		ev.IsFeatured = featured != 0
		events = append(events, ev)
	}
	return events, rows.Err()
}

// ReadAllMetadata returns the latest cycle metadata per source.
func (db *DB) ReadAllMetadata() (map[string]model.SourceMetadata, error) {
	rows, err := db.conn.Query(`SELECT source_id, last_attempt, status, event_count, error_message, last_successful_at
		FROM source_metadata`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]model.SourceMetadata)
	for rows.Next() {
		var md model.SourceMetadata
		var lastAttempt string
		var lastOK sql.NullString
		if err := rows.Scan(&md.SourceID, &lastAttempt, &md.Status,
			&md.EventCount, &md.ErrorMessage, &lastOK); err != nil {
			return nil, err
		}
		if md.LastAttempt, err = time.Parse(time.RFC3339, lastAttempt); err != nil {
			return nil, fmt.Errorf("corrupt last_attempt %q: %w", lastAttempt, err)
		}
		if lastOK.Valid {
			if t, err := time.Parse(time.RFC3339, lastOK.String); err == nil {
				md.LastSuccessfulAt = &t
			}
		}
		out[md.SourceID] = md
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
