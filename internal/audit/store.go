package audit

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store is the durable, queryable half of the audit sink, backed by SQLite.
type Store struct {
	db *sql.DB
}

// sqlTimeFormat is fixed-width so lexicographic ordering on the ts column
// is chronological. RFC3339Nano strips trailing zeros and would misorder
// sub-second timestamps under string comparison.
const sqlTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// OpenStore opens (or creates) the audit database at the given path.
func OpenStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("audit: create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("audit: open database: %w", err)
	}

	// SQLite: single writer connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id          TEXT PRIMARY KEY,
		ts          TEXT NOT NULL,
		tool        TEXT NOT NULL,
		action      TEXT,
		params      TEXT,
		result      TEXT NOT NULL,
		reason      TEXT,
		user_id     TEXT,
		project_id  TEXT,
		duration_ms INTEGER DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts);
	CREATE INDEX IF NOT EXISTS idx_events_tool ON events(tool, ts);
	CREATE INDEX IF NOT EXISTS idx_events_user ON events(user_id, ts);

	CREATE TABLE IF NOT EXISTS sessions (
		id           TEXT PRIMARY KEY,
		started_at   TEXT NOT NULL,
		ended_at     TEXT,
		workspace    TEXT,
		action_count INTEGER DEFAULT 0
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record assigns an ID and timestamp (when unset) and appends the event.
func (s *Store) Record(e Event) (Event, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO events (id, ts, tool, action, params, result, reason, user_id, project_id, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp.UTC().Format(sqlTimeFormat), e.Tool, e.Action, e.Params,
		string(e.Result), e.Reason, e.UserID, e.ProjectID, e.DurationMs,
	)
	if err != nil {
		return Event{}, fmt.Errorf("audit: insert event: %w", err)
	}
	return e, nil
}

// Query returns events matching the filter, most recent first, capped at
// MaxQueryLimit rows.
func (s *Store) Query(f Filter) ([]Event, error) {
	var conds []string
	var args []any

	if f.Tool != "" {
		conds = append(conds, "tool = ?")
		args = append(args, f.Tool)
	}
	if f.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Result != "" {
		conds = append(conds, "result = ?")
		args = append(args, string(f.Result))
	}
	if !f.Since.IsZero() {
		conds = append(conds, "ts >= ?")
		args = append(args, f.Since.UTC().Format(sqlTimeFormat))
	}
	if !f.Until.IsZero() {
		conds = append(conds, "ts <= ?")
		args = append(args, f.Until.UTC().Format(sqlTimeFormat))
	}

	query := "SELECT id, ts, tool, action, params, result, reason, user_id, project_id, duration_ms FROM events"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY ts DESC LIMIT ?"

	limit := f.Limit
	if limit <= 0 || limit > MaxQueryLimit {
		limit = MaxQueryLimit
	}
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var ts, result string
		if err := rows.Scan(&e.ID, &ts, &e.Tool, &e.Action, &e.Params, &result,
			&e.Reason, &e.UserID, &e.ProjectID, &e.DurationMs); err != nil {
			return nil, fmt.Errorf("audit: scan event: %w", err)
		}
		e.Result = Result(result)
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			e.Timestamp = parsed
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// StartSession opens a session record and returns its ID.
func (s *Store) StartSession(workspace string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, started_at, workspace) VALUES (?, ?, ?)`,
		id, time.Now().UTC().Format(sqlTimeFormat), workspace,
	)
	if err != nil {
		return "", fmt.Errorf("audit: start session: %w", err)
	}
	return id, nil
}

// EndSession stamps the session's end time.
func (s *Store) EndSession(id string) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET ended_at = ? WHERE id = ?`,
		time.Now().UTC().Format(sqlTimeFormat), id,
	)
	if err != nil {
		return fmt.Errorf("audit: end session: %w", err)
	}
	return nil
}

// BumpSession increments the session's action counter.
func (s *Store) BumpSession(id string) error {
	_, err := s.db.Exec(`UPDATE sessions SET action_count = action_count + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("audit: bump session: %w", err)
	}
	return nil
}

// GetSession loads one session record.
func (s *Store) GetSession(id string) (*Session, error) {
	var sess Session
	var started string
	var ended sql.NullString
	err := s.db.QueryRow(
		`SELECT id, started_at, ended_at, workspace, action_count FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &started, &ended, &sess.Workspace, &sess.ActionCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("audit: get session: %w", err)
	}
	if parsed, err := time.Parse(time.RFC3339Nano, started); err == nil {
		sess.StartedAt = parsed
	}
	if ended.Valid {
		if parsed, err := time.Parse(time.RFC3339Nano, ended.String); err == nil {
			sess.EndedAt = &parsed
		}
	}
	return &sess, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
