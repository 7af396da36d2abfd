// Package journal persists training sessions and their dispatched actions
// to SQLite so instructors can replay a drill during debrief.
package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"pump-panel/server/internal/sim"
)

// Store handles SQLite database operations for session journaling.
type Store struct {
	db *sql.DB
}

// Session represents a training session record.
type Session struct {
	ID        string     `json:"id"`
	Role      string     `json:"role"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
}

// ActionRecord represents a single dispatched action.
type ActionRecord struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"sessionId"`
	Tick       uint64    `json:"tick"`
	RecordedAt time.Time `json:"recordedAt"`
	Kind       string    `json:"kind"`
	Payload    string    `json:"payload"`
	Accepted   bool      `json:"accepted"`
	Reason     string    `json:"reason,omitempty"`
}

// New opens (or creates) the journal database at the given path.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate journal schema: %w", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		role TEXT NOT NULL DEFAULT 'trainee',
		started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		ended_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS actions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		recorded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		kind TEXT NOT NULL,
		payload TEXT,
		accepted INTEGER NOT NULL DEFAULT 1,
		reason TEXT,
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	);

	CREATE INDEX IF NOT EXISTS idx_actions_session ON actions(session_id);
	CREATE INDEX IF NOT EXISTS idx_actions_session_tick ON actions(session_id, tick);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// StartSession inserts a new session record.
func (s *Store) StartSession(id string, role string, at time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, role, started_at) VALUES (?, ?, ?)`,
		id, role, at.UTC(),
	)
	return err
}

// EndSession marks a session as ended.
func (s *Store) EndSession(id string, at time.Time) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET ended_at = ? WHERE id = ?`,
		at.UTC(), id,
	)
	return err
}

// RecordAction logs a single dispatched action with its outcome.
func (s *Store) RecordAction(sessionID string, tick uint64, action sim.Action, accepted bool, reason string) error {
	payload, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("marshal action payload: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO actions (session_id, tick, recorded_at, kind, payload, accepted, reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, tick, time.Now().UTC(), string(action.Kind), string(payload), accepted, reason,
	)
	return err
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(id string) (*Session, error) {
	row := s.db.QueryRow(
		`SELECT id, role, started_at, ended_at FROM sessions WHERE id = ?`, id,
	)

	var sess Session
	var endedAt sql.NullTime
	if err := row.Scan(&sess.ID, &sess.Role, &sess.StartedAt, &endedAt); err != nil {
		return nil, err
	}
	if endedAt.Valid {
		sess.EndedAt = &endedAt.Time
	}
	return &sess, nil
}

// RecentSessions returns the most recently started sessions.
func (s *Store) RecentSessions(limit int) ([]*Session, error) {
	rows, err := s.db.Query(
		`SELECT id, role, started_at, ended_at
		 FROM sessions ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		var sess Session
		var endedAt sql.NullTime
		if err := rows.Scan(&sess.ID, &sess.Role, &sess.StartedAt, &endedAt); err != nil {
			return nil, err
		}
		if endedAt.Valid {
			sess.EndedAt = &endedAt.Time
		}
		sessions = append(sessions, &sess)
	}
	return sessions, rows.Err()
}

// SessionActions retrieves every recorded action for a session in tick order.
func (s *Store) SessionActions(sessionID string) ([]*ActionRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, tick, recorded_at, kind, payload, accepted, reason
		 FROM actions WHERE session_id = ? ORDER BY tick, id`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*ActionRecord
	for rows.Next() {
		var rec ActionRecord
		var payload, reason sql.NullString
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Tick, &rec.RecordedAt,
			&rec.Kind, &payload, &rec.Accepted, &reason); err != nil {
			return nil, err
		}
		if payload.Valid {
			rec.Payload = payload.String
		}
		if reason.Valid {
			rec.Reason = reason.String
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// DecodeAction rebuilds the simulation action from a journaled record.
func (r *ActionRecord) DecodeAction() (sim.Action, error) {
	var action sim.Action
	if err := json.Unmarshal([]byte(r.Payload), &action); err != nil {
		return sim.Action{}, fmt.Errorf("decode journaled action: %w", err)
	}
	return action, nil
}

// ExportSessionJSON exports a session and its actions as indented JSON.
func (s *Store) ExportSessionJSON(sessionID string) ([]byte, error) {
	sess, err := s.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	actions, err := s.SessionActions(sessionID)
	if err != nil {
		return nil, err
	}

	export := map[string]any{
		"session": sess,
		"actions": actions,
	}
	return json.MarshalIndent(export, "", "  ")
}
