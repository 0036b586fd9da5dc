package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"discoverycoach/pkg/coach"
)

// SaveSession inserts or replaces a session by ID. A new session keeps its
// original created_at; updated_at always advances.
func (s *Store) SaveSession(sess *Session) error {
	if sess.ID == "" {
		return errors.New("session id is required")
	}
	history, err := json.Marshal(sess.History)
	if err != nil {
		return fmt.Errorf("failed to encode session history: %w", err)
	}

	ts := now()
	_, err = s.db.Exec(`
		INSERT INTO sessions (id, focus, active_initiative, active_epic, active_feature,
		                      history, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			focus = excluded.focus,
			active_initiative = excluded.active_initiative,
			active_epic = excluded.active_epic,
			active_feature = excluded.active_feature,
			history = excluded.history,
			updated_at = excluded.updated_at`,
		sess.ID, string(sess.Focus), sess.ActiveInitiative, sess.ActiveEpic,
		sess.ActiveFeature, string(history), ts, ts)
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", sess.ID, err)
	}
	s.logger.Debug("saved session %s (%d messages)", sess.ID, len(sess.History))
	return nil
}

// LoadSession fetches a session by ID. Returns (nil, nil) when no such
// session exists.
func (s *Store) LoadSession(id string) (*Session, error) {
	var sess Session
	var focus, history string
	var initiative, epic, feature sql.NullString
	var createdAt, updatedAt string
	err := s.db.QueryRow(`
		SELECT id, focus, active_initiative, active_epic, active_feature,
		       history, created_at, updated_at
		FROM sessions WHERE id = ?`, id).Scan(
		&sess.ID, &focus, &initiative, &epic, &feature, &history, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}

	sess.Focus = coach.ArtifactFocus(focus)
	sess.ActiveInitiative = initiative.String
	sess.ActiveEpic = epic.String
	sess.ActiveFeature = feature.String
	sess.CreatedAt = parseTime(createdAt)
	sess.UpdatedAt = parseTime(updatedAt)
	if err := json.Unmarshal([]byte(history), &sess.History); err != nil {
		return nil, fmt.Errorf("failed to decode session history: %w", err)
	}
	return &sess, nil
}

// ListSessions returns session metadata (no history), most recently updated
// first.
func (s *Store) ListSessions(limit int) ([]Session, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.Query(`
		SELECT id, focus, active_initiative, active_epic, active_feature,
		       created_at, updated_at
		FROM sessions ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Session
	for rows.Next() {
		var sess Session
		var focus string
		var initiative, epic, feature sql.NullString
		var createdAt, updatedAt string
		if err := rows.Scan(&sess.ID, &focus, &initiative, &epic, &feature,
			&createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sess.Focus = coach.ArtifactFocus(focus)
		sess.ActiveInitiative = initiative.String
		sess.ActiveEpic = epic.String
		sess.ActiveFeature = feature.String
		sess.CreatedAt = parseTime(createdAt)
		sess.UpdatedAt = parseTime(updatedAt)
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("session rows error: %w", err)
	}
	return out, nil
}

// DeleteSession removes a session. Reports whether a row was deleted.
func (s *Store) DeleteSession(id string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	return n > 0, nil
}
