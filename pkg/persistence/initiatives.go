package persistence

import (
	"database/sql"
	"errors"
	"fmt"
)

// SaveStrategicInitiative stores a new strategic initiative work item and
// returns its ID.
func (s *Store) SaveStrategicInitiative(si *StrategicInitiative) (int64, error) {
	ts := now()
	res, err := s.db.Exec(`
		INSERT INTO strategic_initiatives
			(name, objective, key_results, milestones, created_at, updated_at, metadata, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		si.Name, si.Objective, si.KeyResults, si.Milestones, ts, ts,
		marshalMetadata(si.Metadata), marshalTags(si.Tags))
	if err != nil {
		return 0, fmt.Errorf("failed to save strategic initiative: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read initiative id: %w", err)
	}
	s.logger.Debug("saved strategic initiative %q (id %d)", si.Name, id)
	return id, nil
}

// GetStrategicInitiative fetches one initiative by ID. Returns (nil, nil)
// when no such initiative exists.
func (s *Store) GetStrategicInitiative(id int64) (*StrategicInitiative, error) {
	var si StrategicInitiative
	var obj, kr, ms, meta, tags sql.NullString
	var createdAt, updatedAt string
	err := s.db.QueryRow(`
		SELECT id, name, objective, key_results, milestones, created_at, updated_at, metadata, tags
		FROM strategic_initiatives WHERE id = ?`, id).Scan(
		&si.ID, &si.Name, &obj, &kr, &ms, &createdAt, &updatedAt, &meta, &tags)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get strategic initiative %d: %w", id, err)
	}
	si.Objective = obj.String
	si.KeyResults = kr.String
	si.Milestones = ms.String
	si.CreatedAt = parseTime(createdAt)
	si.UpdatedAt = parseTime(updatedAt)
	si.Metadata = unmarshalMetadata(meta)
	si.Tags = unmarshalTags(tags)
	return &si, nil
}

// UpdateStrategicInitiative replaces the stored initiative with si, keyed by
// si.ID. Fields left zero overwrite what is stored, matching a full-record
// save. Reports whether a row changed.
func (s *Store) UpdateStrategicInitiative(si *StrategicInitiative) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE strategic_initiatives
		SET name = ?, objective = ?, key_results = ?, milestones = ?, updated_at = ?,
		    metadata = ?, tags = ?
		WHERE id = ?`,
		si.Name, si.Objective, si.KeyResults, si.Milestones, now(),
		marshalMetadata(si.Metadata), marshalTags(si.Tags), si.ID)
	if err != nil {
		return false, fmt.Errorf("failed to update strategic initiative %d: %w", si.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read update result: %w", err)
	}
	return n > 0, nil
}

// ListStrategicInitiatives lists initiative summaries, most recently updated
// first. The Search filter matches name or objective.
func (s *Store) ListStrategicInitiatives(f ListFilter) ([]StrategicInitiative, error) {
	query := `SELECT id, name, objective, created_at, updated_at, tags FROM strategic_initiatives`
	var params []any
	if f.Search != "" {
		query += " WHERE name LIKE ? OR objective LIKE ?"
		pattern := "%" + f.Search + "%"
		params = append(params, pattern, pattern)
	}
	query += " ORDER BY updated_at DESC LIMIT ? OFFSET ?"
	params = append(params, f.limit(), f.Offset)

	rows, err := s.db.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to list strategic initiatives: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []StrategicInitiative
	for rows.Next() {
		var si StrategicInitiative
		var obj, tags sql.NullString
		var createdAt, updatedAt string
		if err := rows.Scan(&si.ID, &si.Name, &obj, &createdAt, &updatedAt, &tags); err != nil {
			return nil, fmt.Errorf("failed to scan initiative: %w", err)
		}
		si.Objective = obj.String
		si.CreatedAt = parseTime(createdAt)
		si.UpdatedAt = parseTime(updatedAt)
		si.Tags = unmarshalTags(tags)
		out = append(out, si)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("initiative rows error: %w", err)
	}
	return out, nil
}

// DeleteStrategicInitiative removes an initiative. Reports whether a row was
// deleted.
func (s *Store) DeleteStrategicInitiative(id int64) (bool, error) {
	return s.deleteByID("strategic_initiatives", id)
}
