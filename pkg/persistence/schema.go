package persistence

import (
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS strategic_initiative_templates (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	name               TEXT NOT NULL,
	content            TEXT NOT NULL,
	strategic_context  TEXT,
	customer_segment   TEXT,
	desired_outcomes   TEXT,
	leading_indicators TEXT,
	created_at         TEXT NOT NULL,
	updated_at         TEXT NOT NULL,
	metadata           TEXT,
	tags               TEXT
);

CREATE TABLE IF NOT EXISTS epic_templates (
	id                        INTEGER PRIMARY KEY AUTOINCREMENT,
	name                      TEXT NOT NULL,
	strategic_initiative_id   INTEGER,
	content                   TEXT NOT NULL,
	epic_hypothesis_statement TEXT,
	business_outcome          TEXT,
	leading_indicators        TEXT,
	created_at                TEXT NOT NULL,
	updated_at                TEXT NOT NULL,
	metadata                  TEXT,
	tags                      TEXT,
	FOREIGN KEY (strategic_initiative_id) REFERENCES strategic_initiative_templates(id)
);

CREATE TABLE IF NOT EXISTS feature_templates (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	name                TEXT NOT NULL,
	epic_id             INTEGER,
	content             TEXT NOT NULL,
	benefit_hypothesis  TEXT,
	acceptance_criteria TEXT,
	wsjf                TEXT,
	created_at          TEXT NOT NULL,
	updated_at          TEXT NOT NULL,
	metadata            TEXT,
	tags                TEXT,
	FOREIGN KEY (epic_id) REFERENCES epic_templates(id)
);

CREATE TABLE IF NOT EXISTS story_templates (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	name                TEXT NOT NULL,
	feature_id          INTEGER,
	content             TEXT NOT NULL,
	description         TEXT,
	acceptance_criteria TEXT,
	created_at          TEXT NOT NULL,
	updated_at          TEXT NOT NULL,
	metadata            TEXT,
	tags                TEXT,
	FOREIGN KEY (feature_id) REFERENCES feature_templates(id)
);

CREATE TABLE IF NOT EXISTS strategic_initiatives (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL,
	objective   TEXT,
	key_results TEXT,
	milestones  TEXT,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL,
	metadata    TEXT,
	tags        TEXT
);

CREATE TABLE IF NOT EXISTS sessions (
	id                TEXT PRIMARY KEY,
	focus             TEXT NOT NULL,
	active_initiative TEXT,
	active_epic       TEXT,
	active_feature    TEXT,
	history           TEXT NOT NULL,
	created_at        TEXT NOT NULL,
	updated_at        TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_epic_templates_initiative ON epic_templates(strategic_initiative_id);
CREATE INDEX IF NOT EXISTS idx_feature_templates_epic ON feature_templates(epic_id);
CREATE INDEX IF NOT EXISTS idx_story_templates_feature ON story_templates(feature_id);
CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
`

func initializeSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}
