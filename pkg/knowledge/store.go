// Package knowledge provides the document knowledge base backing retrieval:
// an SQLite FTS5 index over chunked coaching documents.
package knowledge

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver

	"discoverycoach/pkg/logx"
)

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	source      TEXT NOT NULL,
	chunk_index INTEGER NOT NULL,
	content     TEXT NOT NULL,
	indexed_at  TEXT NOT NULL
);

CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
	content,
	content='chunks',
	content_rowid='id'
);

CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source);
`

// Store is the SQLite-backed knowledge base.
type Store struct {
	db     *sql.DB
	logger *logx.Logger
}

// Open opens (or creates) the knowledge base at the given path. Use ":memory:"
// for an ephemeral store in tests.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_journal_mode=WAL&_busy_timeout=5000", dbPath,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping knowledge db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize knowledge schema: %w", err)
	}

	// SQLite supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Store{db: db, logger: logx.NewLogger("knowledge")}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ChunkCount returns the number of indexed chunks.
func (s *Store) ChunkCount() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM chunks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}
