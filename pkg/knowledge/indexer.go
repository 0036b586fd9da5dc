package knowledge

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Chunking parameters: passages of roughly chunkSize characters with
// chunkOverlap characters of context carried between neighbors.
const (
	chunkSize    = 1000
	chunkOverlap = 200
)

// IndexDirectory loads every .txt and .md file under dir, splits each into
// overlapping chunks, and replaces any previously indexed content for those
// sources. Returns the number of chunks indexed.
func (s *Store) IndexDirectory(dir string) (int, error) {
	var total int

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".txt" && ext != ".md" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = filepath.Base(path)
		}

		n, err := s.IndexDocument(rel, string(data))
		if err != nil {
			return err
		}
		total += n
		return nil
	})
	if err != nil {
		return total, fmt.Errorf("failed to index %s: %w", dir, err)
	}

	s.logger.Info("indexed %d chunks from %s", total, dir)
	return total, nil
}

// IndexDocument chunks one document and stores it under the given source
// identifier, replacing any earlier version of the same source.
func (s *Store) IndexDocument(source, content string) (int, error) {
	chunks := splitChunks(content, chunkSize, chunkOverlap)

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin index transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Drop stale chunks for this source from both tables.
	rows, err := tx.Query(`SELECT id FROM chunks WHERE source = ?`, source)
	if err != nil {
		return 0, fmt.Errorf("failed to query stale chunks: %w", err)
	}
	var staleIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return 0, fmt.Errorf("failed to scan stale chunk id: %w", err)
		}
		staleIDs = append(staleIDs, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return 0, fmt.Errorf("stale chunk rows error: %w", err)
	}
	_ = rows.Close()

	for _, id := range staleIDs {
		if _, err := tx.Exec(`INSERT INTO chunks_fts(chunks_fts, rowid, content)
			SELECT 'delete', id, content FROM chunks WHERE id = ?`, id); err != nil {
			return 0, fmt.Errorf("failed to remove stale fts row: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM chunks WHERE id = ?`, id); err != nil {
			return 0, fmt.Errorf("failed to remove stale chunk: %w", err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for i, chunk := range chunks {
		res, err := tx.Exec(
			`INSERT INTO chunks (source, chunk_index, content, indexed_at) VALUES (?, ?, ?, ?)`,
			source, i, chunk, now,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert chunk: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to read chunk id: %w", err)
		}
		if _, err := tx.Exec(
			`INSERT INTO chunks_fts(rowid, content) VALUES (?, ?)`, id, chunk,
		); err != nil {
			return 0, fmt.Errorf("failed to insert fts row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit index transaction: %w", err)
	}
	return len(chunks), nil
}

// splitChunks splits text into chunks of at most size characters with the
// given overlap, breaking at whitespace where possible so words stay intact.
func splitChunks(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			chunks = append(chunks, strings.TrimSpace(text[start:]))
			break
		}

		// Back up to the nearest whitespace to avoid splitting a word.
		cut := end
		for cut > start && !isSpace(text[cut]) {
			cut--
		}
		if cut == start {
			cut = end
		}

		chunk := strings.TrimSpace(text[start:cut])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := cut - overlap
		if next <= start {
			next = cut
		}
		start = next
	}

	return chunks
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r'
}
