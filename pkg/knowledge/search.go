package knowledge

import (
	"context"
	"fmt"
	"strings"

	"discoverycoach/pkg/coach"
)

// DefaultSearchLimit caps how many passages a retrieval returns.
const DefaultSearchLimit = 4

// Search runs a full-text query over the indexed chunks and returns the
// best-ranked passages, at most limit of them.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]coach.Passage, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	match := buildMatchQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT d.content, d.source
		FROM chunks_fts f
		JOIN chunks d ON d.id = f.rowid
		WHERE chunks_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("knowledge search failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var passages []coach.Passage
	for rows.Next() {
		var p coach.Passage
		if err := rows.Scan(&p.Content, &p.Source); err != nil {
			return nil, fmt.Errorf("failed to scan passage: %w", err)
		}
		passages = append(passages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("passage rows error: %w", err)
	}

	s.logger.Debug("search %q matched %d passages", match, len(passages))
	return passages, nil
}

// Query implements coach.Retriever.
func (s *Store) Query(ctx context.Context, query string) ([]coach.Passage, error) {
	return s.Search(ctx, query, DefaultSearchLimit)
}

// buildMatchQuery turns free text into an FTS5 OR-query of sanitized terms.
// FTS5 treats most punctuation as syntax, so terms are reduced to
// alphanumerics before being joined.
func buildMatchQuery(query string) string {
	fields := strings.Fields(query)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		t := sanitizeTerm(f)
		if len(t) < 2 {
			continue
		}
		terms = append(terms, t)
	}
	return strings.Join(terms, " OR ")
}

func sanitizeTerm(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
