package knowledge

import (
	"context"
	"strings"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestIndexAndCount(t *testing.T) {
	store := openTestStore(t)

	n, err := store.IndexDocument("epic_template.md", "An epic captures a significant initiative requiring analysis.")
	if err != nil {
		t.Fatalf("index failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 chunk for short document, got %d", n)
	}

	count, err := store.ChunkCount()
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 chunk in store, got %d", count)
	}
}

func TestReindexReplacesSource(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.IndexDocument("guide.md", "First version of the planning guide."); err != nil {
		t.Fatalf("initial index failed: %v", err)
	}
	if _, err := store.IndexDocument("guide.md", "Second version mentioning hypothesis statements."); err != nil {
		t.Fatalf("reindex failed: %v", err)
	}

	count, err := store.ChunkCount()
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected reindex to replace chunks, got %d", count)
	}

	passages, err := store.Search(context.Background(), "hypothesis", 4)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(passages) != 1 {
		t.Fatalf("expected 1 passage, got %d", len(passages))
	}
	if !strings.Contains(passages[0].Content, "Second version") {
		t.Errorf("expected updated content, got %q", passages[0].Content)
	}

	stale, err := store.Search(context.Background(), "First", 4)
	if err != nil {
		t.Fatalf("stale search failed: %v", err)
	}
	if len(stale) != 0 {
		t.Errorf("expected stale content removed from index, got %d passages", len(stale))
	}
}

func TestSearchRanksRelevantPassages(t *testing.T) {
	store := openTestStore(t)

	docs := map[string]string{
		"epic.md":    "Epic hypothesis statement: for customers who need faster onboarding.",
		"feature.md": "Features deliver benefit hypotheses with acceptance criteria.",
		"story.md":   "User stories follow the role goal benefit form.",
	}
	for source, content := range docs {
		if _, err := store.IndexDocument(source, content); err != nil {
			t.Fatalf("index %s failed: %v", source, err)
		}
	}

	passages, err := store.Search(context.Background(), "epic hypothesis", 2)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(passages) == 0 {
		t.Fatal("expected at least one passage")
	}
	if passages[0].Source != "epic.md" {
		t.Errorf("expected epic.md ranked first, got %s", passages[0].Source)
	}
	if len(passages) > 2 {
		t.Errorf("limit not honored: got %d passages", len(passages))
	}
}

func TestSearchNoTermsReturnsNothing(t *testing.T) {
	store := openTestStore(t)

	passages, err := store.Search(context.Background(), "?? ! -", 4)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if passages != nil {
		t.Errorf("expected nil result for punctuation-only query, got %v", passages)
	}
}

func TestBuildMatchQuery(t *testing.T) {
	got := buildMatchQuery("draft an epic: onboarding! x")
	want := "draft OR an OR epic OR onboarding"
	if got != want {
		t.Errorf("unexpected match query %q, want %q", got, want)
	}
}

func TestSplitChunksOverlap(t *testing.T) {
	words := make([]string, 0, 400)
	for i := 0; i < 400; i++ {
		words = append(words, "planning")
	}
	text := strings.Join(words, " ")

	chunks := splitChunks(text, 1000, 200)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 1000 {
			t.Errorf("chunk %d exceeds size: %d chars", i, len(c))
		}
		if strings.HasPrefix(c, " ") || strings.HasSuffix(c, " ") {
			t.Errorf("chunk %d not trimmed: %q", i, c)
		}
	}

	// Consecutive chunks share overlapping text.
	tail := chunks[0][len(chunks[0])-50:]
	if !strings.Contains(chunks[1], strings.TrimSpace(tail)) {
		t.Errorf("expected overlap between chunks, tail %q not in next chunk", tail)
	}
}

func TestSplitChunksShortText(t *testing.T) {
	chunks := splitChunks("  short  ", 1000, 200)
	if len(chunks) != 1 || chunks[0] != "short" {
		t.Errorf("unexpected chunks for short text: %v", chunks)
	}
	if splitChunks("   ", 1000, 200) != nil {
		t.Error("expected nil for whitespace-only text")
	}
}
