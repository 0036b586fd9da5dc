package utils

import "testing"

func TestCountTokens(t *testing.T) {
	counter, err := NewTokenCounter("gpt-4")
	if err != nil {
		t.Fatalf("failed to create counter: %v", err)
	}

	if got := counter.CountTokens(""); got != 0 {
		t.Errorf("empty text should count 0 tokens, got %d", got)
	}

	short := counter.CountTokens("hello")
	long := counter.CountTokens("hello there, let us talk about program increment planning")
	if short == 0 {
		t.Error("expected non-zero count for non-empty text")
	}
	if long <= short {
		t.Errorf("longer text should count more tokens: %d vs %d", long, short)
	}
}

func TestCountTokensFallback(t *testing.T) {
	// Zero-value counter has no codec and estimates by length.
	counter := &TokenCounter{}
	if got := counter.CountTokens("12345678"); got != 2 {
		t.Errorf("expected 8/4 = 2 estimated tokens, got %d", got)
	}
}

func TestCountTokensSimple(t *testing.T) {
	if got := CountTokensSimple("planning increment objectives"); got == 0 {
		t.Error("expected non-zero count")
	}
}
