package coach

import (
	"context"
	"errors"
	"testing"
)

func classify(t *testing.T, client *scriptedClient, message string) *turnState {
	t.Helper()
	eng := newTestEngine(client, &fakeRetriever{})
	st := newTurnState(baseRequest(message))
	eng.classifyIntent(context.Background(), st)
	return st
}

func TestClassifyHeuristics(t *testing.T) {
	cases := []struct {
		message string
		want    Intent
	}{
		{"Please draft an epic for onboarding", IntentDraft},
		{"Create a feature for search", IntentDraft},
		{"Help me write a user story", IntentDraft},
		{"Can you evaluate my epic?", IntentEvaluate},
		{"I'd like a review of this feature", IntentEvaluate},
		{"Any feedback on my objectives?", IntentEvaluate},
		{"Show me an outline first", IntentOutline},
		{"What structure should this have?", IntentOutline},
		{"Give me a summary of our session", IntentQuestion},
		{"Summarize what we decided", IntentQuestion},
	}
	for _, tc := range cases {
		client := &scriptedClient{}
		st := classify(t, client, tc.message)
		if st.intent != tc.want {
			t.Errorf("%q: expected %s, got %s", tc.message, tc.want, st.intent)
		}
		if st.confidence != heuristicConfidence {
			t.Errorf("%q: expected confidence %v, got %v", tc.message, heuristicConfidence, st.confidence)
		}
		if len(client.requests) != 0 {
			t.Errorf("%q: heuristic match must not call the model", tc.message)
		}
	}
}

func TestClassifyDraftKeywordWinsOverEvaluate(t *testing.T) {
	// Keyword groups are checked in priority order.
	st := classify(t, &scriptedClient{}, "draft something I can review later")
	if st.intent != IntentDraft {
		t.Errorf("expected draft to win, got %s", st.intent)
	}
}

func TestClassifySummaryFlagIndependentOfIntent(t *testing.T) {
	st := classify(t, &scriptedClient{}, "summarize the discussion")
	if !st.isSummary {
		t.Error("summary flag should be set")
	}
	if st.intent != IntentQuestion {
		t.Errorf("summaries ride the question intent, got %s", st.intent)
	}
}

func TestClassifyModelFallback(t *testing.T) {
	client := &scriptedClient{script: []scriptedReply{
		{content: `{"intent": "outline", "confidence": 0.85}`},
	}}
	st := classify(t, client, "how should this be organized, roughly?")
	if st.intent != IntentOutline {
		t.Errorf("expected outline from model, got %s", st.intent)
	}
	if st.confidence != 0.85 {
		t.Errorf("expected confidence 0.85, got %v", st.confidence)
	}
	if len(client.requests) != 1 {
		t.Fatalf("expected 1 classification call, got %d", len(client.requests))
	}
	if client.requests[0].Temperature != 0.1 {
		t.Errorf("classification must be near-deterministic, got temperature %v",
			client.requests[0].Temperature)
	}
}

func TestClassifyModelFailureDegrades(t *testing.T) {
	client := &scriptedClient{script: []scriptedReply{
		{err: errors.New("connection refused")},
	}}
	st := classify(t, client, "hmm, what do you think?")
	if st.intent != IntentQuestion || st.confidence != fallbackConfidence {
		t.Errorf("expected degraded question/%v, got %s/%v",
			fallbackConfidence, st.intent, st.confidence)
	}
}

func TestClassifyUnparseableOutputDegrades(t *testing.T) {
	client := &scriptedClient{script: []scriptedReply{
		{content: "I think the user wants an outline."},
	}}
	st := classify(t, client, "hmm, what do you think?")
	if st.intent != IntentQuestion || st.confidence != fallbackConfidence {
		t.Errorf("expected degraded question/%v, got %s/%v",
			fallbackConfidence, st.intent, st.confidence)
	}
}

func TestParseClassification(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    Intent
		wantErr bool
	}{
		{"bare object", `{"intent": "draft", "confidence": 0.8}`, IntentDraft, false},
		{"fenced", "```json\n{\"intent\": \"question\", \"confidence\": 0.6}\n```", IntentQuestion, false},
		{"prose wrapped", `Sure! {"intent": "evaluate", "confidence": 1.0} Hope that helps.`, IntentEvaluate, false},
		{"no json", "the intent is draft", "", true},
		{"unknown intent", `{"intent": "banter", "confidence": 0.9}`, "", true},
		{"confidence too high", `{"intent": "draft", "confidence": 1.5}`, "", true},
		{"confidence negative", `{"intent": "draft", "confidence": -0.1}`, "", true},
		{"malformed", `{"intent": draft}`, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			intent, _, err := parseClassification(tc.content)
			if tc.wantErr {
				if err == nil {
					t.Errorf("expected error, got %s", intent)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if intent != tc.want {
				t.Errorf("expected %s, got %s", tc.want, intent)
			}
		})
	}
}
