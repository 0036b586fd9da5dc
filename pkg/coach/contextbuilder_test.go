package coach

import (
	"strings"
	"testing"
)

func stateFor(req TurnRequest) *turnState {
	return newTurnState(req)
}

func TestBuildQueryIncludesActiveArtifacts(t *testing.T) {
	st := stateFor(TurnRequest{
		Message:          "How do I split this into features?",
		Focus:            FocusFeature,
		ActiveInitiative: "Cloud Migration",
		ActiveEpic:       "Mobile Onboarding",
	})

	query := buildQuery(st)
	for _, want := range []string{
		"[ACTIVE STRATEGIC INITIATIVE]\nCloud Migration",
		"[ACTIVE EPIC]\nMobile Onboarding",
		"[USER QUESTION]\nHow do I split this into features?",
	} {
		if !strings.Contains(query, want) {
			t.Errorf("query missing %q:\n%s", want, query)
		}
	}
	if strings.Contains(query, "[ACTIVE FEATURE]") {
		t.Error("empty artifacts must not produce labels")
	}
}

func TestBuildQueryNoArtifactsIsBareMessage(t *testing.T) {
	st := stateFor(TurnRequest{Message: "What is WSJF?", Focus: FocusFeature})
	if got := buildQuery(st); got != "What is WSJF?" {
		t.Errorf("unexpected query %q", got)
	}
}

func TestBuildQuerySummaryOmitsArtifacts(t *testing.T) {
	st := stateFor(TurnRequest{
		Message:          "Give me a summary of our discussion",
		Focus:            FocusEpic,
		ActiveInitiative: "Cloud Migration",
		ActiveEpic:       "Mobile Onboarding",
	})

	query := buildQuery(st)
	if strings.Contains(query, "Cloud Migration") || strings.Contains(query, "[ACTIVE") {
		t.Errorf("summary query must omit active artifacts:\n%s", query)
	}
	if query != "Give me a summary of our discussion" {
		t.Errorf("unexpected query %q", query)
	}
}

func TestBuildQueryFocusPrefixes(t *testing.T) {
	si := stateFor(TurnRequest{Message: "help", Focus: FocusStrategicInitiative})
	if got := buildQuery(si); !strings.HasPrefix(got, "Strategic Initiative ") {
		t.Errorf("unexpected strategic initiative query %q", got)
	}

	pi := stateFor(TurnRequest{Message: "help", Focus: FocusPIObjective})
	if got := buildQuery(pi); !strings.HasPrefix(got, "PI Objectives ") {
		t.Errorf("unexpected pi objective query %q", got)
	}

	epic := stateFor(TurnRequest{Message: "help", Focus: FocusEpic})
	if got := buildQuery(epic); got != "help" {
		t.Errorf("epic focus should add no prefix, got %q", got)
	}
}

func TestBuildQueryDeterministic(t *testing.T) {
	st := stateFor(TurnRequest{
		Message:          "draft an epic",
		Focus:            FocusEpic,
		ActiveInitiative: "Cloud Migration",
	})
	first := buildQuery(st)
	for i := 0; i < 3; i++ {
		if got := buildQuery(st); got != first {
			t.Fatalf("query changed across calls: %q vs %q", first, got)
		}
	}
}
