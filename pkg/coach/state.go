// Package coach implements the conversation orchestration engine for the
// discovery coaching workflow: intent classification, retrieval-augmented
// context assembly, generation, validation, and bounded retry.
package coach

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ArtifactFocus identifies the kind of planning document under discussion.
type ArtifactFocus string

const (
	FocusStrategicInitiative ArtifactFocus = "strategic-initiative"
	FocusEpic                ArtifactFocus = "epic"
	FocusFeature             ArtifactFocus = "feature"
	FocusStory               ArtifactFocus = "story"
	FocusPIObjective         ArtifactFocus = "pi-objective"
)

// ValidFocus reports whether the focus is one of the known artifact types.
func ValidFocus(focus ArtifactFocus) bool {
	switch focus {
	case FocusStrategicInitiative, FocusEpic, FocusFeature, FocusStory, FocusPIObjective:
		return true
	default:
		return false
	}
}

// Intent is the classified conversational goal of a turn.
type Intent string

const (
	IntentDraft    Intent = "draft"
	IntentQuestion Intent = "question"
	IntentEvaluate Intent = "evaluate"
	IntentOutline  Intent = "outline"
)

// Disposition is the terminal outcome of a turn.
type Disposition string

const (
	// DispositionAccepted means the response passed validation and is final.
	DispositionAccepted Disposition = "accepted"
	// DispositionClarify means the caller should ask the user a targeted
	// follow-up; the best-effort response and issue list are returned.
	DispositionClarify Disposition = "clarify"
	// DispositionError means generation failed after exhausting retries.
	DispositionError Disposition = "error"
)

// Message roles for conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged entry of prior conversation history.
type Message struct {
	Role    string
	Content string
}

// TurnRequest is the immutable input for one engine run. History and active
// artifacts are owned by the caller; the engine retains nothing between turns.
type TurnRequest struct {
	Message          string
	Focus            ArtifactFocus
	ActiveInitiative string // active strategic initiative text, if any
	ActiveEpic       string
	ActiveFeature    string
	History          []Message
	Provider         string
	Model            string
	Temperature      float32
}

// Validate checks the request before a run starts.
func (r *TurnRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return fmt.Errorf("turn request message is empty")
	}
	if !ValidFocus(r.Focus) {
		return fmt.Errorf("unknown artifact focus %q", r.Focus)
	}
	if r.Provider == "" {
		return fmt.Errorf("turn request provider is empty")
	}
	if r.Model == "" {
		return fmt.Errorf("turn request model is empty")
	}
	return nil
}

// TurnResult is what the engine hands back to the caller.
type TurnResult struct {
	TurnID       string
	Response     string
	Intent       Intent
	Disposition  Disposition
	RetryCount   int
	Issues       []string
	ErrorMessage string // description of the last failure when Disposition is error
}

// turnState is the mutable working record for one in-flight turn. It is owned
// exclusively by that turn and discarded when the run ends.
type turnState struct {
	req    TurnRequest
	turnID string

	// Derived during classification.
	intent     Intent
	confidence float64
	isSummary  bool
	isDraft    bool

	// Derived during context assembly and retrieval.
	retrievalQuery string
	contextText    string

	// Derived during generation and validation.
	response           string
	issues             []string
	retryCount         int
	needsRetry         bool
	needsClarification bool
	lastErr            error
}

// newTurnState creates the working state for one run. Summary and draft flags
// come from the raw message, independent of classification, because they drive
// deadlines and history limits even when the classifier degrades.
func newTurnState(req TurnRequest) *turnState {
	lower := strings.ToLower(req.Message)
	return &turnState{
		req:       req,
		turnID:    uuid.New().String(),
		isSummary: strings.Contains(lower, "summary") || strings.Contains(lower, "summarize"),
		isDraft:   strings.Contains(lower, "draft"),
	}
}

// result snapshots the state into the caller-facing form.
func (st *turnState) result(disposition Disposition) TurnResult {
	res := TurnResult{
		TurnID:      st.turnID,
		Response:    st.response,
		Intent:      st.intent,
		Disposition: disposition,
		RetryCount:  st.retryCount,
		Issues:      st.issues,
	}
	if disposition == DispositionError && st.lastErr != nil {
		res.ErrorMessage = st.lastErr.Error()
	}
	return res
}
