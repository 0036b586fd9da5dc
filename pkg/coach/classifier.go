package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"discoverycoach/pkg/llm"
)

// classificationInstruction is the fixed system prompt for the LLM fallback
// path. The model must answer with a bare JSON object.
const classificationInstruction = `Analyze the user's message and classify their intent.

Intents:
- draft: User wants to create/draft an Epic, Feature, Story, or Strategic Initiative
- question: User has a question or needs information
- evaluate: User wants feedback on existing work
- outline: User wants to see structure/outline before creating

Return ONLY a JSON object: {"intent": "...", "confidence": 0.0-1.0}`

const (
	heuristicConfidence = 0.9
	fallbackConfidence  = 0.5
)

// classifyIntent decides the conversational goal. Lexical heuristics win when
// they match; otherwise one low-temperature generator call is made. Any
// failure on that path degrades to question/0.5 and never aborts the turn.
func (e *Engine) classifyIntent(ctx context.Context, st *turnState) {
	lower := strings.ToLower(st.req.Message)

	switch {
	case strings.Contains(lower, "draft") || strings.Contains(lower, "create") ||
		strings.Contains(lower, "help me write"):
		st.intent, st.confidence = IntentDraft, heuristicConfidence
	case strings.Contains(lower, "evaluate") || strings.Contains(lower, "review") ||
		strings.Contains(lower, "feedback"):
		st.intent, st.confidence = IntentEvaluate, heuristicConfidence
	case strings.Contains(lower, "outline") || strings.Contains(lower, "structure"):
		st.intent, st.confidence = IntentOutline, heuristicConfidence
	case strings.Contains(lower, "summary") || strings.Contains(lower, "summarize"):
		// Summaries ride the question intent with the summary flag set.
		st.intent, st.confidence = IntentQuestion, heuristicConfidence
	default:
		st.intent, st.confidence = e.classifyWithModel(ctx, st)
	}

	e.logger.Debug("intent classified: %s (confidence: %.2f)", st.intent, st.confidence)
}

// classifyWithModel runs the LLM fallback path. It returns the degraded
// default on any failure.
func (e *Engine) classifyWithModel(ctx context.Context, st *turnState) (Intent, float64) {
	client, err := e.factory.NewClient(st.req.Provider, st.req.Model)
	if err != nil {
		e.logger.Debug("classifier client unavailable, defaulting to question: %v", err)
		return IntentQuestion, fallbackConfidence
	}

	req := llm.NewCompletionRequest([]llm.CompletionMessage{
		llm.NewSystemMessage(classificationInstruction),
		llm.NewUserMessage(fmt.Sprintf("Message: %s\nContext Type: %s", st.req.Message, st.req.Focus)),
	}, llm.TemperatureClassification)

	resp, err := client.Complete(ctx, req)
	if err != nil {
		e.logger.Debug("intent classification failed, defaulting to question: %v", err)
		return IntentQuestion, fallbackConfidence
	}

	intent, confidence, err := parseClassification(resp.Content)
	if err != nil {
		e.logger.Debug("classification parse failed, defaulting to question: %v", err)
		return IntentQuestion, fallbackConfidence
	}
	return intent, confidence
}

// parseClassification extracts the intent/confidence JSON object from model
// output, tolerating surrounding prose or code fences.
func parseClassification(content string) (Intent, float64, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return "", 0, fmt.Errorf("no JSON object in classification response")
	}

	var parsed struct {
		Intent     string  `json:"intent"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &parsed); err != nil {
		return "", 0, fmt.Errorf("malformed classification JSON: %w", err)
	}

	intent := Intent(parsed.Intent)
	switch intent {
	case IntentDraft, IntentQuestion, IntentEvaluate, IntentOutline:
	default:
		return "", 0, fmt.Errorf("unknown intent %q in classification response", parsed.Intent)
	}
	if parsed.Confidence < 0.0 || parsed.Confidence > 1.0 {
		return "", 0, fmt.Errorf("confidence %v out of range", parsed.Confidence)
	}

	return intent, parsed.Confidence, nil
}
