package coach

import (
	"context"
	"time"

	"discoverycoach/pkg/llm"
)

// Timeouts are the per-call generation deadlines. Drafting full artifacts and
// producing summaries is materially slower than answering questions and must
// not be aborted prematurely.
type Timeouts struct {
	Draft    time.Duration // drafts and summaries
	Standard time.Duration // everything else
}

// DefaultTimeouts returns the standard generation deadlines.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Draft:    240 * time.Second,
		Standard: 90 * time.Second,
	}
}

// History limits before a generation call. Summaries get no history at all so
// unrelated conversation cannot bias them.
const (
	historyLimitSummary = 0
	historyLimitDraft   = 12
	historyLimitDefault = 10
)

func (st *turnState) historyLimit() int {
	switch {
	case st.isSummary:
		return historyLimitSummary
	case st.isDraft:
		return historyLimitDraft
	default:
		return historyLimitDefault
	}
}

func (st *turnState) deadline(t Timeouts) time.Duration {
	if st.isDraft || st.isSummary {
		return t.Draft
	}
	return t.Standard
}

// tailMessages returns the most recent n history messages.
func tailMessages(history []Message, n int) []Message {
	if n <= 0 || len(history) == 0 {
		return nil
	}
	if len(history) > n {
		history = history[len(history)-n:]
	}
	return history
}

// generateResponse issues one generation attempt against the configured
// provider. A failure records the error and the needs-retry flag on the state;
// the workflow routing decides whether another attempt happens. No semantic
// retry happens here.
func (e *Engine) generateResponse(ctx context.Context, st *turnState) error {
	client, err := e.factory.NewClient(st.req.Provider, st.req.Model)
	if err != nil {
		st.lastErr = err
		st.needsRetry = true
		return err
	}

	system := e.prompts.Base()
	if appendix := e.prompts.FocusAppendix(st.req.Focus); appendix != "" {
		system += "\n\n" + appendix
	}

	history := tailMessages(st.req.History, st.historyLimit())

	messages := make([]llm.CompletionMessage, 0, len(history)+3)
	messages = append(messages,
		llm.NewSystemMessage(system),
		llm.NewSystemMessage("Content from internal documents:\n"+st.contextText),
	)
	for i := range history {
		if history[i].Role == RoleAssistant {
			messages = append(messages, llm.NewAssistantMessage(history[i].Content))
		} else {
			messages = append(messages, llm.NewUserMessage(history[i].Content))
		}
	}
	messages = append(messages, llm.NewUserMessage(st.retrievalQuery))

	timeout := st.deadline(e.timeouts)
	e.logger.Debug("generating with %s/%s (timeout: %s, history: %d)",
		st.req.Provider, st.req.Model, timeout, len(history))

	genCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := client.Complete(genCtx, llm.NewCompletionRequest(messages, st.req.Temperature))
	if err != nil {
		st.lastErr = err
		st.needsRetry = true
		return err
	}

	st.response = resp.Content
	st.lastErr = nil
	e.logger.Debug("generated response (%d chars)", len(resp.Content))
	return nil
}
