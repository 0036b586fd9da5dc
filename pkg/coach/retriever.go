package coach

import "context"

// Degraded-context markers substituted when retrieval is skipped or fails,
// letting generation proceed with active-artifact context only.
const (
	summaryContextMarker  = "Summary request - using active context only."
	degradedContextMarker = "Retrieval failed - proceeding with active context only."
)

// Passage is one ranked text chunk returned by the knowledge base.
type Passage struct {
	Content string
	Source  string // origin document identifier
}

// Retriever returns ranked passages relevant to a query string. The engine
// treats it as an opaque, externally-owned capability; implementations must be
// safe for concurrent use across turns.
type Retriever interface {
	Query(ctx context.Context, query string) ([]Passage, error)
}

// retrieveContext fetches knowledge-base passages for the composed query.
// Failures never abort the turn: the degraded marker is substituted and the
// turn continues with zero passages.
func (e *Engine) retrieveContext(ctx context.Context, st *turnState) {
	passages, err := e.retriever.Query(ctx, st.retrievalQuery)
	if err != nil {
		e.logger.Warn("retrieval failed, continuing degraded: %v", err)
		st.contextText = degradedContextMarker
		return
	}

	texts := make([]string, 0, len(passages))
	for i := range passages {
		texts = append(texts, passages[i].Content)
	}
	st.contextText = joinPassages(texts)

	e.logger.Debug("retrieved %d passages for %s", len(passages), st.req.Focus)
}

func joinPassages(texts []string) string {
	out := ""
	for i, t := range texts {
		if i > 0 {
			out += "\n\n"
		}
		out += t
	}
	return out
}
