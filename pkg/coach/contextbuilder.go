package coach

import "strings"

// Labels used when composing the retrieval query from active artifacts.
const (
	labelActiveInitiative = "[ACTIVE STRATEGIC INITIATIVE]"
	labelActiveEpic       = "[ACTIVE EPIC]"
	labelActiveFeature    = "[ACTIVE FEATURE]"
	labelUserQuestion     = "[USER QUESTION]"
)

// buildQuery composes the retrieval query from the active artifacts and the
// user message. Deterministic, no side effects: the same state always yields
// the same query.
//
// Summary requests omit all active-artifact text so the query stays small.
// For strategic-initiative and pi-objective focus, a fixed keyword phrase is
// prepended to bias retrieval toward the right template documents.
func buildQuery(st *turnState) string {
	var parts []string

	if !st.isSummary {
		if st.req.ActiveInitiative != "" {
			parts = append(parts, labelActiveInitiative+"\n"+st.req.ActiveInitiative+"\n")
		}
		if st.req.ActiveEpic != "" {
			parts = append(parts, labelActiveEpic+"\n"+st.req.ActiveEpic+"\n")
		}
		if st.req.ActiveFeature != "" {
			parts = append(parts, labelActiveFeature+"\n"+st.req.ActiveFeature+"\n")
		}
	}

	var query string
	if len(parts) > 0 {
		query = strings.Join(parts, "") + "\n" + labelUserQuestion + "\n" + st.req.Message
	} else {
		query = st.req.Message
	}

	switch st.req.Focus {
	case FocusStrategicInitiative:
		query = "Strategic Initiative " + query
	case FocusPIObjective:
		query = "PI Objectives " + query
	}

	return query
}
