package coach

import (
	"fmt"
	"strings"
)

// Validation thresholds.
const (
	minResponseChars    = 50
	maxNonDraftChars    = 5000
	truncationTailChars = 100
	clarifyConfidence   = 0.7
)

// SectionRules maps each artifact focus to the section markers a drafted
// artifact must contain. The markers are configuration data; these defaults
// match the coaching templates but deployments may override them.
type SectionRules map[ArtifactFocus][]string

// DefaultSectionRules returns the standard template section markers.
func DefaultSectionRules() SectionRules {
	return SectionRules{
		FocusEpic:                {"EPIC NAME", "EPIC HYPOTHESIS STATEMENT", "BUSINESS CONTEXT"},
		FocusStrategicInitiative: {"INITIATIVE NAME", "STRATEGIC CONTEXT", "CUSTOMER / USER SEGMENT"},
		FocusFeature:             {"FEATURE NAME", "USER STORY", "ACCEPTANCE CRITERIA"},
		FocusStory:               {"USER STORY", "ACCEPTANCE CRITERIA"},
		FocusPIObjective:         {"OBJECTIVE", "KEY RESULTS"},
	}
}

// ValidationReport carries the issue list and the advisory routing flags.
// The flags are consumed by the workflow routing, not acted on directly.
type ValidationReport struct {
	Issues             []string
	NeedsRetry         bool
	NeedsClarification bool
}

// validateResponse runs the completeness checks for the current artifact type
// and records the disposition flags on the state.
func (e *Engine) validateResponse(st *turnState) {
	report := Validate(st.response, st.intent, st.req.Focus, st.isDraft, st.confidence, st.retryCount, e.rules)

	st.issues = report.Issues
	st.needsRetry = report.NeedsRetry
	st.needsClarification = report.NeedsClarification

	if len(report.Issues) > 0 {
		e.logger.Debug("validation issues: %s", strings.Join(report.Issues, ", "))
	}
}

// Validate runs the artifact-type-specific completeness checks over a
// generated response. The rules are independent of each other; every issue
// found is unioned into the report.
func Validate(response string, intent Intent, focus ArtifactFocus, isDraft bool, confidence float64, retryCount int, rules SectionRules) ValidationReport {
	var issues []string

	// Length checks. Full drafted artifacts are expected to be long, so the
	// upper bound only applies outside draft requests.
	if len(response) < minResponseChars {
		issues = append(issues, "Response too short")
	} else if len(response) > maxNonDraftChars && !isDraft {
		issues = append(issues, "Response very long - might be overly detailed")
	}

	// Template compliance: drafted artifacts must contain every required
	// section marker for their focus type.
	if intent == IntentDraft {
		if required, ok := rules[focus]; ok {
			var missing []string
			for _, section := range required {
				if !strings.Contains(response, section) {
					missing = append(missing, section)
				}
			}
			if len(missing) > 0 {
				issues = append(issues, fmt.Sprintf("Missing sections: %s", strings.Join(missing, ", ")))
			}
		}
	}

	// Truncation check: a trailing ellipsis or placeholder marker means the
	// model stopped before finishing.
	tail := response
	if len(tail) > truncationTailChars {
		tail = tail[len(tail)-truncationTailChars:]
	}
	if strings.Contains(tail, "...") || strings.Contains(response, "[To be filled]") {
		issues = append(issues, "Response appears incomplete")
	}

	return ValidationReport{
		Issues:             issues,
		NeedsRetry:         len(issues) > 0 && retryCount < maxRetries,
		NeedsClarification: len(issues) > 0 && confidence < clarifyConfidence,
	}
}
