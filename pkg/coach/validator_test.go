package coach

import (
	"strings"
	"testing"
)

func TestValidateShortResponse(t *testing.T) {
	report := Validate("too short", IntentQuestion, FocusEpic, false, 0.9, 0, DefaultSectionRules())
	if len(report.Issues) == 0 || report.Issues[0] != "Response too short" {
		t.Errorf("unexpected issues %v", report.Issues)
	}
	if !report.NeedsRetry {
		t.Error("short response with retries left should request a retry")
	}
}

func TestValidateLongNonDraftFlagged(t *testing.T) {
	long := strings.Repeat("x", 5001)
	report := Validate(long, IntentQuestion, FocusEpic, false, 0.9, 0, DefaultSectionRules())
	found := false
	for _, issue := range report.Issues {
		if issue == "Response very long - might be overly detailed" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected length warning, got %v", report.Issues)
	}
}

func TestValidateLongDraftExempt(t *testing.T) {
	long := "EPIC NAME\nEPIC HYPOTHESIS STATEMENT\nBUSINESS CONTEXT\n" + strings.Repeat("x", 6000)
	report := Validate(long, IntentDraft, FocusEpic, true, 0.9, 0, DefaultSectionRules())
	if len(report.Issues) != 0 {
		t.Errorf("long draft should pass, got %v", report.Issues)
	}
}

func TestValidateMissingSectionsNamesAll(t *testing.T) {
	response := "EPIC NAME: Mobile Onboarding\n" + strings.Repeat("detail ", 20)
	report := Validate(response, IntentDraft, FocusEpic, true, 0.9, 0, DefaultSectionRules())

	var missing string
	for _, issue := range report.Issues {
		if strings.HasPrefix(issue, "Missing sections: ") {
			missing = issue
		}
	}
	if missing == "" {
		t.Fatalf("expected missing-sections issue, got %v", report.Issues)
	}
	if !strings.Contains(missing, "EPIC HYPOTHESIS STATEMENT") ||
		!strings.Contains(missing, "BUSINESS CONTEXT") {
		t.Errorf("missing-sections issue should name both absent markers: %q", missing)
	}
	if strings.Contains(missing, "EPIC NAME,") || strings.HasSuffix(missing, "EPIC NAME") {
		t.Errorf("present marker should not be listed: %q", missing)
	}
}

func TestValidateSectionsOnlyForDraftIntent(t *testing.T) {
	response := "This answer explains what an epic hypothesis statement is for. " +
		strings.Repeat("More detail. ", 5)
	report := Validate(response, IntentQuestion, FocusEpic, false, 0.9, 0, DefaultSectionRules())
	for _, issue := range report.Issues {
		if strings.HasPrefix(issue, "Missing sections") {
			t.Errorf("non-draft intent must skip template compliance: %v", report.Issues)
		}
	}
}

func TestValidateTruncationInTail(t *testing.T) {
	response := strings.Repeat("complete sentence. ", 10) + "and then it stops..."
	report := Validate(response, IntentQuestion, FocusStory, false, 0.9, 0, DefaultSectionRules())
	found := false
	for _, issue := range report.Issues {
		if issue == "Response appears incomplete" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected truncation issue, got %v", report.Issues)
	}
}

func TestValidateEllipsisOutsideTailIgnored(t *testing.T) {
	response := "Well... let me explain. " + strings.Repeat("A full and complete sentence here. ", 10)
	report := Validate(response, IntentQuestion, FocusStory, false, 0.9, 0, DefaultSectionRules())
	for _, issue := range report.Issues {
		if issue == "Response appears incomplete" {
			t.Errorf("ellipsis outside the tail window should not flag: %v", report.Issues)
		}
	}
}

func TestValidatePlaceholderAnywhereFlags(t *testing.T) {
	response := "Intro. [To be filled] " + strings.Repeat("A full and complete sentence here. ", 10)
	report := Validate(response, IntentQuestion, FocusStory, false, 0.9, 0, DefaultSectionRules())
	found := false
	for _, issue := range report.Issues {
		if issue == "Response appears incomplete" {
			found = true
		}
	}
	if !found {
		t.Errorf("placeholder marker should flag regardless of position, got %v", report.Issues)
	}
}

func TestValidateRetryFlagRespectsCeiling(t *testing.T) {
	report := Validate("short", IntentQuestion, FocusEpic, false, 0.9, maxRetries, DefaultSectionRules())
	if report.NeedsRetry {
		t.Error("retry flag must clear once the ceiling is reached")
	}
}

func TestValidateClarifyOnLowConfidence(t *testing.T) {
	report := Validate("short", IntentQuestion, FocusEpic, false, 0.5, maxRetries, DefaultSectionRules())
	if !report.NeedsClarification {
		t.Error("issues with low confidence should request clarification")
	}

	confident := Validate("short", IntentQuestion, FocusEpic, false, 0.9, maxRetries, DefaultSectionRules())
	if confident.NeedsClarification {
		t.Error("high confidence should not request clarification")
	}
}

func TestValidateCleanResponse(t *testing.T) {
	response := "An epic hypothesis statement frames the bet you are making. " +
		"It names the customer, the problem, and the measurable outcome."
	report := Validate(response, IntentQuestion, FocusEpic, false, 0.9, 0, DefaultSectionRules())
	if len(report.Issues) != 0 {
		t.Errorf("expected clean report, got %v", report.Issues)
	}
	if report.NeedsRetry || report.NeedsClarification {
		t.Error("clean response should set no routing flags")
	}
}

func TestValidateCustomRules(t *testing.T) {
	rules := SectionRules{FocusEpic: {"## Summary"}}
	response := "## Summary\n" + strings.Repeat("detail ", 20)
	report := Validate(response, IntentDraft, FocusEpic, true, 0.9, 0, rules)
	if len(report.Issues) != 0 {
		t.Errorf("custom markers should be honored, got %v", report.Issues)
	}
}
