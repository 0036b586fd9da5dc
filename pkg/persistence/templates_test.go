package persistence

import (
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestEpicTemplateRoundTrip(t *testing.T) {
	store := openTestStore(t)

	id, err := store.SaveEpicTemplate(&EpicTemplate{
		Name:                    "Mobile Onboarding",
		Content:                 "## Epic\nRedesign mobile onboarding.",
		EpicHypothesisStatement: "For new users who abandon signup",
		BusinessOutcome:         "Increase activation rate",
		Tags:                    []string{"mobile", "growth"},
		Metadata:                map[string]any{"owner": "platform"},
	})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero id")
	}

	got, err := store.GetEpicTemplate(id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected template, got nil")
	}
	if got.Name != "Mobile Onboarding" {
		t.Errorf("unexpected name %q", got.Name)
	}
	if got.EpicHypothesisStatement != "For new users who abandon signup" {
		t.Errorf("unexpected hypothesis %q", got.EpicHypothesisStatement)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "mobile" {
		t.Errorf("unexpected tags %v", got.Tags)
	}
	if got.Metadata["owner"] != "platform" {
		t.Errorf("unexpected metadata %v", got.Metadata)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
	if got.StrategicInitiativeID != nil {
		t.Errorf("expected nil parent, got %v", *got.StrategicInitiativeID)
	}
}

func TestGetMissingTemplateReturnsNil(t *testing.T) {
	store := openTestStore(t)

	got, err := store.GetEpicTemplate(9999)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing template, got %+v", got)
	}
}

func TestUpdateEpicTemplatePartial(t *testing.T) {
	store := openTestStore(t)

	id, err := store.SaveEpicTemplate(&EpicTemplate{Name: "Draft", Content: "v1"})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	content := "v2"
	changed, err := store.UpdateEpicTemplate(id, TemplateUpdate{
		Content: &content,
		Fields:  map[string]string{"business_outcome": "Reduce churn"},
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !changed {
		t.Fatal("expected update to report a change")
	}

	got, err := store.GetEpicTemplate(id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Content != "v2" {
		t.Errorf("content not updated: %q", got.Content)
	}
	if got.BusinessOutcome != "Reduce churn" {
		t.Errorf("business outcome not updated: %q", got.BusinessOutcome)
	}
	if got.Name != "Draft" {
		t.Errorf("name should be untouched, got %q", got.Name)
	}
}

func TestUpdateWithNoFieldsIsNoOp(t *testing.T) {
	store := openTestStore(t)

	id, err := store.SaveEpicTemplate(&EpicTemplate{Name: "Draft", Content: "v1"})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	changed, err := store.UpdateEpicTemplate(id, TemplateUpdate{})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if changed {
		t.Error("empty update should report no change")
	}
}

func TestUpdateRejectsUnknownColumn(t *testing.T) {
	store := openTestStore(t)

	id, err := store.SaveEpicTemplate(&EpicTemplate{Name: "Draft", Content: "v1"})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if _, err := store.UpdateEpicTemplate(id, TemplateUpdate{
		Fields: map[string]string{"wsjf": "20"},
	}); err == nil {
		t.Error("expected error for column not in epic_templates")
	}
}

func TestDeleteTemplate(t *testing.T) {
	store := openTestStore(t)

	id, err := store.SaveFeatureTemplate(&FeatureTemplate{Name: "Search", Content: "c"})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	deleted, err := store.DeleteFeatureTemplate(id)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !deleted {
		t.Error("expected delete to report a removed row")
	}

	again, err := store.DeleteFeatureTemplate(id)
	if err != nil {
		t.Fatalf("second delete failed: %v", err)
	}
	if again {
		t.Error("second delete should report no removed row")
	}
}

func TestListFeatureTemplatesByEpic(t *testing.T) {
	store := openTestStore(t)

	epicID, err := store.SaveEpicTemplate(&EpicTemplate{Name: "Epic", Content: "c"})
	if err != nil {
		t.Fatalf("save epic failed: %v", err)
	}

	if _, err := store.SaveFeatureTemplate(&FeatureTemplate{
		Name: "Inside", Content: "c", EpicID: &epicID,
	}); err != nil {
		t.Fatalf("save feature failed: %v", err)
	}
	if _, err := store.SaveFeatureTemplate(&FeatureTemplate{
		Name: "Outside", Content: "c",
	}); err != nil {
		t.Fatalf("save feature failed: %v", err)
	}

	got, err := store.ListFeatureTemplates(ListFilter{ParentID: &epicID})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Inside" {
		t.Errorf("expected only the linked feature, got %+v", got)
	}
	if got[0].ParentID == nil || *got[0].ParentID != epicID {
		t.Errorf("expected parent id %d, got %v", epicID, got[0].ParentID)
	}
}

func TestListTemplatesSearch(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.SaveStrategicInitiativeTemplate(&StrategicInitiativeTemplate{
		Name: "Cloud Migration", Content: "Move workloads to the cloud.",
	}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := store.SaveStrategicInitiativeTemplate(&StrategicInitiativeTemplate{
		Name: "Data Platform", Content: "Unified analytics.",
	}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := store.ListStrategicInitiativeTemplates(ListFilter{Search: "cloud"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Cloud Migration" {
		t.Errorf("unexpected search result %+v", got)
	}
}

func TestStoryTemplateWithFeatureParent(t *testing.T) {
	store := openTestStore(t)

	featureID, err := store.SaveFeatureTemplate(&FeatureTemplate{Name: "Login", Content: "c"})
	if err != nil {
		t.Fatalf("save feature failed: %v", err)
	}

	id, err := store.SaveStoryTemplate(&StoryTemplate{
		Name:               "Password reset",
		Content:            "As a user I want to reset my password.",
		FeatureID:          &featureID,
		AcceptanceCriteria: "Reset email arrives within a minute",
	})
	if err != nil {
		t.Fatalf("save story failed: %v", err)
	}

	got, err := store.GetStoryTemplate(id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.FeatureID == nil || *got.FeatureID != featureID {
		t.Errorf("expected feature id %d, got %v", featureID, got.FeatureID)
	}
	if got.AcceptanceCriteria != "Reset email arrives within a minute" {
		t.Errorf("unexpected acceptance criteria %q", got.AcceptanceCriteria)
	}
}

func TestExportAllEpicTemplates(t *testing.T) {
	store := openTestStore(t)

	for _, name := range []string{"One", "Two"} {
		if _, err := store.SaveEpicTemplate(&EpicTemplate{Name: name, Content: "c"}); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	got, err := store.ExportAllEpicTemplates()
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 templates, got %d", len(got))
	}
	for _, tmpl := range got {
		if tmpl.Content == "" {
			t.Errorf("export should include full content for %q", tmpl.Name)
		}
	}
}

func TestStrategicInitiativeLifecycle(t *testing.T) {
	store := openTestStore(t)

	id, err := store.SaveStrategicInitiative(&StrategicInitiative{
		Name:      "FY27 Expansion",
		Objective: "Enter two new markets",
	})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := store.GetStrategicInitiative(id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil || got.Objective != "Enter two new markets" {
		t.Fatalf("unexpected initiative %+v", got)
	}

	got.KeyResults = "Two signed launch partners"
	changed, err := store.UpdateStrategicInitiative(got)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !changed {
		t.Fatal("expected update to change a row")
	}

	listed, err := store.ListStrategicInitiatives(ListFilter{Search: "expansion"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != id {
		t.Errorf("unexpected list result %+v", listed)
	}

	deleted, err := store.DeleteStrategicInitiative(id)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !deleted {
		t.Error("expected delete to remove the initiative")
	}
}
