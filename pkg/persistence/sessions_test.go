package persistence

import (
	"testing"

	"discoverycoach/pkg/coach"
)

func TestSessionRoundTrip(t *testing.T) {
	store := openTestStore(t)

	sess := &Session{
		ID:               GenerateSessionID(),
		Focus:            coach.FocusEpic,
		ActiveInitiative: "Cloud Migration",
		History: []coach.Message{
			{Role: coach.RoleUser, Content: "Draft an epic for onboarding"},
			{Role: coach.RoleAssistant, Content: "## Epic Description\n..."},
		},
	}
	if err := store.SaveSession(sess); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := store.LoadSession(sess.ID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected session, got nil")
	}
	if got.Focus != coach.FocusEpic {
		t.Errorf("unexpected focus %q", got.Focus)
	}
	if got.ActiveInitiative != "Cloud Migration" {
		t.Errorf("unexpected active initiative %q", got.ActiveInitiative)
	}
	if len(got.History) != 2 || got.History[1].Role != coach.RoleAssistant {
		t.Errorf("unexpected history %+v", got.History)
	}
}

func TestSaveSessionUpdatesExisting(t *testing.T) {
	store := openTestStore(t)

	sess := &Session{ID: "s1", Focus: coach.FocusFeature, History: []coach.Message{}}
	if err := store.SaveSession(sess); err != nil {
		t.Fatalf("initial save failed: %v", err)
	}

	sess.History = append(sess.History, coach.Message{
		Role: coach.RoleUser, Content: "hello",
	})
	sess.ActiveEpic = "Mobile Onboarding"
	if err := store.SaveSession(sess); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	got, err := store.LoadSession("s1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(got.History) != 1 {
		t.Errorf("expected 1 message, got %d", len(got.History))
	}
	if got.ActiveEpic != "Mobile Onboarding" {
		t.Errorf("unexpected active epic %q", got.ActiveEpic)
	}

	sessions, err := store.ListSessions(10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Errorf("upsert should not duplicate sessions, got %d", len(sessions))
	}
}

func TestSaveSessionRequiresID(t *testing.T) {
	store := openTestStore(t)

	if err := store.SaveSession(&Session{Focus: coach.FocusStory}); err == nil {
		t.Error("expected error for empty session id")
	}
}

func TestLoadMissingSessionReturnsNil(t *testing.T) {
	store := openTestStore(t)

	got, err := store.LoadSession("missing")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing session, got %+v", got)
	}
}

func TestDeleteSession(t *testing.T) {
	store := openTestStore(t)

	if err := store.SaveSession(&Session{ID: "s1", Focus: coach.FocusStory}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	deleted, err := store.DeleteSession("s1")
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !deleted {
		t.Error("expected delete to remove the session")
	}
}
