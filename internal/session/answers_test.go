package session

import (
	"testing"

	"github.com/google/uuid"
)

func TestDraftAndSaveSemantics(t *testing.T) {
	store := NewAnswerStore()
	q := uuid.New()

	if got := store.Get(q); got != "" {
		t.Fatalf("unedited question should read as empty draft, got %q", got)
	}
	if store.Saved(q) {
		t.Fatal("unedited question should not be marked saved")
	}

	store.SetDraft(q, "first")
	if got := store.Get(q); got != "first" {
		t.Fatalf("expected draft %q, got %q", "first", got)
	}
	if store.Saved(q) {
		t.Fatal("editing must clear the saved flag")
	}

	store.Save(q)
	if !store.Saved(q) {
		t.Fatal("save must set the saved flag")
	}
	if text, ok := store.Persisted(q); !ok || text != "first" {
		t.Fatalf("expected persisted %q, got %q (ok=%v)", "first", text, ok)
	}

	// Editing again diverges draft from persisted.
	store.SetDraft(q, "second")
	if store.Saved(q) {
		t.Fatal("edit after save must clear the saved flag")
	}
	if text, _ := store.Persisted(q); text != "first" {
		t.Fatalf("persisted value must not change on edit, got %q", text)
	}

	store.Save(q)
	if text, _ := store.Persisted(q); text != "second" {
		t.Fatalf("expected persisted %q after re-save, got %q", "second", text)
	}
}

func TestLatestDraftWins(t *testing.T) {
	store := NewAnswerStore()
	q := uuid.New()

	for _, text := range []string{"a", "ab", "abc"} {
		store.SetDraft(q, text)
	}
	if got := store.Get(q); got != "abc" {
		t.Fatalf("expected latest draft %q, got %q", "abc", got)
	}
}

func TestSaveUneditedQuestionIsAnswered(t *testing.T) {
	store := NewAnswerStore()
	q := uuid.New()

	// Navigation saves unconditionally, so a visited question counts as
	// answered even with no text.
	store.Save(q)
	if !store.Saved(q) {
		t.Fatal("save on an unedited question must leave it saved")
	}
	if text, ok := store.Persisted(q); !ok || text != "" {
		t.Fatalf("expected empty persisted entry, got %q (ok=%v)", text, ok)
	}
	if store.SavedCount() != 1 {
		t.Fatalf("expected saved count 1, got %d", store.SavedCount())
	}
}

func TestSavedCount(t *testing.T) {
	store := NewAnswerStore()
	q1, q2, q3 := uuid.New(), uuid.New(), uuid.New()

	store.SetDraft(q1, "x")
	store.Save(q1)
	store.SetDraft(q2, "y") // edited, never saved
	store.SetDraft(q3, "z")
	store.Save(q3)
	store.SetDraft(q3, "zz") // dirty again

	if got := store.SavedCount(); got != 1 {
		t.Fatalf("expected saved count 1, got %d", got)
	}
}
