package session

import (
	"github.com/google/uuid"
)

// answerState tracks one question's draft and its last persisted value.
type answerState struct {
	draft     string
	persisted string
	saved     bool
}

// AnswerStore holds per-question drafts and persisted answers for a single
// session. It is a plain in-memory map with no I/O; none of its operations
// can fail. It is not safe for concurrent use — the owning Session serializes
// access through its own lock.
type AnswerStore struct {
	answers map[uuid.UUID]*answerState
}

// NewAnswerStore creates an empty AnswerStore.
func NewAnswerStore() *AnswerStore {
	return &AnswerStore{answers: make(map[uuid.UUID]*answerState)}
}

// SetDraft records the in-memory draft for a question and clears its saved
// flag. The entry is created lazily on first edit.
func (s *AnswerStore) SetDraft(questionID uuid.UUID, text string) {
	a, ok := s.answers[questionID]
	if !ok {
		a = &answerState{}
		s.answers[questionID] = a
	}
	a.draft = text
	a.saved = false
}

// Save copies the current draft into the persisted slot and marks the answer
// saved. Saving a question that was never edited creates an empty persisted
// entry — a visited question counts as answered even with no text, matching
// the unconditional save performed on navigation.
func (s *AnswerStore) Save(questionID uuid.UUID) {
	a, ok := s.answers[questionID]
	if !ok {
		a = &answerState{}
		s.answers[questionID] = a
	}
	a.persisted = a.draft
	a.saved = true
}

// Get returns the current draft for a question, or the empty string if the
// question was never edited.
func (s *AnswerStore) Get(questionID uuid.UUID) string {
	if a, ok := s.answers[questionID]; ok {
		return a.draft
	}
	return ""
}

// Persisted returns the last saved value for a question and whether the
// question has an entry at all.
func (s *AnswerStore) Persisted(questionID uuid.UUID) (string, bool) {
	if a, ok := s.answers[questionID]; ok {
		return a.persisted, true
	}
	return "", false
}

// Saved reports whether the question's draft matches its last saved value.
func (s *AnswerStore) Saved(questionID uuid.UUID) bool {
	if a, ok := s.answers[questionID]; ok {
		return a.saved
	}
	return false
}

// SavedCount returns the number of answers currently marked saved, used for
// progress reporting.
func (s *AnswerStore) SavedCount() int {
	n := 0
	for _, a := range s.answers {
		if a.saved {
			n++
		}
	}
	return n
}
