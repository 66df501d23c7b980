package model

import (
	"github.com/google/uuid"
)

// SheetEntry is one persisted answer inside a packaged answer sheet.
type SheetEntry struct {
	QuestionID uuid.UUID `json:"question_id"`
	Text       string    `json:"text"`
}

// AnswerSheet is the payload handed to the submission collaborator. It is
// packaged exactly once, when the session enters SUBMITTING, and preserved
// unchanged across retries so a failed submission never loses answers.
type AnswerSheet struct {
	ExamID    uuid.UUID    `json:"exam_id"`
	SessionID uuid.UUID    `json:"session_id"`
	Answers   []SheetEntry `json:"answers"`
}
