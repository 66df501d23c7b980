package model

import (
	"github.com/google/uuid"
)

// CreateSessionRequest is the payload for starting an assessment session.
type CreateSessionRequest struct {
	ExamID uuid.UUID `json:"exam_id" binding:"required"`
}

// ResumeSessionRequest is the payload for rebuilding a mirrored session
// after a server restart.
type ResumeSessionRequest struct {
	ExamID uuid.UUID `json:"exam_id" binding:"required"`
}

// DraftRequest is the payload for recording an in-memory draft edit.
type DraftRequest struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
	Text       string    `json:"text"`
}

// SaveRequest is the payload for explicitly persisting the current draft.
type SaveRequest struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
}

// NavigateRequest is the payload for moving the active-question cursor.
type NavigateRequest struct {
	Index *int `json:"index" binding:"required,min=0"`
}
