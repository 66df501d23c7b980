package session

import (
	"github.com/google/uuid"
	"github.com/ujikode/ujikode-backend/internal/model"
)

// Snapshot is the read-only view of a session handed to the rendering layer.
// The UI never reaches into the aggregate; it re-renders from snapshots
// pushed after every tick and mutation.
type Snapshot struct {
	SessionID uuid.UUID `json:"session_id"`
	ExamID    uuid.UUID `json:"exam_id"`
	ExamTitle string    `json:"exam_title"`
	Status    Status    `json:"status"`

	RemainingSeconds int    `json:"remaining_seconds"`
	Clock            string `json:"clock"`
	TimeTier         Tier   `json:"time_tier"`

	CurrentIndex    int             `json:"current_index"`
	QuestionCount   int             `json:"question_count"`
	CurrentQuestion *model.Question `json:"current_question"`
	Draft           string          `json:"draft"`
	DraftSaved      bool            `json:"draft_saved"`

	SavedCount int     `json:"saved_count"`
	Progress   float64 `json:"progress"`

	LastRun     *model.TestRunResult `json:"last_run,omitempty"`
	SubmitError string               `json:"submit_error,omitempty"`
}

// Snapshot captures the current state of the session for rendering.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := &s.exam.Questions[s.current]
	remaining := s.timer.Remaining()

	snap := Snapshot{
		SessionID:        s.id,
		ExamID:           s.exam.ID,
		ExamTitle:        s.exam.Title,
		Status:           s.status,
		RemainingSeconds: remaining,
		Clock:            FormatClock(remaining),
		TimeTier:         TierFor(remaining),
		CurrentIndex:     s.current,
		QuestionCount:    len(s.exam.Questions),
		CurrentQuestion:  q,
		Draft:            s.answers.Get(q.ID),
		DraftSaved:       s.answers.Saved(q.ID),
		SavedCount:       s.answers.SavedCount(),
		LastRun:          s.lastRun[q.ID],
	}
	if len(s.exam.Questions) > 0 {
		snap.Progress = float64(snap.SavedCount) / float64(len(s.exam.Questions)) * 100
	}
	if s.submitErr != nil {
		snap.SubmitError = s.submitErr.Error()
	}
	return snap
}
