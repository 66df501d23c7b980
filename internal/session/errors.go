package session

import "errors"

var (
	// ErrInvalidIndex is returned when navigation targets a question index
	// outside the exam's range. The UI disables edge navigation, so hitting
	// this means a contract violation on the caller's side.
	ErrInvalidIndex = errors.New("question index out of range")
	// ErrUnknownQuestion is returned when an operation names a question ID
	// that is not part of the exam.
	ErrUnknownQuestion = errors.New("question does not belong to this exam")
	// ErrJudgeBusy is returned when a judge run is requested for a question
	// that already has a run outstanding.
	ErrJudgeBusy = errors.New("a run is already in progress for this question")
	// ErrSessionClosed is returned when an edit, navigation, or run is
	// attempted after the session has left IN_PROGRESS.
	ErrSessionClosed = errors.New("session is no longer accepting changes")
	// ErrNotStarted is returned when an operation requires a started session.
	ErrNotStarted = errors.New("session has not been started")
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("session already started")
	// ErrSubmissionFailed is returned when every submission attempt has been
	// exhausted. The packaged answer sheet is preserved for a manual retry.
	ErrSubmissionFailed = errors.New("submission failed after all retry attempts")
)
