package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/ujikode/ujikode-backend/internal/auth"
	"github.com/ujikode/ujikode-backend/internal/model"
)

// Status enumerates the session lifecycle states.
type Status string

const (
	StatusNotStarted       Status = "NOT_STARTED"
	StatusInProgress       Status = "IN_PROGRESS"
	StatusSubmitting       Status = "SUBMITTING"
	StatusSubmitted        Status = "SUBMITTED"
	StatusSubmissionFailed Status = "SUBMISSION_FAILED"
)

// Trigger identifies what initiated a submission.
type Trigger string

const (
	TriggerManual  Trigger = "MANUAL"
	TriggerTimeout Trigger = "TIMEOUT"
)

// Judge evaluates an answer against a question's test cases. Implementations
// may take several seconds; the call is the session's only judge-side
// suspension point and runs outside the session lock.
type Judge interface {
	Run(ctx context.Context, questionID uuid.UUID, answer string) (*model.TestRunResult, error)
}

// Submitter hands a packaged answer sheet to the submission collaborator.
// Each call is a single attempt; the retry policy lives in the session.
type Submitter interface {
	Submit(ctx context.Context, sheet *model.AnswerSheet) error
}

// Default submission retry policy.
const (
	DefaultMaxSubmitAttempts = 3
	DefaultSubmitBackoff     = 500 * time.Millisecond
)

// Config carries the collaborators and policy for a Session. Zero-valued
// optional fields fall back to production defaults.
type Config struct {
	Exam      *model.Exam
	Judge     Judge
	Submitter Submitter
	Log       zerolog.Logger

	// ID pins the session identifier, used when resuming a mirrored session
	// after a restart. Zero means a fresh identifier.
	ID uuid.UUID
	// ElapsedSeconds shortens the countdown on resume. A value at or past the
	// exam duration makes the timer expire on the first tick.
	ElapsedSeconds int
	// SavedAnswers seeds the answer store on resume; entries for questions
	// not in the exam are ignored.
	SavedAnswers map[uuid.UUID]string

	// Now and Sleep are injectable for deterministic tests.
	Now   func() time.Time
	Sleep func(time.Duration)

	MaxSubmitAttempts int
	SubmitBackoff     time.Duration
}

// Session is the aggregate root for one student's single attempt at one exam.
// Every external event source — UI actions, the 1-second tick, judge and
// submission callbacks — funnels through its entry points, which serialize
// all state mutation behind one mutex. The judge and submitter calls are the
// only operations performed outside the lock.
type Session struct {
	id        uuid.UUID
	exam      *model.Exam
	judge     Judge
	submitter Submitter
	log       zerolog.Logger
	now       func() time.Time
	sleep     func(time.Duration)

	maxAttempts int
	backoff     time.Duration
	elapsed     int
	restored    map[uuid.UUID]string

	mu        sync.Mutex
	status    Status
	startedAt time.Time
	timer     *CountdownTimer
	answers   *AnswerStore
	current   int
	judgeBusy map[uuid.UUID]bool
	lastRun   map[uuid.UUID]*model.TestRunResult
	sheet     *model.AnswerSheet
	submitErr error
}

// New creates a session in NOT_STARTED. Call Start to load the countdown and
// begin accepting edits.
func New(cfg Config) *Session {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	if cfg.MaxSubmitAttempts <= 0 {
		cfg.MaxSubmitAttempts = DefaultMaxSubmitAttempts
	}
	if cfg.SubmitBackoff <= 0 {
		cfg.SubmitBackoff = DefaultSubmitBackoff
	}
	id := cfg.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &Session{
		id:          id,
		exam:        cfg.Exam,
		judge:       cfg.Judge,
		submitter:   cfg.Submitter,
		log:         cfg.Log.With().Str("session_id", id.String()).Logger(),
		now:         cfg.Now,
		sleep:       cfg.Sleep,
		maxAttempts: cfg.MaxSubmitAttempts,
		backoff:     cfg.SubmitBackoff,
		elapsed:     cfg.ElapsedSeconds,
		restored:    cfg.SavedAnswers,
		status:      StatusNotStarted,
		timer:       NewCountdownTimer(),
		answers:     NewAnswerStore(),
		judgeBusy:   make(map[uuid.UUID]bool),
		lastRun:     make(map[uuid.UUID]*model.TestRunResult),
	}
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Exam returns the immutable exam definition.
func (s *Session) Exam() *model.Exam {
	return s.exam
}

// Start transitions NOT_STARTED → IN_PROGRESS and starts the countdown.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusNotStarted {
		return ErrAlreadyStarted
	}
	remaining := s.exam.DurationSeconds - s.elapsed
	if remaining < 0 {
		remaining = 0
	}
	if err := s.timer.Start(remaining); err != nil {
		return err
	}
	for qid, text := range s.restored {
		if s.exam.QuestionIndexByID(qid) < 0 {
			continue
		}
		s.answers.SetDraft(qid, text)
		s.answers.Save(qid)
	}
	s.startedAt = s.now().Add(-time.Duration(s.elapsed) * time.Second)
	s.status = StatusInProgress

	s.log.Info().
		Str("exam_id", s.exam.ID.String()).
		Int("duration_seconds", s.exam.DurationSeconds).
		Int("questions", len(s.exam.Questions)).
		Msg("Session started")
	return nil
}

// SetDraft records an in-memory draft edit for a question.
func (s *Session) SetDraft(questionID uuid.UUID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInProgressLocked(); err != nil {
		return err
	}
	if s.exam.QuestionIndexByID(questionID) < 0 {
		return ErrUnknownQuestion
	}
	s.answers.SetDraft(questionID, text)
	return nil
}

// Save persists the current draft for a question.
func (s *Session) Save(questionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInProgressLocked(); err != nil {
		return err
	}
	if s.exam.QuestionIndexByID(questionID) < 0 {
		return ErrUnknownQuestion
	}
	s.answers.Save(questionID)
	return nil
}

// GoTo moves the active-question cursor. The outgoing question is saved
// unconditionally before the cursor moves, so no edit is ever lost to
// navigation. Out-of-range indices are rejected defensively.
func (s *Session) GoTo(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInProgressLocked(); err != nil {
		return err
	}
	if index < 0 || index >= len(s.exam.Questions) {
		return ErrInvalidIndex
	}
	if index == s.current {
		return nil
	}
	s.answers.Save(s.exam.Questions[s.current].ID)
	s.current = index
	return nil
}

// Tick advances the countdown by one second and reports whether it expired
// on this tick. The caller (the hub's ticker loop) is responsible for firing
// the timeout submission when Tick returns true; Tick itself never blocks.
func (s *Session) Tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusInProgress {
		return false
	}
	return s.timer.Tick()
}

// RunTests sends the question's current draft to the judge and records the
// result. A second run for the same question while one is outstanding is
// rejected with ErrJudgeBusy; runs for different questions proceed
// independently. A result that arrives after the session has left
// IN_PROGRESS is discarded silently: both return values are nil and no
// session state changes.
func (s *Session) RunTests(ctx context.Context, questionID uuid.UUID) (*model.TestRunResult, error) {
	s.mu.Lock()
	if err := s.requireInProgressLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if s.exam.QuestionIndexByID(questionID) < 0 {
		s.mu.Unlock()
		return nil, ErrUnknownQuestion
	}
	if s.judgeBusy[questionID] {
		s.mu.Unlock()
		return nil, ErrJudgeBusy
	}
	s.judgeBusy[questionID] = true
	draft := s.answers.Get(questionID)
	s.mu.Unlock()

	result, err := s.judge.Run(ctx, questionID, draft)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.judgeBusy, questionID)

	if s.status != StatusInProgress {
		// Stale result: the session completed while the run was outstanding.
		s.log.Debug().
			Str("question_id", questionID.String()).
			Msg("Discarding judge result for completed session")
		return nil, nil
	}
	if err != nil {
		s.log.Warn().Err(err).
			Str("question_id", questionID.String()).
			Msg("Judge run failed")
		return nil, err
	}
	s.lastRun[questionID] = result
	return result, nil
}

// LastRun returns the most recent judge result for a question, if any.
func (s *Session) LastRun(questionID uuid.UUID) *model.TestRunResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun[questionID]
}

// Submit is the single entry point for completing the session, for both the
// manual confirm and the timer expiry. Only the first call is effective: once
// the session is SUBMITTING or SUBMITTED every later call, regardless of
// trigger, returns the current status without touching the collaborator.
// From SUBMISSION_FAILED a manual call re-enters SUBMITTING and retries the
// preserved answer sheet.
//
// On the first effective call the active question is saved unconditionally,
// the countdown stops without re-emitting its expiry, and all persisted
// answers are packaged. The collaborator is then attempted with bounded
// exponential backoff; a session-expired response aborts the retries
// immediately.
func (s *Session) Submit(ctx context.Context, trigger Trigger) (Status, error) {
	s.mu.Lock()
	switch s.status {
	case StatusSubmitted, StatusSubmitting:
		st := s.status
		s.mu.Unlock()
		return st, nil
	case StatusNotStarted:
		s.mu.Unlock()
		return StatusNotStarted, ErrNotStarted
	case StatusSubmissionFailed:
		// Manual retry of the preserved sheet.
		s.status = StatusSubmitting
		s.submitErr = nil
	case StatusInProgress:
		s.answers.Save(s.exam.Questions[s.current].ID)
		s.timer.Stop()
		s.sheet = s.packageSheetLocked()
		s.status = StatusSubmitting
	}
	sheet := s.sheet
	s.mu.Unlock()

	s.log.Info().
		Str("trigger", string(trigger)).
		Int("answers", len(sheet.Answers)).
		Msg("Submitting session")

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err := s.submitter.Submit(ctx, sheet)
		if err == nil {
			s.mu.Lock()
			s.status = StatusSubmitted
			s.mu.Unlock()
			s.log.Info().Int("attempt", attempt).Msg("Session submitted")
			return StatusSubmitted, nil
		}
		lastErr = err

		if errors.Is(err, auth.ErrSessionExpired) {
			// An expired credential always wins over in-flight retries.
			s.mu.Lock()
			s.status = StatusSubmissionFailed
			s.submitErr = err
			s.mu.Unlock()
			s.log.Error().Err(err).Msg("Submission aborted: session expired")
			return StatusSubmissionFailed, err
		}

		s.log.Warn().Err(err).
			Int("attempt", attempt).
			Int("max_attempts", s.maxAttempts).
			Msg("Submission attempt failed")

		if attempt < s.maxAttempts {
			s.sleep(s.backoff << (attempt - 1))
		}
	}

	failure := fmt.Errorf("%w: %v", ErrSubmissionFailed, lastErr)
	s.mu.Lock()
	s.status = StatusSubmissionFailed
	s.submitErr = failure
	s.mu.Unlock()
	return StatusSubmissionFailed, failure
}

// PersistedAnswer returns the last saved value for a question and whether
// the question has ever been edited or saved.
func (s *Session) PersistedAnswer(questionID uuid.UUID) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.Persisted(questionID)
}

// StartedAt returns when the session entered IN_PROGRESS.
func (s *Session) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}

// Status returns the current lifecycle status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Sheet returns the packaged answer sheet, or nil before the first effective
// submission. The sheet is preserved across failed attempts.
func (s *Session) Sheet() *model.AnswerSheet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sheet
}

func (s *Session) requireInProgressLocked() error {
	switch s.status {
	case StatusInProgress:
		return nil
	case StatusNotStarted:
		return ErrNotStarted
	default:
		return ErrSessionClosed
	}
}

// packageSheetLocked collects the persisted answer of every question that was
// ever edited or saved, in exam order.
func (s *Session) packageSheetLocked() *model.AnswerSheet {
	sheet := &model.AnswerSheet{
		ExamID:    s.exam.ID,
		SessionID: s.id,
	}
	for i := range s.exam.Questions {
		qid := s.exam.Questions[i].ID
		if text, ok := s.answers.Persisted(qid); ok {
			sheet.Answers = append(sheet.Answers, model.SheetEntry{
				QuestionID: qid,
				Text:       text,
			})
		}
	}
	return sheet
}
