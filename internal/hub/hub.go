// Package hub owns the live sessions of this process. It creates sessions
// from the exam source, drives the shared 1-second tick, fires timeout
// submissions, and mirrors saved answers into the recovery store. Handlers
// never hold sessions directly; every UI action goes through the hub.
package hub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/ujikode/ujikode-backend/internal/auth"
	"github.com/ujikode/ujikode-backend/internal/examsource"
	"github.com/ujikode/ujikode-backend/internal/model"
	"github.com/ujikode/ujikode-backend/internal/session"
	"github.com/ujikode/ujikode-backend/internal/store"
)

// ErrSessionNotFound indicates no live session exists for the given ID.
var ErrSessionNotFound = errors.New("session not found")

// Config wires the hub's collaborators. The factories receive the caller's
// token capability so collaborator calls are made on behalf of the student
// who owns the session rather than through ambient credentials.
type Config struct {
	Exams     func(auth.TokenProvider) examsource.Source
	Judge     func(auth.TokenProvider) session.Judge
	Submitter func(auth.TokenProvider) session.Submitter

	// Recovery is optional; without it reload recovery is disabled.
	Recovery *store.RecoveryStore

	Log          zerolog.Logger
	TickInterval time.Duration
}

type entry struct {
	sess *session.Session
}

// Hub is the session registry and tick driver.
type Hub struct {
	cfg Config
	log zerolog.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*entry
}

// New creates an empty hub.
func New(cfg Config) *Hub {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	return &Hub{
		cfg:      cfg,
		log:      cfg.Log.With().Str("component", "hub").Logger(),
		sessions: make(map[uuid.UUID]*entry),
	}
}

// Create loads the exam and starts a new session for it.
func (h *Hub) Create(ctx context.Context, examID uuid.UUID, tokens auth.TokenProvider) (*session.Session, error) {
	exam, err := h.cfg.Exams(tokens).GetExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("load exam: %w", err)
	}

	sess := session.New(session.Config{
		Exam:      exam,
		Judge:     h.cfg.Judge(tokens),
		Submitter: h.cfg.Submitter(tokens),
		Log:       h.log,
	})
	if err := sess.Start(); err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.sessions[sess.ID()] = &entry{sess: sess}
	h.mu.Unlock()

	h.mirrorStart(sess)
	return sess, nil
}

// Resume rebuilds a session from the recovery mirror after a restart: the
// countdown is shortened by the time already elapsed and the mirrored saved
// answers are restored. If the session is still live in this process it is
// returned as-is.
func (h *Hub) Resume(ctx context.Context, sessionID, examID uuid.UUID, tokens auth.TokenProvider) (*session.Session, error) {
	if sess, err := h.Get(sessionID); err == nil {
		return sess, nil
	}
	if h.cfg.Recovery == nil {
		return nil, ErrSessionNotFound
	}

	startedAt, ok, err := h.cfg.Recovery.StartedAt(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load recovery state: %w", err)
	}
	if !ok {
		return nil, ErrSessionNotFound
	}
	mirrored, err := h.cfg.Recovery.Answers(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load recovery state: %w", err)
	}
	saved := make(map[uuid.UUID]string, len(mirrored))
	for key, text := range mirrored {
		qid, err := uuid.Parse(key)
		if err != nil {
			continue
		}
		saved[qid] = text
	}

	exam, err := h.cfg.Exams(tokens).GetExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("load exam: %w", err)
	}

	sess := session.New(session.Config{
		ID:             sessionID,
		Exam:           exam,
		Judge:          h.cfg.Judge(tokens),
		Submitter:      h.cfg.Submitter(tokens),
		Log:            h.log,
		ElapsedSeconds: int(time.Since(startedAt) / time.Second),
		SavedAnswers:   saved,
	})
	if err := sess.Start(); err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.sessions[sessionID] = &entry{sess: sess}
	h.mu.Unlock()

	h.log.Info().
		Str("session_id", sessionID.String()).
		Int("restored_answers", len(saved)).
		Msg("Session resumed from mirror")
	return sess, nil
}

// Get returns the live session with the given ID.
func (h *Hub) Get(id uuid.UUID) (*session.Session, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if e, ok := h.sessions[id]; ok {
		return e.sess, nil
	}
	return nil, ErrSessionNotFound
}

// SetDraft records a draft edit on a session.
func (h *Hub) SetDraft(id, questionID uuid.UUID, text string) error {
	sess, err := h.Get(id)
	if err != nil {
		return err
	}
	return sess.SetDraft(questionID, text)
}

// Save persists a draft and mirrors it for recovery.
func (h *Hub) Save(id, questionID uuid.UUID) error {
	sess, err := h.Get(id)
	if err != nil {
		return err
	}
	if err := sess.Save(questionID); err != nil {
		return err
	}
	h.mirrorAnswer(sess, questionID)
	return nil
}

// Navigate moves the cursor, mirroring the auto-saved outgoing answer.
func (h *Hub) Navigate(id uuid.UUID, index int) error {
	sess, err := h.Get(id)
	if err != nil {
		return err
	}
	outgoing := sess.Snapshot().CurrentQuestion.ID
	if err := sess.GoTo(index); err != nil {
		return err
	}
	h.mirrorAnswer(sess, outgoing)
	return nil
}

// RunTests forwards a judge run to the session.
func (h *Hub) RunTests(ctx context.Context, id, questionID uuid.UUID) (*model.TestRunResult, error) {
	sess, err := h.Get(id)
	if err != nil {
		return nil, err
	}
	return sess.RunTests(ctx, questionID)
}

// Submit completes a session on behalf of either trigger.
func (h *Hub) Submit(ctx context.Context, id uuid.UUID, trigger session.Trigger) (session.Status, error) {
	sess, err := h.Get(id)
	if err != nil {
		return "", err
	}
	return h.submit(ctx, sess, trigger)
}

// Snapshot returns the rendering view of a session.
func (h *Hub) Snapshot(id uuid.UUID) (session.Snapshot, error) {
	sess, err := h.Get(id)
	if err != nil {
		return session.Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

// Run drives the shared second tick until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	h.log.Info().Dur("interval", h.cfg.TickInterval).Msg("Tick loop started")
	ticker := time.NewTicker(h.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Msg("Tick loop stopped")
			return
		case <-ticker.C:
			h.tickAll(ctx)
		}
	}
}

// tickAll advances every live session by one second and fires the timeout
// submission for any countdown that expired on this tick. The submission
// runs in its own goroutine so a slow collaborator cannot stall the clock
// for other sessions.
func (h *Hub) tickAll(ctx context.Context) {
	h.mu.RLock()
	entries := make([]*entry, 0, len(h.sessions))
	for _, e := range h.sessions {
		entries = append(entries, e)
	}
	h.mu.RUnlock()

	for _, e := range entries {
		if e.sess.Tick() {
			sess := e.sess
			h.log.Info().Str("session_id", sess.ID().String()).Msg("Countdown expired")
			go func() {
				if _, err := h.submit(ctx, sess, session.TriggerTimeout); err != nil {
					h.log.Error().Err(err).
						Str("session_id", sess.ID().String()).
						Msg("Timeout submission failed")
				}
			}()
		}
	}
}

func (h *Hub) submit(ctx context.Context, sess *session.Session, trigger session.Trigger) (session.Status, error) {
	status, err := sess.Submit(ctx, trigger)
	if status == session.StatusSubmitted {
		h.clearMirror(sess)
	}
	return status, err
}

func (h *Hub) mirrorStart(sess *session.Session) {
	if h.cfg.Recovery == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.cfg.Recovery.MirrorStart(ctx, sess.ID(), sess.StartedAt()); err != nil {
		h.log.Warn().Err(err).Msg("Start-time mirror failed")
	}
}

func (h *Hub) mirrorAnswer(sess *session.Session, questionID uuid.UUID) {
	if h.cfg.Recovery == nil {
		return
	}
	text, ok := sess.PersistedAnswer(questionID)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.cfg.Recovery.MirrorAnswer(ctx, sess.ID(), questionID, text); err != nil {
		h.log.Warn().Err(err).Msg("Answer mirror failed")
	}
}

func (h *Hub) clearMirror(sess *session.Session) {
	if h.cfg.Recovery == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.cfg.Recovery.Clear(ctx, sess.ID()); err != nil {
		h.log.Warn().Err(err).Msg("Mirror cleanup failed")
	}
}
