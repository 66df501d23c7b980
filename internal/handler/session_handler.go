package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/ujikode/ujikode-backend/internal/auth"
	"github.com/ujikode/ujikode-backend/internal/examsource"
	"github.com/ujikode/ujikode-backend/internal/hub"
	"github.com/ujikode/ujikode-backend/internal/judge"
	"github.com/ujikode/ujikode-backend/internal/middleware"
	"github.com/ujikode/ujikode-backend/internal/model"
	"github.com/ujikode/ujikode-backend/internal/response"
	"github.com/ujikode/ujikode-backend/internal/session"
	"github.com/ujikode/ujikode-backend/internal/validator"
)

// SessionHandler exposes the assessment-session operations over HTTP.
type SessionHandler struct {
	hub *hub.Hub
	log zerolog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(h *hub.Hub, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		hub: h,
		log: log.With().Str("component", "session_handler").Logger(),
	}
}

// Create godoc
// POST /api/v1/sessions
// Starts a new session for the requested exam and returns its initial state.
func (h *SessionHandler) Create(c *gin.Context) {
	var req model.CreateSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sess, err := h.hub.Create(c.Request.Context(), req.ExamID, middleware.GetToken(c))
	if err != nil {
		h.failFor(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": sess.Snapshot()})
}

// Resume godoc
// POST /api/v1/sessions/:session_id/resume
// Rebuilds a session from the recovery mirror after a restart. A session
// still live in this process is returned unchanged.
func (h *SessionHandler) Resume(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	var req model.ResumeSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sess, err := h.hub.Resume(c.Request.Context(), sessionID, req.ExamID, middleware.GetToken(c))
	if err != nil {
		h.failFor(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": sess.Snapshot()})
}

// GetState godoc
// GET /api/v1/sessions/:session_id/state
// Returns the full rendering snapshot for a session.
func (h *SessionHandler) GetState(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	snap, err := h.hub.Snapshot(sessionID)
	if err != nil {
		h.failFor(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": snap})
}

// Draft godoc
// PUT /api/v1/sessions/:session_id/draft
// Records an in-memory draft edit for a question.
func (h *SessionHandler) Draft(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	var req model.DraftRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.hub.SetDraft(sessionID, req.QuestionID, req.Text); err != nil {
		h.failFor(c, err)
		return
	}

	h.respondWithSnapshot(c, sessionID)
}

// Save godoc
// POST /api/v1/sessions/:session_id/save
// Explicitly persists the current draft for a question.
func (h *SessionHandler) Save(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	var req model.SaveRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.hub.Save(sessionID, req.QuestionID); err != nil {
		h.failFor(c, err)
		return
	}

	h.respondWithSnapshot(c, sessionID)
}

// Navigate godoc
// POST /api/v1/sessions/:session_id/navigate
// Moves the active-question cursor, auto-saving the outgoing question.
func (h *SessionHandler) Navigate(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	var req model.NavigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.hub.Navigate(sessionID, *req.Index); err != nil {
		h.failFor(c, err)
		return
	}

	h.respondWithSnapshot(c, sessionID)
}

// RunTests godoc
// POST /api/v1/sessions/:session_id/questions/:question_id/run
// Sends the question's current draft to the judge and returns the result.
// A result that became stale while the run was outstanding yields 204.
func (h *SessionHandler) RunTests(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.hub.RunTests(c.Request.Context(), sessionID, questionID)
	if err != nil {
		h.failFor(c, err)
		return
	}
	if result == nil {
		// The session completed while the run was outstanding; the result
		// was discarded.
		c.Status(http.StatusNoContent)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// Submit godoc
// POST /api/v1/sessions/:session_id/submit
// Finalizes the session. Repeated calls after completion are no-ops that
// report the current status.
func (h *SessionHandler) Submit(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	status, err := h.hub.Submit(c.Request.Context(), sessionID, session.TriggerManual)
	if err != nil {
		if errors.Is(err, hub.ErrSessionNotFound) || errors.Is(err, session.ErrNotStarted) {
			h.failFor(c, err)
			return
		}
		// Delivery failed but the sheet is preserved; report the terminal
		// status alongside the error code so the client can offer a retry.
		code := response.ErrSubmissionFailed
		statusCode := http.StatusBadGateway
		if errors.Is(err, auth.ErrSessionExpired) {
			code = response.ErrSessionExpired
			statusCode = http.StatusUnauthorized
		}
		response.FailWithData(c, statusCode, code, gin.H{"status": status})
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": status})
}

func (h *SessionHandler) sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

func (h *SessionHandler) respondWithSnapshot(c *gin.Context, sessionID uuid.UUID) {
	snap, err := h.hub.Snapshot(sessionID)
	if err != nil {
		h.failFor(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": snap})
}

// failFor maps domain errors onto HTTP status codes and API error codes.
func (h *SessionHandler) failFor(c *gin.Context, err error) {
	switch {
	case errors.Is(err, hub.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
	case errors.Is(err, examsource.ErrExamNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
	case errors.Is(err, session.ErrUnknownQuestion):
		response.Fail(c, http.StatusNotFound, response.ErrInvalidID)
	case errors.Is(err, session.ErrInvalidIndex):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidIndex)
	case errors.Is(err, session.ErrJudgeBusy):
		response.Fail(c, http.StatusConflict, response.ErrJudgeBusy)
	case errors.Is(err, session.ErrSessionClosed), errors.Is(err, session.ErrNotStarted):
		response.Fail(c, http.StatusConflict, response.ErrSessionClosed)
	case errors.Is(err, judge.ErrUnavailable):
		response.Fail(c, http.StatusBadGateway, response.ErrJudgeUnavailable)
	case errors.Is(err, auth.ErrSessionExpired):
		response.Fail(c, http.StatusUnauthorized, response.ErrSessionExpired)
	default:
		h.log.Error().Err(err).Msg("Unhandled handler error")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
