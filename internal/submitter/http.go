// Package submitter delivers packaged answer sheets to the submission
// collaborator. Each Submit call is exactly one delivery attempt; the
// bounded-backoff retry policy is owned by the session.
package submitter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/ujikode/ujikode-backend/internal/auth"
	"github.com/ujikode/ujikode-backend/internal/model"
)

// ErrRejected is returned when the submission service answers with a
// non-success status other than 401.
var ErrRejected = errors.New("submission rejected by service")

// HTTPSubmitter posts answer sheets to the submission service.
type HTTPSubmitter struct {
	baseURL string
	tokens  auth.TokenProvider
	client  *http.Client
	log     zerolog.Logger
}

// NewHTTPSubmitter creates a submission client for the given base URL.
func NewHTTPSubmitter(baseURL string, tokens auth.TokenProvider, timeout time.Duration, log zerolog.Logger) *HTTPSubmitter {
	return &HTTPSubmitter{
		baseURL: baseURL,
		tokens:  tokens,
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "submission_client").Logger(),
	}
}

// Submit delivers the sheet once. A 2xx response is an acknowledgment; 401
// maps to auth.ErrSessionExpired so the session aborts its retries.
func (s *HTTPSubmitter) Submit(ctx context.Context, sheet *model.AnswerSheet) error {
	token, err := s.tokens.Token()
	if err != nil {
		return err
	}

	body, err := json.Marshal(sheet)
	if err != nil {
		return fmt.Errorf("encode answer sheet: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/submissions", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build submission request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("submission call: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return auth.ErrSessionExpired
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		s.log.Warn().Int("status", resp.StatusCode).Msg("Submission rejected")
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}

	s.log.Info().
		Str("exam_id", sheet.ExamID.String()).
		Str("session_id", sheet.SessionID.String()).
		Int("answers", len(sheet.Answers)).
		Msg("Submission acknowledged")
	return nil
}
