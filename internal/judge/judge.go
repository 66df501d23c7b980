// Package judge talks to the external code-evaluation service. The service is
// an opaque asynchronous collaborator: it receives a question's answer text
// and returns per-test-case verdicts. Concurrency guards (busy rejection,
// stale-result discard) belong to the session, not to this adapter.
package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/ujikode/ujikode-backend/internal/auth"
	"github.com/ujikode/ujikode-backend/internal/model"
)

// ErrUnavailable is returned when the judge service cannot be reached or
// answers with a server error. The caller renders it as a failed run; there
// is no automatic retry.
var ErrUnavailable = errors.New("judge service unavailable")

// runRequest is the wire payload for a judge run.
type runRequest struct {
	QuestionID uuid.UUID `json:"question_id"`
	Answer     string    `json:"answer"`
}

// HTTPJudge calls the judge service over HTTP.
type HTTPJudge struct {
	baseURL string
	tokens  auth.TokenProvider
	client  *http.Client
	log     zerolog.Logger
}

// NewHTTPJudge creates a judge client for the given base URL.
func NewHTTPJudge(baseURL string, tokens auth.TokenProvider, timeout time.Duration, log zerolog.Logger) *HTTPJudge {
	return &HTTPJudge{
		baseURL: baseURL,
		tokens:  tokens,
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "judge_client").Logger(),
	}
}

// Run submits the answer for evaluation and returns the per-test-case result.
func (j *HTTPJudge) Run(ctx context.Context, questionID uuid.UUID, answer string) (*model.TestRunResult, error) {
	token, err := j.tokens.Token()
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(runRequest{QuestionID: questionID, Answer: answer})
	if err != nil {
		return nil, fmt.Errorf("encode run request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.baseURL+"/judge/run", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build run request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := j.client.Do(req)
	if err != nil {
		j.log.Warn().Err(err).Str("question_id", questionID.String()).Msg("Judge call failed")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, auth.ErrSessionExpired
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		j.log.Warn().Int("status", resp.StatusCode).Msg("Judge returned error status")
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var result model.TestRunResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return &result, nil
}
