package examsource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/ujikode/ujikode-backend/internal/auth"
	"github.com/ujikode/ujikode-backend/internal/model"
)

// HTTPSource fetches exams from the exam-detail service.
type HTTPSource struct {
	baseURL string
	tokens  auth.TokenProvider
	client  *http.Client
	log     zerolog.Logger
}

// NewHTTPSource creates an exam-detail client for the given base URL.
func NewHTTPSource(baseURL string, tokens auth.TokenProvider, timeout time.Duration, log zerolog.Logger) *HTTPSource {
	return &HTTPSource{
		baseURL: baseURL,
		tokens:  tokens,
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "exam_source").Logger(),
	}
}

// GetExam implements Source.
func (s *HTTPSource) GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	token, err := s.tokens.Token()
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/exams/%s", s.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build exam request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("exam-detail call: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, auth.ErrSessionExpired
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrExamNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("exam-detail status %d", resp.StatusCode)
	}

	var exam model.Exam
	if err := json.NewDecoder(resp.Body).Decode(&exam); err != nil {
		return nil, fmt.Errorf("decode exam: %w", err)
	}
	if len(exam.Questions) == 0 {
		// An exam with no questions would leave the session with no valid
		// cursor position.
		return nil, fmt.Errorf("exam %s has no questions", id)
	}
	return &exam, nil
}
