package judge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/ujikode/ujikode-backend/internal/auth"
	"github.com/ujikode/ujikode-backend/internal/model"
)

func TestHTTPJudgeRun(t *testing.T) {
	qid := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/judge/run" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("missing bearer token, got %q", got)
		}
		var req runRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.QuestionID != qid || req.Answer != "my solution" {
			t.Errorf("unexpected request: %+v", req)
		}
		json.NewEncoder(w).Encode(model.TestRunResult{
			QuestionID: qid,
			Cases: []model.TestCaseResult{
				{Input: "[1,2]", Expected: "[2,1]", Actual: "[2,1]", Passed: true},
				{Input: "[]", Expected: "[]", Actual: "boom", Passed: false},
			},
			PassCount: 1,
		})
	}))
	defer srv.Close()

	j := NewHTTPJudge(srv.URL, auth.StaticToken("test-token"), time.Second, zerolog.Nop())
	result, err := j.Run(context.Background(), qid, "my solution")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.PassCount != 1 || len(result.Cases) != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Passed() {
		t.Fatal("run with a failing case must not report all-passed")
	}
}

func TestHTTPJudgeUnauthorizedMapsToSessionExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	j := NewHTTPJudge(srv.URL, auth.StaticToken("stale"), time.Second, zerolog.Nop())
	if _, err := j.Run(context.Background(), uuid.New(), "x"); !errors.Is(err, auth.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestHTTPJudgeServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	j := NewHTTPJudge(srv.URL, auth.StaticToken("tok"), time.Second, zerolog.Nop())
	if _, err := j.Run(context.Background(), uuid.New(), "x"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestHTTPJudgeTransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	j := NewHTTPJudge(srv.URL, auth.StaticToken("tok"), time.Second, zerolog.Nop())
	if _, err := j.Run(context.Background(), uuid.New(), "x"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestStubJudgeGradesAgainstTestCases(t *testing.T) {
	exam := &model.Exam{
		ID: uuid.New(),
		Questions: []model.Question{
			{
				ID: uuid.New(),
				TestCases: []model.TestCase{
					{Input: "[1,2,3]", Expected: "[3,2,1]"},
					{Input: "[]", Expected: "[]"},
				},
			},
		},
	}
	j := NewStubJudge(exam, 0)

	result, err := j.Run(context.Background(), exam.Questions[0].ID, "returns [3,2,1] and []")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.PassCount != 2 {
		t.Fatalf("expected 2 passes, got %d", result.PassCount)
	}

	result, err = j.Run(context.Background(), exam.Questions[0].ID, "")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.PassCount != 0 {
		t.Fatalf("empty answer should fail every case, got %d passes", result.PassCount)
	}
}
