package submitter

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

func testSheet() *model.AnswerSheet {
	return &model.AnswerSheet{
		ExamID:    uuid.New(),
		SessionID: uuid.New(),
		Answers: []model.SheetEntry{
			{QuestionID: uuid.New(), Text: "abc"},
			{QuestionID: uuid.New(), Text: "def"},
		},
	}
}

func TestHTTPSubmitterDeliversSheet(t *testing.T) {
	sheet := testSheet()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/submissions" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var got model.AnswerSheet
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode sheet: %v", err)
		}
		if got.SessionID != sheet.SessionID || len(got.Answers) != 2 {
			t.Errorf("unexpected sheet: %+v", got)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sub := NewHTTPSubmitter(srv.URL, auth.StaticToken("tok"), time.Second, zerolog.Nop())
	if err := sub.Submit(context.Background(), sheet); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
}

func TestHTTPSubmitterUnauthorizedMapsToSessionExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	sub := NewHTTPSubmitter(srv.URL, auth.StaticToken("stale"), time.Second, zerolog.Nop())
	if err := sub.Submit(context.Background(), testSheet()); !errors.Is(err, auth.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestHTTPSubmitterServerErrorIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sub := NewHTTPSubmitter(srv.URL, auth.StaticToken("tok"), time.Second, zerolog.Nop())
	if err := sub.Submit(context.Background(), testSheet()); !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
}
