package hub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/ujikode/ujikode-backend/internal/auth"
	"github.com/ujikode/ujikode-backend/internal/examsource"
	"github.com/ujikode/ujikode-backend/internal/model"
	"github.com/ujikode/ujikode-backend/internal/session"
	"github.com/ujikode/ujikode-backend/internal/store"
)

type fakeSubmitter struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeSubmitter) Submit(ctx context.Context, sheet *model.AnswerSheet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeSubmitter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeJudge struct{}

func (fakeJudge) Run(ctx context.Context, questionID uuid.UUID, answer string) (*model.TestRunResult, error) {
	return &model.TestRunResult{QuestionID: questionID}, nil
}

func shortExam() *model.Exam {
	return &model.Exam{
		ID:              uuid.New(),
		Title:           "Short Exam",
		DurationSeconds: 2,
		Questions: []model.Question{
			{ID: uuid.New(), Title: "Q1", Difficulty: model.DifficultyEasy},
			{ID: uuid.New(), Title: "Q2", Difficulty: model.DifficultyEasy},
		},
	}
}

type hubHarness struct {
	hub       *Hub
	exam      *model.Exam
	submitter *fakeSubmitter
	recovery  *store.RecoveryStore
}

func newTestHub(t *testing.T) *hubHarness {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	exam := shortExam()
	sub := &fakeSubmitter{}
	recovery := store.NewRecoveryStore(rdb, zerolog.Nop())

	h := New(Config{
		Exams: func(auth.TokenProvider) examsource.Source {
			return examsource.NewMemorySource(exam)
		},
		Judge:     func(auth.TokenProvider) session.Judge { return fakeJudge{} },
		Submitter: func(auth.TokenProvider) session.Submitter { return sub },
		Recovery:  recovery,
		Log:       zerolog.Nop(),
	})
	return &hubHarness{hub: h, exam: exam, submitter: sub, recovery: recovery}
}

func TestCreateStartsSessionAndMirrorsStart(t *testing.T) {
	ctx := context.Background()
	th := newTestHub(t)

	sess, err := th.hub.Create(ctx, th.exam.ID, auth.StaticToken("tok"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if sess.Status() != session.StatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", sess.Status())
	}

	if _, ok, err := th.recovery.StartedAt(ctx, sess.ID()); err != nil || !ok {
		t.Fatalf("expected mirrored start time, got ok=%v err=%v", ok, err)
	}

	got, err := th.hub.Get(sess.ID())
	if err != nil || got != sess {
		t.Fatalf("expected registered session, got %v err=%v", got, err)
	}
}

func TestCreateUnknownExam(t *testing.T) {
	th := newTestHub(t)
	if _, err := th.hub.Create(context.Background(), uuid.New(), auth.StaticToken("tok")); !errors.Is(err, examsource.ErrExamNotFound) {
		t.Fatalf("expected ErrExamNotFound, got %v", err)
	}
}

func TestUnknownSessionIsRejected(t *testing.T) {
	th := newTestHub(t)
	id := uuid.New()

	if err := th.hub.SetDraft(id, uuid.New(), "x"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := th.hub.Snapshot(id); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := th.hub.Submit(context.Background(), id, session.TriggerManual); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSaveMirrorsAnswer(t *testing.T) {
	ctx := context.Background()
	th := newTestHub(t)

	sess, err := th.hub.Create(ctx, th.exam.ID, auth.StaticToken("tok"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	q1 := th.exam.Questions[0].ID

	if err := th.hub.SetDraft(sess.ID(), q1, "my answer"); err != nil {
		t.Fatalf("draft failed: %v", err)
	}
	if err := th.hub.Save(sess.ID(), q1); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	answers, err := th.recovery.Answers(ctx, sess.ID())
	if err != nil {
		t.Fatalf("load mirror failed: %v", err)
	}
	if answers[q1.String()] != "my answer" {
		t.Fatalf("expected mirrored answer, got %v", answers)
	}
}

func TestNavigateMirrorsOutgoingAnswer(t *testing.T) {
	ctx := context.Background()
	th := newTestHub(t)

	sess, err := th.hub.Create(ctx, th.exam.ID, auth.StaticToken("tok"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	q1 := th.exam.Questions[0].ID

	if err := th.hub.SetDraft(sess.ID(), q1, "draft only"); err != nil {
		t.Fatalf("draft failed: %v", err)
	}
	if err := th.hub.Navigate(sess.ID(), 1); err != nil {
		t.Fatalf("navigate failed: %v", err)
	}

	answers, err := th.recovery.Answers(ctx, sess.ID())
	if err != nil {
		t.Fatalf("load mirror failed: %v", err)
	}
	if answers[q1.String()] != "draft only" {
		t.Fatalf("navigation must mirror the auto-saved outgoing answer, got %v", answers)
	}

	snap, err := th.hub.Snapshot(sess.ID())
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if snap.CurrentIndex != 1 {
		t.Fatalf("expected cursor at 1, got %d", snap.CurrentIndex)
	}
}

func TestSubmitClearsRecoveryState(t *testing.T) {
	ctx := context.Background()
	th := newTestHub(t)

	sess, err := th.hub.Create(ctx, th.exam.ID, auth.StaticToken("tok"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	q1 := th.exam.Questions[0].ID
	if err := th.hub.SetDraft(sess.ID(), q1, "final"); err != nil {
		t.Fatalf("draft failed: %v", err)
	}
	if err := th.hub.Save(sess.ID(), q1); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	status, err := th.hub.Submit(ctx, sess.ID(), session.TriggerManual)
	if err != nil || status != session.StatusSubmitted {
		t.Fatalf("expected SUBMITTED, got %s err=%v", status, err)
	}
	if th.submitter.callCount() != 1 {
		t.Fatalf("expected 1 submission, got %d", th.submitter.callCount())
	}

	answers, err := th.recovery.Answers(ctx, sess.ID())
	if err != nil {
		t.Fatalf("load mirror failed: %v", err)
	}
	if len(answers) != 0 {
		t.Fatalf("expected cleared mirror after submit, got %v", answers)
	}
	if _, ok, _ := th.recovery.StartedAt(ctx, sess.ID()); ok {
		t.Fatal("expected cleared start time after submit")
	}
}

func TestResumeRestoresMirroredState(t *testing.T) {
	ctx := context.Background()
	th := newTestHub(t)

	sess, err := th.hub.Create(ctx, th.exam.ID, auth.StaticToken("tok"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	q1 := th.exam.Questions[0].ID
	if err := th.hub.SetDraft(sess.ID(), q1, "recovered work"); err != nil {
		t.Fatalf("draft failed: %v", err)
	}
	if err := th.hub.Save(sess.ID(), q1); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// A fresh hub over the same recovery store stands in for a restarted
	// process that lost its in-memory sessions.
	restarted := New(Config{
		Exams: func(auth.TokenProvider) examsource.Source {
			return examsource.NewMemorySource(th.exam)
		},
		Judge:     func(auth.TokenProvider) session.Judge { return fakeJudge{} },
		Submitter: func(auth.TokenProvider) session.Submitter { return th.submitter },
		Recovery:  th.recovery,
		Log:       zerolog.Nop(),
	})

	resumed, err := restarted.Resume(ctx, sess.ID(), th.exam.ID, auth.StaticToken("tok"))
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if resumed.ID() != sess.ID() {
		t.Fatalf("resume must keep the session ID, got %s", resumed.ID())
	}

	snap := resumed.Snapshot()
	if snap.Status != session.StatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", snap.Status)
	}
	if snap.SavedCount != 1 || snap.Draft != "recovered work" {
		t.Fatalf("mirrored answer must be restored, got %+v", snap)
	}
	if snap.RemainingSeconds > th.exam.DurationSeconds {
		t.Fatalf("resumed countdown must not exceed the exam duration, got %d", snap.RemainingSeconds)
	}
}

func TestResumeUnknownSession(t *testing.T) {
	th := newTestHub(t)
	if _, err := th.hub.Resume(context.Background(), uuid.New(), th.exam.ID, auth.StaticToken("tok")); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestTickExpiryFiresTimeoutSubmission(t *testing.T) {
	ctx := context.Background()
	th := newTestHub(t)

	sess, err := th.hub.Create(ctx, th.exam.ID, auth.StaticToken("tok"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := th.hub.SetDraft(sess.ID(), th.exam.Questions[0].ID, "abc"); err != nil {
		t.Fatalf("draft failed: %v", err)
	}

	// The short exam lasts 2 seconds. Extra ticks after expiry must not fire
	// a second submission.
	for i := 0; i < 5; i++ {
		th.hub.tickAll(ctx)
	}

	deadline := time.Now().Add(2 * time.Second)
	for sess.Status() != session.StatusSubmitted {
		if time.Now().After(deadline) {
			t.Fatalf("timeout submission never completed, status=%s", sess.Status())
		}
		time.Sleep(5 * time.Millisecond)
	}

	if th.submitter.callCount() != 1 {
		t.Fatalf("expected exactly one submission, got %d", th.submitter.callCount())
	}
	sheet := sess.Sheet()
	if sheet == nil || len(sheet.Answers) != 1 || sheet.Answers[0].Text != "abc" {
		t.Fatalf("unexpected sheet: %+v", sheet)
	}
}
