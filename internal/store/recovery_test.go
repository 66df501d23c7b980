package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func newTestStore(t *testing.T) *RecoveryStore {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRecoveryStore(rdb, zerolog.Nop())
}

func TestMirrorAndRestoreAnswers(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	sessionID := uuid.New()
	q1, q2 := uuid.New(), uuid.New()

	if err := store.MirrorAnswer(ctx, sessionID, q1, "abc"); err != nil {
		t.Fatalf("mirror failed: %v", err)
	}
	if err := store.MirrorAnswer(ctx, sessionID, q2, "def"); err != nil {
		t.Fatalf("mirror failed: %v", err)
	}
	// Re-saving overwrites.
	if err := store.MirrorAnswer(ctx, sessionID, q1, "abc v2"); err != nil {
		t.Fatalf("mirror failed: %v", err)
	}

	answers, err := store.Answers(ctx, sessionID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(answers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(answers))
	}
	if answers[q1.String()] != "abc v2" || answers[q2.String()] != "def" {
		t.Fatalf("unexpected answers: %v", answers)
	}
}

func TestMirrorStartRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	sessionID := uuid.New()

	if _, ok, err := store.StartedAt(ctx, sessionID); err != nil || ok {
		t.Fatalf("expected no start time, got ok=%v err=%v", ok, err)
	}

	started := time.Now().Truncate(time.Second)
	if err := store.MirrorStart(ctx, sessionID, started); err != nil {
		t.Fatalf("mirror start failed: %v", err)
	}

	got, ok, err := store.StartedAt(ctx, sessionID)
	if err != nil || !ok {
		t.Fatalf("load start failed: ok=%v err=%v", ok, err)
	}
	if !got.Equal(started) {
		t.Fatalf("expected %v, got %v", started, got)
	}
}

func TestClearDropsRecoveryState(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	sessionID := uuid.New()

	if err := store.MirrorAnswer(ctx, sessionID, uuid.New(), "x"); err != nil {
		t.Fatalf("mirror failed: %v", err)
	}
	if err := store.MirrorStart(ctx, sessionID, time.Now()); err != nil {
		t.Fatalf("mirror start failed: %v", err)
	}

	if err := store.Clear(ctx, sessionID); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	answers, err := store.Answers(ctx, sessionID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(answers) != 0 {
		t.Fatalf("expected no answers after clear, got %v", answers)
	}
	if _, ok, _ := store.StartedAt(ctx, sessionID); ok {
		t.Fatal("expected no start time after clear")
	}
}
