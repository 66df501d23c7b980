// Package store mirrors session-recovery state into Redis. The in-memory
// Answer Store stays the source of truth during a session; the mirror only
// exists so a page reload or reconnect can restore saved drafts and the
// original start time. Mirror failures are logged and tolerated — losing the
// mirror degrades reload recovery, never the live session.
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RecoveryStore persists per-session recovery state in Redis.
type RecoveryStore struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRecoveryStore creates a RecoveryStore over the given client.
func NewRecoveryStore(rdb *redis.Client, log zerolog.Logger) *RecoveryStore {
	return &RecoveryStore{
		rdb: rdb,
		log: log.With().Str("component", "recovery_store").Logger(),
	}
}

func answersKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("session:%s:answers", sessionID)
}

func startKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("session:%s:started_at", sessionID)
}

// MirrorAnswer records one saved answer in the session's recovery hash.
func (s *RecoveryStore) MirrorAnswer(ctx context.Context, sessionID, questionID uuid.UUID, text string) error {
	if err := s.rdb.HSet(ctx, answersKey(sessionID), questionID.String(), text).Err(); err != nil {
		return fmt.Errorf("mirror answer: %w", err)
	}
	return nil
}

// MirrorStart records the session start time, from which remaining time can
// be recomputed on recovery.
func (s *RecoveryStore) MirrorStart(ctx context.Context, sessionID uuid.UUID, startedAt time.Time) error {
	if err := s.rdb.Set(ctx, startKey(sessionID), startedAt.Unix(), 0).Err(); err != nil {
		return fmt.Errorf("mirror start time: %w", err)
	}
	return nil
}

// Answers returns every mirrored answer for a session, keyed by question ID.
func (s *RecoveryStore) Answers(ctx context.Context, sessionID uuid.UUID) (map[string]string, error) {
	answers, err := s.rdb.HGetAll(ctx, answersKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load mirrored answers: %w", err)
	}
	return answers, nil
}

// StartedAt returns the mirrored start time, or ok=false if none is recorded.
func (s *RecoveryStore) StartedAt(ctx context.Context, sessionID uuid.UUID) (time.Time, bool, error) {
	val, err := s.rdb.Get(ctx, startKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("load start time: %w", err)
	}
	unix, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid start time in cache: %w", err)
	}
	return time.Unix(unix, 0), true, nil
}

// Clear drops all recovery state for a session, called after a successful
// submission.
func (s *RecoveryStore) Clear(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.rdb.Del(ctx, answersKey(sessionID), startKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear recovery state: %w", err)
	}
	return nil
}
