package submitter

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/ujikode/ujikode-backend/internal/model"
)

// PostgresSubmitter archives answer sheets directly into PostgreSQL. It is
// the sink used when the service runs without an external submission
// collaborator (SUBMIT_SINK=postgres). The whole sheet lands in one
// transaction so a retried submission can never leave a partial sheet behind.
type PostgresSubmitter struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewPostgresSubmitter creates a Postgres-backed submission sink.
func NewPostgresSubmitter(pool *pgxpool.Pool, log zerolog.Logger) *PostgresSubmitter {
	return &PostgresSubmitter{
		pool: pool,
		log:  log.With().Str("component", "postgres_submitter").Logger(),
	}
}

// Submit upserts the submission row and every answer. Safe to call again for
// the same session: the sheet is immutable once packaged, so a retry after a
// half-applied failure converges on the same rows.
func (s *PostgresSubmitter) Submit(ctx context.Context, sheet *model.AnswerSheet) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin submission tx: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	_, err = tx.Exec(ctx,
		`INSERT INTO submissions (session_id, exam_id, submitted_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (session_id) DO UPDATE
		 SET submitted_at = EXCLUDED.submitted_at`,
		sheet.SessionID, sheet.ExamID, now,
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}

	for _, entry := range sheet.Answers {
		_, err = tx.Exec(ctx,
			`INSERT INTO submission_answers (session_id, question_id, answer)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (session_id, question_id) DO UPDATE
			 SET answer = EXCLUDED.answer`,
			sheet.SessionID, entry.QuestionID, entry.Text,
		)
		if err != nil {
			return fmt.Errorf("insert answer %s: %w", entry.QuestionID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit submission: %w", err)
	}

	s.log.Info().
		Str("session_id", sheet.SessionID.String()).
		Int("answers", len(sheet.Answers)).
		Msg("Submission archived")
	return nil
}
