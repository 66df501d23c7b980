// Package examsource loads immutable exam definitions. The exam-detail
// service is the one external read the engine depends on before a session
// starts; a memory source ships a demo exam for local development.
package examsource

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ujikode/ujikode-backend/internal/model"
)

// ErrExamNotFound indicates the requested exam does not exist.
var ErrExamNotFound = errors.New("exam not found")

// Source loads exam definitions by ID.
type Source interface {
	GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error)
}
