package examsource

import (
	"context"

	"github.com/google/uuid"
	"github.com/ujikode/ujikode-backend/internal/model"
)

// MemorySource serves exams from a fixed in-memory set, used in demo mode and
// in tests.
type MemorySource struct {
	exams map[uuid.UUID]*model.Exam
}

// NewMemorySource creates a source over the given exams.
func NewMemorySource(exams ...*model.Exam) *MemorySource {
	m := make(map[uuid.UUID]*model.Exam, len(exams))
	for _, e := range exams {
		m[e.ID] = e
	}
	return &MemorySource{exams: m}
}

// GetExam implements Source.
func (s *MemorySource) GetExam(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	exam, ok := s.exams[id]
	if !ok {
		return nil, ErrExamNotFound
	}
	return exam, nil
}

// DemoExamID is the fixed ID of the built-in demo exam, so a local frontend
// can start a session without an exam-listing service.
var DemoExamID = uuid.MustParse("6cf71bd4-5a3c-4b13-9a9e-2f27e1a40d15")

// DemoExam returns the built-in two-question coding exam used when the
// service runs with EXAM_SOURCE=demo.
func DemoExam() *model.Exam {
	return &model.Exam{
		ID:              DemoExamID,
		Title:           "Data Structures & Algorithms Final Exam",
		DurationSeconds: 5400,
		Questions: []model.Question{
			{
				ID:          uuid.MustParse("91b1f1de-6a04-4cce-9e7c-30a1fa82a7b1"),
				Title:       "Reverse a Linked List",
				Difficulty:  model.DifficultyMedium,
				Description: "Write a function to reverse a singly linked list iteratively.",
				Example:     "Input: [1,2,3,4,5]\nOutput: [5,4,3,2,1]\n\nExplanation: The linked list is reversed.",
				TestCases: []model.TestCase{
					{Input: "[1,2,3]", Expected: "[3,2,1]"},
					{Input: "[1,2]", Expected: "[2,1]"},
					{Input: "[]", Expected: "[]"},
				},
			},
			{
				ID:          uuid.MustParse("d0a6f9b2-44e8-4d8e-8a3a-5b90fbb2f614"),
				Title:       "Binary Tree Traversal",
				Difficulty:  model.DifficultyEasy,
				Description: "Implement inorder traversal of a binary tree.",
				Example:     "Input: [1,null,2,3]\nOutput: [1,3,2]",
			},
		},
	}
}
