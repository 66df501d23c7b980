package model

import (
	"github.com/google/uuid"
)

// Difficulty enumerates question difficulty tiers.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// Exam is the immutable definition of an assessment. It is loaded once when a
// session starts and never mutated afterwards.
type Exam struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	DurationSeconds int        `json:"duration_seconds"`
	Questions       []Question `json:"questions"`
}

// QuestionIndexByID returns the position of a question in the exam, or -1 if
// the exam has no question with that ID.
func (e *Exam) QuestionIndexByID(id uuid.UUID) int {
	for i := range e.Questions {
		if e.Questions[i].ID == id {
			return i
		}
	}
	return -1
}

// Question is a single coding problem presented to the student.
type Question struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Difficulty  Difficulty `json:"difficulty"`
	Description string     `json:"description"`
	Example     string     `json:"example"`
	TestCases   []TestCase `json:"test_cases"`
}

// TestCase is an input/expected-output pair. Both sides are opaque strings;
// the judge service is the only component that interprets them.
type TestCase struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
}
