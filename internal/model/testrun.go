package model

import (
	"github.com/google/uuid"
)

// TestCaseResult is the judge's verdict for a single test case.
type TestCaseResult struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Passed   bool   `json:"passed"`
}

// TestRunResult is the outcome of one judge run. Results are transient: the
// next run for the same question replaces the previous one, and nothing here
// is included in the final submission.
type TestRunResult struct {
	QuestionID uuid.UUID        `json:"question_id"`
	Cases      []TestCaseResult `json:"cases"`
	PassCount  int              `json:"pass_count"`
}

// Passed reports whether every test case in the run passed.
func (r *TestRunResult) Passed() bool {
	return r.PassCount == len(r.Cases)
}
