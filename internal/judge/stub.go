package judge

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ujikode/ujikode-backend/internal/model"
)

// StubJudge is a local stand-in for the judge service, used in demo mode.
// It waits a fixed latency and then grades each test case by checking whether
// the answer mentions the expected output — crude, but enough to exercise the
// busy guard and the stale-result path against a realistic delay.
type StubJudge struct {
	exam    *model.Exam
	latency time.Duration
}

// NewStubJudge creates a stub judge grading against the given exam.
func NewStubJudge(exam *model.Exam, latency time.Duration) *StubJudge {
	return &StubJudge{exam: exam, latency: latency}
}

// Run implements the session's Judge contract.
func (j *StubJudge) Run(ctx context.Context, questionID uuid.UUID, answer string) (*model.TestRunResult, error) {
	if j.latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(j.latency):
		}
	}

	idx := j.exam.QuestionIndexByID(questionID)
	if idx < 0 {
		return nil, ErrUnavailable
	}

	result := &model.TestRunResult{QuestionID: questionID}
	for _, tc := range j.exam.Questions[idx].TestCases {
		passed := strings.TrimSpace(answer) != "" && strings.Contains(answer, tc.Expected)
		actual := tc.Expected
		if !passed {
			actual = strings.TrimSpace(answer)
		}
		result.Cases = append(result.Cases, model.TestCaseResult{
			Input:    tc.Input,
			Expected: tc.Expected,
			Actual:   actual,
			Passed:   passed,
		})
		if passed {
			result.PassCount++
		}
	}
	return result, nil
}
