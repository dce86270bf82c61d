package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReviewStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		name     string
		status   ReviewStatus
		terminal bool
	}{
		{"pending is not terminal", ReviewPending, false},
		{"running is not terminal", ReviewRunning, false},
		{"completed is terminal", ReviewCompleted, true},
		{"failed is terminal", ReviewFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
		})
	}
}

func TestReviewStatus_IsValid(t *testing.T) {
	for _, s := range []ReviewStatus{ReviewPending, ReviewRunning, ReviewCompleted, ReviewFailed} {
		assert.True(t, s.IsValid(), s.String())
	}
	assert.False(t, ReviewStatus("CANCELLED").IsValid())
}

func TestResultStatus_IsValid(t *testing.T) {
	for _, s := range []ResultStatus{ResultPass, ResultRisk, ResultMissing, ResultFailed} {
		assert.True(t, s.IsValid(), s.String())
	}
	assert.False(t, ResultStatus("WARN").IsValid())
	assert.False(t, ResultStatus("").IsValid())
}

func TestReviewTask_Progress(t *testing.T) {
	task := ReviewTask{
		ReviewID: "review_doc1_abcd1234",
		DocID:    "doc1",
		RuleIDs:  []string{"r1", "r2", "r3"},
		Status:   ReviewRunning,
		Results: []ReviewResult{
			{RuleID: "r1", Status: ResultPass},
		},
	}

	completed, total := task.Progress()

	assert.Equal(t, 1, completed)
	assert.Equal(t, 3, total)
}
