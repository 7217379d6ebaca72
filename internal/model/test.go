package model

import (
	"time"

	"github.com/google/uuid"
)

// Mode tells whether the test-taker can answer or is only shown content.
type Mode string

const (
	ModeDisplay     Mode = "display"
	ModeInteractive Mode = "interactive"
)

// TimerMode selects which countdown strategy governs a test.
type TimerMode string

const (
	TimerModePerQuestion TimerMode = "per-question"
	TimerModeTotalTest   TimerMode = "total-test"
)

// TestStatus enumerates test lifecycle states.
type TestStatus string

const (
	TestStatusActive    TestStatus = "active"
	TestStatusCompleted TestStatus = "completed"
)

// Test is one test attempt together with its timing rules.
type Test struct {
	ID                  uuid.UUID  `json:"id"`
	TestUID             *string    `json:"test_uid,omitempty"`
	Mode                Mode       `json:"mode"`
	TimerMode           TimerMode  `json:"timer_mode"`
	PerQuestionDuration *int       `json:"per_question_duration,omitempty"`
	TotalTestDuration   *int       `json:"total_test_duration,omitempty"`
	AutoAdvance         bool       `json:"auto_advance"`
	TotalQuestions      int        `json:"total_questions"`
	Status              TestStatus `json:"status"`
	ExpectedEndTime     *time.Time `json:"expected_end_time,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	FinishedAt          *time.Time `json:"finished_at,omitempty"`
}

// StartTestRequest is the payload for starting a new test.
type StartTestRequest struct {
	Mode                Mode      `json:"mode" binding:"required,test_mode"`
	TimerMode           TimerMode `json:"timer_mode" binding:"required,timer_mode"`
	PerQuestionDuration int       `json:"per_question_duration" binding:"omitempty,min=0,max=86400"`
	TotalTestDuration   int       `json:"total_test_duration" binding:"omitempty,min=0,max=604800"`
	AutoAdvance         bool      `json:"auto_advance"`
	TotalQuestions      int       `json:"total_questions" binding:"required,min=1,max=1000"`
}

// FinishResult reports the outcome of finishing a test.
type FinishResult struct {
	TestID     uuid.UUID  `json:"test_id"`
	Status     TestStatus `json:"status"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	// Late is set when the test was finished after its server deadline.
	Late bool `json:"late"`
}
