package model

import "strings"

// TimerConfig is the configuration handed to a timer session once per page
// view. Zero values are the documented defaults.
type TimerConfig struct {
	Mode                Mode      `json:"mode" yaml:"mode"`
	AutoAdvance         bool      `json:"auto_advance" yaml:"auto_advance"`
	TimerMode           TimerMode `json:"timer_mode" yaml:"timer_mode"`
	PerQuestionDuration int       `json:"per_question_duration" yaml:"per_question_duration"`
	TotalDuration       int       `json:"total_duration" yaml:"total_duration"`
	// TestEndTime is the server-issued deadline in ISO-8601 (UTC), or empty.
	TestEndTime    string `json:"test_end_time,omitempty" yaml:"test_end_time"`
	QuestionIndex  int    `json:"question_index" yaml:"question_index"`
	TotalQuestions int    `json:"total_questions" yaml:"total_questions"`
	NextURL        string `json:"next_url,omitempty" yaml:"next_url"`
	FinishURL      string `json:"finish_url,omitempty" yaml:"finish_url"`
	SubmitAPI      string `json:"submit_api,omitempty" yaml:"submit_api"`
}

// TimerConfigResponse wraps a timer config with the ticket that authorises
// its timer stream.
type TimerConfigResponse struct {
	Timer  TimerConfig `json:"timer"`
	Ticket string      `json:"ticket"`
}

func normalize(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
}

// ParseTimerMode normalises s case-insensitively. ok is false for anything
// that is neither per-question nor total-test.
func ParseTimerMode(s string) (TimerMode, bool) {
	switch m := TimerMode(normalize(s)); m {
	case TimerModePerQuestion, TimerModeTotalTest:
		return m, true
	}
	return "", false
}

// ParseMode normalises s case-insensitively.
func ParseMode(s string) (Mode, bool) {
	switch m := Mode(normalize(s)); m {
	case ModeDisplay, ModeInteractive:
		return m, true
	}
	return "", false
}
