package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-timer/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartTestEndpoint(t *testing.T) {
	e := newEnv(time.Second)

	code, env := e.do(t, http.MethodPost, "/api/v1/tests",
		`{"mode":"interactive","timer_mode":"total-test","total_test_duration":600,"total_questions":5}`)
	require.Equal(t, http.StatusCreated, code)

	body := decode[struct {
		Test model.Test `json:"test"`
	}](t, env.Data)
	assert.Equal(t, model.TimerModeTotalTest, body.Test.TimerMode)
	require.NotNil(t, body.Test.ExpectedEndTime)
	assert.True(t, body.Test.ExpectedEndTime.Equal(epoch.Add(10*time.Minute)))
}

func TestStartTestValidation(t *testing.T) {
	e := newEnv(time.Second)

	code, env := e.do(t, http.MethodPost, "/api/v1/tests",
		`{"mode":"display","timer_mode":"hourglass","total_questions":5}`)
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Fields, "timer_mode")

	code, env = e.do(t, http.MethodPost, "/api/v1/tests",
		`{"mode":"display","timer_mode":"per-question","per_question_duration":3,"total_questions":5}`)
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_DURATION", env.Error.Code)
}

func TestGetTimerConfigEndpoint(t *testing.T) {
	e := newEnv(time.Second)
	test := e.start(t, model.StartTestRequest{
		Mode: model.ModeDisplay, TimerMode: model.TimerModePerQuestion, PerQuestionDuration: 20, AutoAdvance: true, TotalQuestions: 2,
	})

	code, env := e.do(t, http.MethodGet, "/api/v1/tests/"+test.ID.String()+"/questions/1/timer", "")
	require.Equal(t, http.StatusOK, code)

	body := decode[model.TimerConfigResponse](t, env.Data)
	assert.Equal(t, 20, body.Timer.PerQuestionDuration)
	assert.Equal(t, "/tests/"+test.ID.String()+"/questions/2", body.Timer.NextURL)
	assert.NotEmpty(t, body.Ticket)

	claims, err := e.tickets.Validate(body.Ticket)
	require.NoError(t, err)
	assert.Equal(t, test.ID, claims.TestID)
	assert.Equal(t, 1, claims.Question)
}

func TestGetTimerConfigErrors(t *testing.T) {
	e := newEnv(time.Second)
	test := e.start(t, model.StartTestRequest{
		Mode: model.ModeDisplay, TimerMode: model.TimerModePerQuestion, PerQuestionDuration: 20, TotalQuestions: 2,
	})
	base := "/api/v1/tests/" + test.ID.String()

	tests := []struct {
		path string
		code int
		err  string
	}{
		{"/api/v1/tests/nope/questions/1/timer", http.StatusBadRequest, "INVALID_ID"},
		{base + "/questions/x/timer", http.StatusBadRequest, "INVALID_ID"},
		{base + "/questions/3/timer", http.StatusNotFound, "QUESTION_OUT_OF_RANGE"},
		{"/api/v1/tests/" + uuid.NewString() + "/questions/1/timer", http.StatusNotFound, "TEST_NOT_FOUND"},
	}
	for _, tc := range tests {
		code, env := e.do(t, http.MethodGet, tc.path, "")
		assert.Equal(t, tc.code, code, tc.path)
		require.NotNil(t, env.Error, tc.path)
		assert.Equal(t, tc.err, env.Error.Code, tc.path)
	}

	e.do(t, http.MethodPost, base+"/finish", "")
	code, env := e.do(t, http.MethodGet, base+"/questions/1/timer", "")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "TEST_NOT_ACTIVE", env.Error.Code)
}

func TestFinishEndpointIsIdempotent(t *testing.T) {
	e := newEnv(time.Second)
	test := e.start(t, model.StartTestRequest{
		Mode: model.ModeDisplay, TimerMode: model.TimerModeTotalTest, TotalTestDuration: 60, TotalQuestions: 2,
	})
	path := "/api/v1/tests/" + test.ID.String() + "/finish"

	code, env := e.do(t, http.MethodPost, path, "")
	require.Equal(t, http.StatusOK, code)
	first := decode[model.FinishResult](t, env.Data)
	assert.Equal(t, model.TestStatusCompleted, first.Status)
	assert.False(t, first.Late)

	e.clock.Advance(time.Hour)
	code, env = e.do(t, http.MethodPost, path, "")
	require.Equal(t, http.StatusOK, code)
	second := decode[model.FinishResult](t, env.Data)
	require.NotNil(t, second.FinishedAt)
	assert.True(t, first.FinishedAt.Equal(*second.FinishedAt))
}

func TestGetTestEndpoint(t *testing.T) {
	e := newEnv(time.Second)
	test := e.start(t, model.StartTestRequest{
		Mode: model.ModeDisplay, TimerMode: model.TimerModePerQuestion, PerQuestionDuration: 20, TotalQuestions: 2,
	})

	code, _ := e.do(t, http.MethodGet, "/api/v1/tests/"+test.ID.String(), "")
	assert.Equal(t, http.StatusOK, code)

	code, env := e.do(t, http.MethodGet, "/api/v1/tests/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "TEST_NOT_FOUND", env.Error.Code)
}
