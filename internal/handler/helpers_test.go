package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-timer/internal/config"
	"github.com/stemsi/exstem-timer/internal/middleware"
	"github.com/stemsi/exstem-timer/internal/model"
	"github.com/stemsi/exstem-timer/internal/service"
	"github.com/stemsi/exstem-timer/internal/validator"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

type memStore struct {
	mu    sync.Mutex
	tests map[uuid.UUID]*model.Test
}

func (m *memStore) Create(_ context.Context, t *model.Test) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = uuid.New()
	t.Status = model.TestStatusActive
	cp := *t
	m.tests[t.ID] = &cp
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*model.Test, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) Complete(_ context.Context, id uuid.UUID, at time.Time) (*model.Test, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tests[id]
	if !ok {
		return nil, false, pgx.ErrNoRows
	}
	changed := t.Status == model.TestStatusActive
	if changed {
		t.Status = model.TestStatusCompleted
		t.FinishedAt = &at
	}
	cp := *t
	return &cp, changed, nil
}

type memDeadlines struct {
	mu     sync.Mutex
	values map[uuid.UUID]time.Time
}

func (m *memDeadlines) Get(_ context.Context, id uuid.UUID) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[id]
	return v, ok, nil
}

func (m *memDeadlines) Set(_ context.Context, id uuid.UUID, d time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[id] = d
	return nil
}

type memExpiries struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (m *memExpiries) Push(_ context.Context, id uuid.UUID, _ int, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = append(m.ids, id)
	return nil
}

func (m *memExpiries) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ids)
}

type env struct {
	clock    *clockwork.FakeClock
	expiries *memExpiries
	tests    *service.TestService
	tickets  *service.TicketService
	router   *gin.Engine
}

func newEnv(tickInterval time.Duration) *env {
	gin.SetMode(gin.TestMode)
	validator.Setup()

	e := &env{
		clock:    clockwork.NewFakeClockAt(epoch),
		expiries: &memExpiries{},
	}
	cfg := &config.Config{
		MinQuestionSeconds: 5,
		MinTotalSeconds:    30,
		TicketSecret:       "test-secret",
		TicketTTL:          time.Hour,
	}
	e.tests = service.NewTestService(
		&memStore{tests: make(map[uuid.UUID]*model.Test)},
		&memDeadlines{values: make(map[uuid.UUID]time.Time)},
		e.expiries, cfg, e.clock, zerolog.Nop(),
	)
	e.tickets = service.NewTicketService(cfg, nil)

	th := NewTestHandler(e.tests, e.tickets, zerolog.Nop())
	wh := NewTimerWSHandler(e.tests, e.clock, tickInterval, zerolog.Nop(), nil)

	r := gin.New()
	api := r.Group("/api/v1/tests")
	api.POST("", th.StartTest)
	api.GET("/:id", th.GetTest)
	api.GET("/:id/questions/:n/timer", th.GetTimerConfig)
	api.POST("/:id/finish", th.FinishTest)
	r.GET("/ws/v1/tests/:id/questions/:n/timer", middleware.RequireTimerTicket(e.tickets), wh.TimerStream)
	e.router = r
	return e
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
}

func (e *env) do(t *testing.T, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w.Code, env
}

func (e *env) start(t *testing.T, req model.StartTestRequest) *model.Test {
	t.Helper()
	test, err := e.tests.StartTest(context.Background(), req)
	require.NoError(t, err)
	return test
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

