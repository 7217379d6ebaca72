package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-timer/internal/config"
	"github.com/stemsi/exstem-timer/internal/model"
)

var (
	ErrTestNotFound       = errors.New("test not found")
	ErrTestNotActive      = errors.New("test is not active")
	ErrQuestionOutOfRange = errors.New("question out of range")
	ErrInvalidDuration    = errors.New("invalid duration")
	ErrInvalidMode        = errors.New("invalid mode")
)

// lateGrace absorbs the delay between a deadline passing on the client and
// the finish request reaching the server.
const lateGrace = 5 * time.Second

// deadlineLayout is ISO-8601 in UTC with millisecond precision.
const deadlineLayout = "2006-01-02T15:04:05.000Z07:00"

// TestStore persists tests.
type TestStore interface {
	Create(ctx context.Context, t *model.Test) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Test, error)
	Complete(ctx context.Context, id uuid.UUID, finishedAt time.Time) (*model.Test, bool, error)
}

// DeadlineStore caches server deadlines.
type DeadlineStore interface {
	Get(ctx context.Context, testID uuid.UUID) (time.Time, bool, error)
	Set(ctx context.Context, testID uuid.UUID, deadline time.Time) error
}

// ExpiryPublisher hands timer expiries to the expiry worker.
type ExpiryPublisher interface {
	Push(ctx context.Context, testID uuid.UUID, question int, expiredAt time.Time) error
}

// TestService handles test lifecycle and timer configuration.
type TestService struct {
	tests     TestStore
	deadlines DeadlineStore
	expiries  ExpiryPublisher
	cfg       *config.Config
	clock     clockwork.Clock
	log       zerolog.Logger
}

// NewTestService creates a new TestService.
func NewTestService(
	tests TestStore,
	deadlines DeadlineStore,
	expiries ExpiryPublisher,
	cfg *config.Config,
	clock clockwork.Clock,
	log zerolog.Logger,
) *TestService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TestService{
		tests:     tests,
		deadlines: deadlines,
		expiries:  expiries,
		cfg:       cfg,
		clock:     clock,
		log:       log.With().Str("component", "test_service").Logger(),
	}
}

// StartTest validates the timing rules and creates a new active test.
// Only the duration of the chosen timer mode is stored. Total-test runs get
// their server deadline fixed here.
func (s *TestService) StartTest(ctx context.Context, req model.StartTestRequest) (*model.Test, error) {
	mode, ok := model.ParseMode(string(req.Mode))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, req.Mode)
	}
	timerMode, ok := model.ParseTimerMode(string(req.TimerMode))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, req.TimerMode)
	}
	if req.TotalQuestions < 1 {
		return nil, fmt.Errorf("%w: a test needs at least one question", ErrQuestionOutOfRange)
	}

	t := &model.Test{
		Mode:           mode,
		TimerMode:      timerMode,
		AutoAdvance:    req.AutoAdvance,
		TotalQuestions: req.TotalQuestions,
	}

	switch timerMode {
	case model.TimerModePerQuestion:
		if req.PerQuestionDuration < s.cfg.MinQuestionSeconds {
			return nil, fmt.Errorf("%w: per-question duration must be at least %d seconds",
				ErrInvalidDuration, s.cfg.MinQuestionSeconds)
		}
		d := req.PerQuestionDuration
		t.PerQuestionDuration = &d
	case model.TimerModeTotalTest:
		if req.TotalTestDuration < s.cfg.MinTotalSeconds {
			return nil, fmt.Errorf("%w: total test duration must be at least %d seconds",
				ErrInvalidDuration, s.cfg.MinTotalSeconds)
		}
		d := req.TotalTestDuration
		t.TotalTestDuration = &d
		end := s.clock.Now().UTC().Add(time.Duration(d) * time.Second)
		t.ExpectedEndTime = &end
	}

	if mode == model.ModeInteractive {
		uid := strings.ReplaceAll(uuid.New().String(), "-", "")
		t.TestUID = &uid
	}

	if err := s.tests.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create test: %w", err)
	}

	if t.ExpectedEndTime != nil {
		if err := s.deadlines.Set(ctx, t.ID, *t.ExpectedEndTime); err != nil {
			s.log.Warn().Err(err).Str("test_id", t.ID.String()).Msg("Failed to cache deadline")
		}
	}

	s.log.Info().
		Str("test_id", t.ID.String()).
		Str("mode", string(t.Mode)).
		Str("timer_mode", string(t.TimerMode)).
		Int("questions", t.TotalQuestions).
		Msg("Test started")
	return t, nil
}

// Get retrieves a test.
func (s *TestService) Get(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	t, err := s.tests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("get test: %w", err)
	}
	return t, nil
}

// Deadline returns the server deadline of a test, or nil when it has none.
// Redis is consulted first; on a miss the stored value is used and written
// back to the cache.
func (s *TestService) Deadline(ctx context.Context, t *model.Test) *time.Time {
	if t.TimerMode != model.TimerModeTotalTest {
		return nil
	}

	cached, ok, err := s.deadlines.Get(ctx, t.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("test_id", t.ID.String()).Msg("Deadline cache read failed, using database")
	}
	if ok {
		return &cached
	}

	if t.ExpectedEndTime == nil {
		return nil
	}
	if err := s.deadlines.Set(ctx, t.ID, *t.ExpectedEndTime); err != nil {
		s.log.Warn().Err(err).Str("test_id", t.ID.String()).Msg("Failed to heal deadline cache")
	}
	return t.ExpectedEndTime
}

// TimerConfig builds the configuration for the page of question n (1-based).
func (s *TestService) TimerConfig(ctx context.Context, id uuid.UUID, n int) (*model.TimerConfig, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != model.TestStatusActive {
		return nil, ErrTestNotActive
	}
	if n < 1 || n > t.TotalQuestions {
		return nil, fmt.Errorf("%w: %d of %d", ErrQuestionOutOfRange, n, t.TotalQuestions)
	}

	cfg := &model.TimerConfig{
		Mode:           t.Mode,
		AutoAdvance:    t.AutoAdvance,
		TimerMode:      t.TimerMode,
		QuestionIndex:  n,
		TotalQuestions: t.TotalQuestions,
		FinishURL:      s.FinishURL(t.ID),
	}
	if t.PerQuestionDuration != nil {
		cfg.PerQuestionDuration = *t.PerQuestionDuration
	}
	if t.TotalTestDuration != nil {
		cfg.TotalDuration = *t.TotalTestDuration
	}
	if n < t.TotalQuestions {
		cfg.NextURL = s.QuestionURL(t.ID, n+1)
	}
	if t.Mode == model.ModeInteractive {
		cfg.SubmitAPI = s.pageURL("/tests/%s/questions/%d/answer", t.ID, n)
	}
	if deadline := s.Deadline(ctx, t); deadline != nil {
		cfg.TestEndTime = deadline.UTC().Format(deadlineLayout)
	}
	return cfg, nil
}

// Finish completes a test now. Repeated calls return the stored state.
func (s *TestService) Finish(ctx context.Context, id uuid.UUID) (*model.FinishResult, error) {
	return s.complete(ctx, id, s.clock.Now().UTC(), "finish")
}

// Expire completes a test whose timer ran out at expiredAt. A stream only
// notices a deadline on its next tick, so the recorded time is clamped to
// the deadline itself.
func (s *TestService) Expire(ctx context.Context, id uuid.UUID, expiredAt time.Time) (*model.FinishResult, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if deadline := s.Deadline(ctx, t); deadline != nil && expiredAt.After(*deadline) {
		expiredAt = *deadline
	}
	return s.complete(ctx, id, expiredAt.UTC(), "expiry")
}

func (s *TestService) complete(ctx context.Context, id uuid.UUID, at time.Time, source string) (*model.FinishResult, error) {
	t, changed, err := s.tests.Complete(ctx, id, at)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("complete test: %w", err)
	}

	res := &model.FinishResult{
		TestID:     t.ID,
		Status:     t.Status,
		FinishedAt: t.FinishedAt,
		Late:       isLate(t),
	}
	if changed {
		s.log.Info().
			Str("test_id", t.ID.String()).
			Str("source", source).
			Bool("late", res.Late).
			Msg("Test completed")
	}
	return res, nil
}

// PublishExpiry queues a timer expiry observed on question n.
func (s *TestService) PublishExpiry(ctx context.Context, id uuid.UUID, n int) error {
	if err := s.expiries.Push(ctx, id, n, s.clock.Now()); err != nil {
		return fmt.Errorf("publish expiry: %w", err)
	}
	return nil
}

// QuestionURL is the page of question n.
func (s *TestService) QuestionURL(id uuid.UUID, n int) string {
	return s.pageURL("/tests/%s/questions/%d", id, n)
}

// FinishURL is the finish page of a test.
func (s *TestService) FinishURL(id uuid.UUID) string {
	return s.pageURL("/tests/%s/finish", id)
}

func (s *TestService) pageURL(format string, args ...any) string {
	return s.cfg.PageBaseURL + fmt.Sprintf(format, args...)
}

func isLate(t *model.Test) bool {
	if t.ExpectedEndTime == nil || t.FinishedAt == nil {
		return false
	}
	return t.FinishedAt.After(t.ExpectedEndTime.Add(lateGrace))
}
