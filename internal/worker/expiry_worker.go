package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-timer/internal/model"
	"github.com/stemsi/exstem-timer/internal/repository"
	"github.com/stemsi/exstem-timer/internal/service"
)

const (
	PollTimeout = 1 * time.Second // Must be >= 1s to satisfy Redis
	RetryDelay  = 5 * time.Second
)

// Queue is the expiry list the worker consumes.
type Queue interface {
	Pop(ctx context.Context, timeout time.Duration) (string, error)
	TryPop(ctx context.Context) (string, error)
	Requeue(ctx context.Context, raw string) error
}

// Expirer completes tests whose timer ran out.
type Expirer interface {
	Expire(ctx context.Context, id uuid.UUID, expiredAt time.Time) (*model.FinishResult, error)
}

// ExpiryWorker consumes timer_expiry_queue and completes the expired tests.
type ExpiryWorker struct {
	queue Queue
	tests Expirer
	clock clockwork.Clock
	log   zerolog.Logger
}

// NewExpiryWorker creates a new ExpiryWorker. A nil clock means the wall clock.
func NewExpiryWorker(queue Queue, tests Expirer, clock clockwork.Clock, log zerolog.Logger) *ExpiryWorker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ExpiryWorker{
		queue: queue,
		tests: tests,
		clock: clock,
		log:   log.With().Str("component", "expiry_worker").Logger(),
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *ExpiryWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *ExpiryWorker) processNext(ctx context.Context) {
	raw, err := w.queue.Pop(ctx, PollTimeout)
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("Queue error, backing off")
			w.wait(ctx, RetryDelay)
		}
		return
	}

	if err := w.handle(ctx, raw); err != nil {
		w.log.Error().Err(err).Msg("Expire error, retrying in 5s")
		// Push back to queue for retry.
		if err := w.queue.Requeue(ctx, raw); err != nil {
			w.log.Error().Err(err).Msg("Requeue failed, expiry lost")
		}
		w.wait(ctx, RetryDelay)
	}
}

// handle completes the test named by raw. Malformed messages and unknown
// tests are dropped; only storage failures are returned for a retry.
func (w *ExpiryWorker) handle(ctx context.Context, raw string) error {
	var msg repository.ExpiryMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return nil
	}

	testID, err := uuid.Parse(msg.TestID)
	if err != nil {
		w.log.Error().Err(err).Str("test_id", msg.TestID).Msg("Invalid test id")
		return nil
	}

	res, err := w.tests.Expire(ctx, testID, time.UnixMilli(msg.ExpiredAt))
	if errors.Is(err, service.ErrTestNotFound) {
		w.log.Warn().Str("test_id", msg.TestID).Msg("Expired test no longer exists")
		return nil
	}
	if err != nil {
		return err
	}

	w.log.Debug().
		Str("test_id", msg.TestID).
		Int("question", msg.QuestionNo).
		Bool("late", res.Late).
		Msg("Test expired")
	return nil
}

func (w *ExpiryWorker) wait(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-w.clock.After(d):
	}
}

// drain processes all remaining items in the queue before shutdown.
func (w *ExpiryWorker) drain(ctx context.Context) {
	drained := 0
	for {
		raw, err := w.queue.TryPop(ctx)
		if err != nil {
			break
		}

		if err := w.handle(ctx, raw); err != nil {
			w.log.Error().Err(err).Msg("Drain expire error")
			_ = w.queue.Requeue(ctx, raw)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
