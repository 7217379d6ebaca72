package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exstem-timer/internal/config"
)

// ExpiryMessage is one entry of the timer expiry queue.
type ExpiryMessage struct {
	TestID     string `json:"test_id"`
	ExpiredAt  int64  `json:"expired_at"`
	QuestionNo int    `json:"question"`
}

// ExpiryQueue pushes timer expiries onto a Redis list for the expiry worker.
type ExpiryQueue struct {
	rdb *redis.Client
}

// NewExpiryQueue creates a new ExpiryQueue.
func NewExpiryQueue(rdb *redis.Client) *ExpiryQueue {
	return &ExpiryQueue{rdb: rdb}
}

// Push enqueues an expiry for testID observed at expiredAt.
func (q *ExpiryQueue) Push(ctx context.Context, testID uuid.UUID, question int, expiredAt time.Time) error {
	data, err := json.Marshal(ExpiryMessage{
		TestID:     testID.String(),
		ExpiredAt:  expiredAt.UnixMilli(),
		QuestionNo: question,
	})
	if err != nil {
		return err
	}
	return q.rdb.RPush(ctx, config.WorkerKey.TimerExpiryQueue, data).Err()
}

// Pop blocks up to timeout for the next raw message. An empty queue
// yields redis.Nil.
func (q *ExpiryQueue) Pop(ctx context.Context, timeout time.Duration) (string, error) {
	result, err := q.rdb.BLPop(ctx, timeout, config.WorkerKey.TimerExpiryQueue).Result()
	if err != nil {
		return "", err
	}
	if len(result) < 2 {
		return "", redis.Nil
	}
	return result[1], nil
}

// TryPop takes the next raw message without blocking.
func (q *ExpiryQueue) TryPop(ctx context.Context) (string, error) {
	return q.rdb.LPop(ctx, config.WorkerKey.TimerExpiryQueue).Result()
}

// Requeue puts a raw message back at the tail for a later retry.
func (q *ExpiryQueue) Requeue(ctx context.Context, raw string) error {
	return q.rdb.RPush(ctx, config.WorkerKey.TimerExpiryQueue, raw).Err()
}
