package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-timer/internal/model"
)

const testColumns = `id, test_uid, mode, timer_mode, per_question_duration, total_test_duration,
	auto_advance, total_questions, status, expected_end_time, created_at, finished_at`

// TestRepository handles test data access.
type TestRepository struct {
	pool *pgxpool.Pool
}

// NewTestRepository creates a new TestRepository.
func NewTestRepository(pool *pgxpool.Pool) *TestRepository {
	return &TestRepository{pool: pool}
}

func scanTest(row pgx.Row) (*model.Test, error) {
	t := &model.Test{}
	err := row.Scan(&t.ID, &t.TestUID, &t.Mode, &t.TimerMode, &t.PerQuestionDuration, &t.TotalTestDuration,
		&t.AutoAdvance, &t.TotalQuestions, &t.Status, &t.ExpectedEndTime, &t.CreatedAt, &t.FinishedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Create inserts a new test. ID, status and created_at are filled in by the database.
func (r *TestRepository) Create(ctx context.Context, t *model.Test) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO tests (test_uid, mode, timer_mode, per_question_duration, total_test_duration,
		                    auto_advance, total_questions, expected_end_time)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, status, created_at`,
		t.TestUID, t.Mode, t.TimerMode, t.PerQuestionDuration, t.TotalTestDuration,
		t.AutoAdvance, t.TotalQuestions, t.ExpectedEndTime,
	).Scan(&t.ID, &t.Status, &t.CreatedAt)
}

// GetByID retrieves a test. Returns pgx.ErrNoRows when it does not exist.
func (r *TestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	return scanTest(r.pool.QueryRow(ctx,
		`SELECT `+testColumns+` FROM tests WHERE id = $1`, id))
}

// Complete marks an active test completed at finishedAt. The second return
// value reports whether this call made the transition; a test that was
// already completed is returned unchanged.
func (r *TestRepository) Complete(ctx context.Context, id uuid.UUID, finishedAt time.Time) (*model.Test, bool, error) {
	t, err := scanTest(r.pool.QueryRow(ctx,
		`UPDATE tests
		 SET status = $1, finished_at = $2
		 WHERE id = $3 AND status = $4
		 RETURNING `+testColumns,
		model.TestStatusCompleted, finishedAt, id, model.TestStatusActive))
	if err == nil {
		return t, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	t, err = r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return t, false, nil
}
