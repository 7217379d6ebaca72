package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stemsi/exstem-timer/internal/model"
)

type memStore struct {
	mu    sync.Mutex
	tests map[uuid.UUID]*model.Test
	err   error
}

func newMemStore() *memStore {
	return &memStore{tests: make(map[uuid.UUID]*model.Test)}
}

func (m *memStore) Create(_ context.Context, t *model.Test) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	t.ID = uuid.New()
	t.Status = model.TestStatusActive
	t.CreatedAt = time.Now()
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
	changed := false
	if t.Status == model.TestStatusActive {
		t.Status = model.TestStatusCompleted
		t.FinishedAt = &at
		changed = true
	}
	cp := *t
	return &cp, changed, nil
}

type memDeadlines struct {
	mu     sync.Mutex
	values map[uuid.UUID]time.Time
	sets   int
	getErr error
}

func newMemDeadlines() *memDeadlines {
	return &memDeadlines{values: make(map[uuid.UUID]time.Time)}
}

func (m *memDeadlines) Get(_ context.Context, id uuid.UUID) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return time.Time{}, false, m.getErr
	}
	v, ok := m.values[id]
	return v, ok, nil
}

func (m *memDeadlines) Set(_ context.Context, id uuid.UUID, deadline time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[id] = deadline
	m.sets++
	return nil
}

type expiry struct {
	testID   uuid.UUID
	question int
	at       time.Time
}

type memExpiries struct {
	mu    sync.Mutex
	items []expiry
}

func (m *memExpiries) Push(_ context.Context, id uuid.UUID, n int, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, expiry{id, n, at})
	return nil
}

var errStoreDown = errors.New("store down")
