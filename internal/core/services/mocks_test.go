package services_test

import (
	"context"
	"errors"
	"time"

	"github.com/ritmohq/ritmo-engine/internal/core/domain"
)

func ptr[T any](v T) *T {
	return &v
}

type MockHabitRepo struct {
	store         map[string]*domain.Habit
	simulateError error
}

func NewMockHabitRepo() *MockHabitRepo {
	return &MockHabitRepo{
		store: make(map[string]*domain.Habit),
	}
}

func (m *MockHabitRepo) Create(ctx context.Context, habit *domain.Habit) error {
	if m.simulateError != nil {
		return m.simulateError
	}

	if _, exists := m.store[habit.ID]; exists {
		return errors.New("duplicate key value violates unique constraint")
	}

	if habit.Version == 0 {
		habit.Version = 1
	}
	clone := *habit
	m.store[habit.ID] = &clone
	return nil
}

func (m *MockHabitRepo) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	h, ok := m.store[id]
	if !ok || h.DeletedAt != nil {
		return nil, domain.ErrHabitNotFound
	}
	clone := *h
	return &clone, nil
}

func (m *MockHabitRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	var list []*domain.Habit
	for _, h := range m.store {
		if h.UserID == userID && h.DeletedAt == nil {
			clone := *h
			list = append(list, &clone)
		}
	}
	return list, nil
}

func (m *MockHabitRepo) Update(ctx context.Context, habit *domain.Habit) error {
	if m.simulateError != nil {
		return m.simulateError
	}
	if _, ok := m.store[habit.ID]; !ok {
		return domain.ErrHabitNotFound
	}
	habit.Version++
	clone := *habit
	m.store[habit.ID] = &clone
	return nil
}

func (m *MockHabitRepo) Delete(ctx context.Context, id string) error {
	if m.simulateError != nil {
		return m.simulateError
	}
	h, ok := m.store[id]
	if !ok {
		return domain.ErrHabitNotFound
	}
	now := time.Now().UTC()
	h.DeletedAt = &now
	h.Version++
	h.UpdatedAt = now
	return nil
}

func (m *MockHabitRepo) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.Habit, error) {
	var changes []*domain.Habit
	for _, h := range m.store {
		if h.UserID == userID && h.UpdatedAt.After(since) {
			clone := *h
			changes = append(changes, &clone)
		}
	}
	return changes, nil
}

func (m *MockHabitRepo) UpdateStreaks(ctx context.Context, id string, current, longest int) error {
	if m.simulateError != nil {
		return m.simulateError
	}
	h, ok := m.store[id]
	if !ok {
		return domain.ErrHabitNotFound
	}
	h.CurrentStreak = current
	h.LongestStreak = longest
	h.UpdatedAt = time.Now().UTC()
	return nil
}

type MockStatusRepo struct {
	log           domain.StatusLog
	simulateError error
}

func NewMockStatusRepo() *MockStatusRepo {
	return &MockStatusRepo{log: domain.StatusLog{}}
}

func (m *MockStatusRepo) UpsertDay(ctx context.Context, userID, habitID, date string, d domain.DayStatus) error {
	if m.simulateError != nil {
		return m.simulateError
	}
	m.log.SetDay(habitID, date, d)
	return nil
}

func (m *MockStatusRepo) GetDay(ctx context.Context, habitID, date string) (domain.DayStatus, error) {
	if m.simulateError != nil {
		return domain.DayStatus{}, m.simulateError
	}
	return m.log.Day(habitID, date), nil
}

func (m *MockStatusRepo) LoadByUserID(ctx context.Context, userID string) (domain.StatusLog, error) {
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	out := domain.StatusLog{}
	for habitID, days := range m.log {
		for date, d := range days {
			out.SetDay(habitID, date, d)
		}
	}
	return out, nil
}

func (m *MockStatusRepo) LoadMonth(ctx context.Context, userID, month string) (domain.StatusLog, error) {
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	out := domain.StatusLog{}
	for habitID, days := range m.log {
		for date, d := range days {
			if domain.MonthOf(date) == month {
				out.SetDay(habitID, date, d)
			}
		}
	}
	return out, nil
}

type MockOverrideRepo struct {
	store         map[string]*domain.Override
	simulateError error
}

func NewMockOverrideRepo() *MockOverrideRepo {
	return &MockOverrideRepo{store: make(map[string]*domain.Override)}
}

func (m *MockOverrideRepo) Upsert(ctx context.Context, o *domain.Override) error {
	if m.simulateError != nil {
		return m.simulateError
	}
	key := domain.OverrideKey(o.HabitID, o.Date)
	if o.IsEmpty() {
		delete(m.store, key)
		return nil
	}
	clone := *o
	m.store[key] = &clone
	return nil
}

func (m *MockOverrideRepo) GetByHabitAndDate(ctx context.Context, habitID, date string) (*domain.Override, error) {
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	o, ok := m.store[domain.OverrideKey(habitID, date)]
	if !ok {
		return nil, domain.ErrOverrideNotFound
	}
	clone := *o
	return &clone, nil
}

func (m *MockOverrideRepo) LoadByUserID(ctx context.Context, userID string) (map[string]*domain.Override, error) {
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	out := make(map[string]*domain.Override, len(m.store))
	for key, o := range m.store {
		if o.UserID == userID {
			clone := *o
			out[key] = &clone
		}
	}
	return out, nil
}

func (m *MockOverrideRepo) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.Override, error) {
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	var changes []*domain.Override
	for _, o := range m.store {
		if o.UserID == userID && o.UpdatedAt.After(since) {
			clone := *o
			changes = append(changes, &clone)
		}
	}
	return changes, nil
}

type MockUserRepo struct {
	store         map[string]*domain.User
	simulateError error
}

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{store: make(map[string]*domain.User)}
}

func (m *MockUserRepo) Create(ctx context.Context, user *domain.User) error {
	if m.simulateError != nil {
		return m.simulateError
	}
	for _, u := range m.store {
		if u.Email == user.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	clone := *user
	m.store[user.ID] = &clone
	return nil
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	for _, u := range m.store {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

// noopInvalidator satisfies EngineInvalidator for tests that don't
// care about cache drops.
type noopInvalidator struct{ calls int }

func (n *noopInvalidator) InvalidateUser(string) { n.calls++ }
