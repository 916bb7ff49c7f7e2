package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ritmohq/ritmo-engine/internal/core/domain"
)

// In-memory repositories backing tests and local development runs.

type InMemoryHabitRepository struct {
	store map[string]*domain.Habit

	mu sync.RWMutex
}

func NewInMemoryHabitRepository() *InMemoryHabitRepository {
	return &InMemoryHabitRepository{
		store: make(map[string]*domain.Habit),
	}
}

func (r *InMemoryHabitRepository) Create(ctx context.Context, habit *domain.Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *habit
	r.store[habit.ID] = &clone
	return nil
}

func (r *InMemoryHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	habit, ok := r.store[id]
	if !ok || habit.DeletedAt != nil {
		return nil, domain.ErrHabitNotFound
	}
	clone := *habit
	return &clone, nil
}

func (r *InMemoryHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var habits []*domain.Habit
	for _, h := range r.store {
		if h.UserID == userID && h.DeletedAt == nil {
			clone := *h
			habits = append(habits, &clone)
		}
	}

	sort.Slice(habits, func(i, j int) bool {
		return habits[i].SortOrder < habits[j].SortOrder
	})

	return habits, nil
}

func (r *InMemoryHabitRepository) Update(ctx context.Context, habit *domain.Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.store[habit.ID]
	if !ok || existing.DeletedAt != nil {
		return domain.ErrHabitNotFound
	}
	if habit.Version != existing.Version {
		return domain.ErrHabitConflict
	}

	habit.Version++
	habit.UpdatedAt = time.Now().UTC()
	clone := *habit
	r.store[habit.ID] = &clone
	return nil
}

func (r *InMemoryHabitRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.store[id]
	if !ok || h.DeletedAt != nil {
		return domain.ErrHabitNotFound
	}

	now := time.Now().UTC()
	h.DeletedAt = &now
	h.UpdatedAt = now
	h.Version++
	return nil
}

func (r *InMemoryHabitRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var changes []*domain.Habit
	for _, h := range r.store {
		if h.UserID == userID && h.UpdatedAt.After(since) {
			clone := *h
			changes = append(changes, &clone)
		}
	}

	sort.Slice(changes, func(i, j int) bool {
		return changes[i].UpdatedAt.Before(changes[j].UpdatedAt)
	})

	return changes, nil
}

func (r *InMemoryHabitRepository) UpdateStreaks(ctx context.Context, id string, current, longest int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.store[id]
	if !ok || h.DeletedAt != nil {
		return domain.ErrHabitNotFound
	}
	h.CurrentStreak = current
	h.LongestStreak = longest
	h.UpdatedAt = time.Now().UTC()
	return nil
}

type InMemoryStatusRepository struct {
	log domain.StatusLog
	// owners maps habit id to user id, filled on first write.
	owners map[string]string

	mu sync.RWMutex
}

func NewInMemoryStatusRepository() *InMemoryStatusRepository {
	return &InMemoryStatusRepository{
		log:    domain.StatusLog{},
		owners: make(map[string]string),
	}
}

func (r *InMemoryStatusRepository) UpsertDay(ctx context.Context, userID, habitID, date string, d domain.DayStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.owners[habitID] = userID
	r.log.SetDay(habitID, date, d)
	return nil
}

func (r *InMemoryStatusRepository) GetDay(ctx context.Context, habitID, date string) (domain.DayStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.log.Day(habitID, date), nil
}

func (r *InMemoryStatusRepository) LoadByUserID(ctx context.Context, userID string) (domain.StatusLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := domain.StatusLog{}
	for habitID, days := range r.log {
		if r.owners[habitID] != userID {
			continue
		}
		for date, d := range days {
			out.SetDay(habitID, date, d)
		}
	}
	return out, nil
}

func (r *InMemoryStatusRepository) LoadMonth(ctx context.Context, userID, month string) (domain.StatusLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := domain.StatusLog{}
	for habitID, days := range r.log {
		if r.owners[habitID] != userID {
			continue
		}
		for date, d := range days {
			if domain.MonthOf(date) == month {
				out.SetDay(habitID, date, d)
			}
		}
	}
	return out, nil
}

type InMemoryOverrideRepository struct {
	store map[string]*domain.Override

	mu sync.RWMutex
}

func NewInMemoryOverrideRepository() *InMemoryOverrideRepository {
	return &InMemoryOverrideRepository{
		store: make(map[string]*domain.Override),
	}
}

func (r *InMemoryOverrideRepository) Upsert(ctx context.Context, o *domain.Override) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := domain.OverrideKey(o.HabitID, o.Date)
	if o.IsEmpty() {
		delete(r.store, key)
		return nil
	}
	clone := *o
	r.store[key] = &clone
	return nil
}

func (r *InMemoryOverrideRepository) GetByHabitAndDate(ctx context.Context, habitID, date string) (*domain.Override, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.store[domain.OverrideKey(habitID, date)]
	if !ok {
		return nil, domain.ErrOverrideNotFound
	}
	clone := *o
	return &clone, nil
}

func (r *InMemoryOverrideRepository) LoadByUserID(ctx context.Context, userID string) (map[string]*domain.Override, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*domain.Override)
	for key, o := range r.store {
		if o.UserID == userID {
			clone := *o
			out[key] = &clone
		}
	}
	return out, nil
}

func (r *InMemoryOverrideRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.Override, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var changes []*domain.Override
	for _, o := range r.store {
		if o.UserID == userID && o.UpdatedAt.After(since) {
			clone := *o
			changes = append(changes, &clone)
		}
	}
	return changes, nil
}

type InMemoryUserRepository struct {
	store map[string]*domain.User

	mu sync.RWMutex
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		store: make(map[string]*domain.User),
	}
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.store {
		if u.Email == user.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	clone := *user
	r.store[user.ID] = &clone
	return nil
}

func (r *InMemoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.store {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.store[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}
