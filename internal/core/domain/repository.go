package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrHabitNotFound = errors.New("habit not found")
	ErrHabitConflict = errors.New("habit version conflict")
	ErrUnauthorized  = errors.New("unauthorized access")
)

type HabitRepository interface {
	// Create persists a new habit with its opening schedule record.
	Create(ctx context.Context, habit *Habit) error

	// GetByID retrieves a habit by its unique identifier.
	GetByID(ctx context.Context, id string) (*Habit, error)

	// ListByUserID retrieves all habits of one user, sorted for display.
	ListByUserID(ctx context.Context, userID string) ([]*Habit, error)

	// Update modifies the state of an existing habit. Implementations
	// must enforce optimistic locking on Version.
	Update(ctx context.Context, habit *Habit) error

	// Delete removes a habit row (soft delete at the storage level; the
	// date-scoped tombstone lives on the habit itself).
	Delete(ctx context.Context, id string) error

	// GetChanges returns only the deltas occurring after a specific
	// instant, for offline-first synchronization.
	GetChanges(ctx context.Context, userID string, since time.Time) ([]*Habit, error)

	// UpdateStreaks persists worker-computed streak counters.
	UpdateStreaks(ctx context.Context, id string, current, longest int) error
}
