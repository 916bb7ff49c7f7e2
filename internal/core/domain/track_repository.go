package domain

import (
	"context"
	"time"
)

type StatusRepository interface {
	// UpsertDay writes the full day record for a (habit, date) pair.
	// A zero DayStatus removes the row; absence means all pending.
	UpsertDay(ctx context.Context, userID, habitID, date string, d DayStatus) error

	// GetDay retrieves one day record. Missing rows come back as the
	// zero DayStatus, not as an error.
	GetDay(ctx context.Context, habitID, date string) (DayStatus, error)

	// LoadByUserID loads the user's entire status log for the engine's
	// boot snapshot.
	LoadByUserID(ctx context.Context, userID string) (StatusLog, error)

	// LoadMonth loads only the rows of one YYYY-MM month, for shard
	// export.
	LoadMonth(ctx context.Context, userID, month string) (StatusLog, error)
}

type OverrideRepository interface {
	// Upsert writes a day-scoped override; an override that became
	// empty is removed instead.
	Upsert(ctx context.Context, o *Override) error

	// GetByHabitAndDate retrieves the single override of a (habit,
	// date) pair, or ErrOverrideNotFound.
	GetByHabitAndDate(ctx context.Context, habitID, date string) (*Override, error)

	// LoadByUserID loads all of a user's overrides keyed by
	// OverrideKey, for the engine's boot snapshot.
	LoadByUserID(ctx context.Context, userID string) (map[string]*Override, error)

	// GetChanges returns override deltas after a specific instant.
	GetChanges(ctx context.Context, userID string, since time.Time) ([]*Override, error)
}
