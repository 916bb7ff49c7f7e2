package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ritmohq/ritmo-engine/internal/core/domain"
)

// PostgresStatusRepository persists the status log with one row per
// (habit, date) pair, value stored as the packed integer. The packed
// form never leaves this file except through the shard codec.
type PostgresStatusRepository struct {
	db *sqlx.DB
}

func NewPostgresStatusRepository(db *sqlx.DB) *PostgresStatusRepository {
	return &PostgresStatusRepository{db: db}
}

func (r *PostgresStatusRepository) UpsertDay(ctx context.Context, userID, habitID, date string, d domain.DayStatus) error {
	if d.IsZero() {
		query := `DELETE FROM habit_statuses WHERE habit_id = $1 AND date = $2`
		_, err := r.db.ExecContext(ctx, query, habitID, date)
		if err != nil {
			return fmt.Errorf("status delete failed: %w", err)
		}
		return nil
	}

	query := `
		INSERT INTO habit_statuses (habit_id, user_id, date, packed, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (habit_id, date)
		DO UPDATE SET packed = EXCLUDED.packed, updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query, habitID, userID, date, int(domain.PackDay(d)))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return domain.ErrHabitNotFound
		}
		return fmt.Errorf("status upsert failed: %w", err)
	}
	return nil
}

func (r *PostgresStatusRepository) GetDay(ctx context.Context, habitID, date string) (domain.DayStatus, error) {
	var packed int
	query := `SELECT packed FROM habit_statuses WHERE habit_id = $1 AND date = $2`

	err := r.db.GetContext(ctx, &packed, query, habitID, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DayStatus{}, nil
		}
		return domain.DayStatus{}, err
	}
	return domain.UnpackDay(uint8(packed)), nil
}

type statusRow struct {
	HabitID string `db:"habit_id"`
	Date    string `db:"date"`
	Packed  int    `db:"packed"`
}

func (r *PostgresStatusRepository) load(ctx context.Context, query string, args ...interface{}) (domain.StatusLog, error) {
	rows := []statusRow{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	log := domain.StatusLog{}
	for _, row := range rows {
		log.SetDay(row.HabitID, row.Date, domain.UnpackDay(uint8(row.Packed)))
	}
	return log, nil
}

func (r *PostgresStatusRepository) LoadByUserID(ctx context.Context, userID string) (domain.StatusLog, error) {
	query := `SELECT habit_id, date, packed FROM habit_statuses WHERE user_id = $1`
	return r.load(ctx, query, userID)
}

func (r *PostgresStatusRepository) LoadMonth(ctx context.Context, userID, month string) (domain.StatusLog, error) {
	query := `
		SELECT habit_id, date, packed FROM habit_statuses
		WHERE user_id = $1 AND date >= $2 AND date < $3
		ORDER BY habit_id, date`

	from := month + "-01"
	to := nextMonth(month)
	return r.load(ctx, query, userID, from, to)
}

// nextMonth returns the first day of the month after a YYYY-MM value.
func nextMonth(month string) string {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return month + "-99" // never matches, query returns nothing
	}
	return t.AddDate(0, 1, 0).Format(domain.DateLayout)
}

// PostgresOverrideRepository stores day-scoped override records, slot
// goals and daily schedule as JSONB.
type PostgresOverrideRepository struct {
	db *sqlx.DB
}

func NewPostgresOverrideRepository(db *sqlx.DB) *PostgresOverrideRepository {
	return &PostgresOverrideRepository{db: db}
}

type overrideRow struct {
	ID         string     `db:"id"`
	HabitID    string     `db:"habit_id"`
	UserID     string     `db:"user_id"`
	Date       string     `db:"date"`
	Note       string     `db:"note"`
	SlotGoals  []byte     `db:"slot_goals"`
	DailyTimes []byte     `db:"daily_times"`
	Version    int        `db:"version"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
	DeletedAt  *time.Time `db:"deleted_at"`
}

func (row overrideRow) toDomain() (*domain.Override, error) {
	o := &domain.Override{
		ID:        row.ID,
		HabitID:   row.HabitID,
		UserID:    row.UserID,
		Date:      row.Date,
		Note:      row.Note,
		Version:   row.Version,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		DeletedAt: row.DeletedAt,
	}
	if len(row.SlotGoals) > 0 {
		if err := json.Unmarshal(row.SlotGoals, &o.SlotGoals); err != nil {
			return nil, fmt.Errorf("failed to unmarshal slot goals: %w", err)
		}
	}
	if len(row.DailyTimes) > 0 {
		if err := json.Unmarshal(row.DailyTimes, &o.DailyTimes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal daily times: %w", err)
		}
	}
	return o, nil
}

func (r *PostgresOverrideRepository) Upsert(ctx context.Context, o *domain.Override) error {
	if o.IsEmpty() {
		query := `DELETE FROM habit_overrides WHERE habit_id = $1 AND date = $2`
		_, err := r.db.ExecContext(ctx, query, o.HabitID, o.Date)
		if err != nil {
			return fmt.Errorf("override delete failed: %w", err)
		}
		return nil
	}

	slotGoalsJSON, err := json.Marshal(o.SlotGoals)
	if err != nil {
		return fmt.Errorf("failed to marshal slot goals: %w", err)
	}
	var dailyTimesJSON []byte
	if o.DailyTimes != nil {
		dailyTimesJSON, err = json.Marshal(o.DailyTimes)
		if err != nil {
			return fmt.Errorf("failed to marshal daily times: %w", err)
		}
	}

	query := `
		INSERT INTO habit_overrides (
			id, habit_id, user_id, date, note,
			slot_goals, daily_times, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (habit_id, date)
		DO UPDATE SET
			note = EXCLUDED.note,
			slot_goals = EXCLUDED.slot_goals,
			daily_times = EXCLUDED.daily_times,
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at`

	_, err = r.db.ExecContext(ctx, query,
		o.ID, o.HabitID, o.UserID, o.Date, o.Note,
		slotGoalsJSON, dailyTimesJSON, o.Version, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return domain.ErrHabitNotFound
		}
		return fmt.Errorf("override upsert failed: %w", err)
	}
	return nil
}

func (r *PostgresOverrideRepository) GetByHabitAndDate(ctx context.Context, habitID, date string) (*domain.Override, error) {
	var row overrideRow
	query := `
		SELECT id, habit_id, user_id, date, note, slot_goals, daily_times,
		       version, created_at, updated_at, deleted_at
		FROM habit_overrides
		WHERE habit_id = $1 AND date = $2 AND deleted_at IS NULL`

	err := r.db.GetContext(ctx, &row, query, habitID, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOverrideNotFound
		}
		return nil, err
	}
	return row.toDomain()
}

func (r *PostgresOverrideRepository) LoadByUserID(ctx context.Context, userID string) (map[string]*domain.Override, error) {
	rows := []overrideRow{}
	query := `
		SELECT id, habit_id, user_id, date, note, slot_goals, daily_times,
		       version, created_at, updated_at, deleted_at
		FROM habit_overrides
		WHERE user_id = $1 AND deleted_at IS NULL`

	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}

	out := make(map[string]*domain.Override, len(rows))
	for _, row := range rows {
		o, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out[domain.OverrideKey(o.HabitID, o.Date)] = o
	}
	return out, nil
}

func (r *PostgresOverrideRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.Override, error) {
	rows := []overrideRow{}
	query := `
		SELECT id, habit_id, user_id, date, note, slot_goals, daily_times,
		       version, created_at, updated_at, deleted_at
		FROM habit_overrides
		WHERE user_id = $1 AND updated_at > $2
		ORDER BY updated_at ASC`

	if err := r.db.SelectContext(ctx, &rows, query, userID, since); err != nil {
		return nil, err
	}

	out := make([]*domain.Override, 0, len(rows))
	for _, row := range rows {
		o, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}
