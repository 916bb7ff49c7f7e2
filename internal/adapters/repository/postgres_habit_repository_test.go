package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritmohq/ritmo-engine/internal/core/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		dbUser = "ritmo_user"
	}
	dbPass := os.Getenv("DB_PASSWORD")
	if dbPass == "" {
		dbPass = "secret"
	}
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}
	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "ritmo_db"
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		dbUser, dbPass, dbHost, dbPort, dbName)

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		t.Skipf("Skipping integration tests: database connection failed: %v", err)
	}
	return db
}

func cleanup(t *testing.T, db *sqlx.DB) {
	_, err := db.Exec("TRUNCATE TABLE habit_overrides, habit_statuses, habits, users CASCADE")
	require.NoError(t, err, "Failed to clean up database")
}

func insertUserFixture(t *testing.T, db *sqlx.DB, userID, email string, now time.Time) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO users (id, email, display_name, password_hash, created_at, updated_at)
        VALUES ($1, $2, '', 'hash', $3, $4)`, userID, email, now, now)
	require.NoError(t, err, "Failed to create user fixture")
}

func habitFixture(t *testing.T, userID string, now time.Time) *domain.Habit {
	t.Helper()
	h, err := domain.NewHabit(userID, "2024-01-01", domain.HabitSchedule{
		Name:      "Integration Habit",
		Color:     "#FFFFFF",
		Icon:      "dumbbell",
		Times:     []domain.TimeOfDay{domain.Morning},
		Goal:      domain.Goal{Type: domain.GoalCheck},
		Frequency: domain.Frequency{Type: domain.FreqSpecificDays, Weekdays: []int{1, 3, 5}},
	})
	require.NoError(t, err)
	h.CreatedAt = now
	h.UpdatedAt = now
	return h
}

func TestPostgresHabitRepository_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cleanup(t, db)
	defer cleanup(t, db)

	repo := NewPostgresHabitRepository(db)
	ctx := context.Background()

	var now time.Time
	err := db.QueryRow("SELECT NOW()").Scan(&now)
	require.NoError(t, err)

	userID := "habit-test-user-1"
	insertUserFixture(t, db, userID, "habit-test@ritmo.app", now)

	newHabit := habitFixture(t, userID, now)
	habitID := newHabit.ID

	t.Run("Create Habit", func(t *testing.T) {
		err := repo.Create(ctx, newHabit)
		assert.NoError(t, err)
	})

	t.Run("Get By ID", func(t *testing.T) {
		fetched, err := repo.GetByID(ctx, habitID)
		assert.NoError(t, err)
		assert.NotNil(t, fetched)
		assert.Equal(t, newHabit.ID, fetched.ID)
		assert.Equal(t, 1, fetched.Version, "version must start at 1")
		assert.Nil(t, fetched.DeletedAt)
		require.Len(t, fetched.ScheduleHistory, 1)
		assert.Equal(t, "Integration Habit", fetched.ScheduleHistory[0].Name)
		assert.Equal(t, []int{1, 3, 5}, fetched.ScheduleHistory[0].Frequency.Weekdays)
	})

	t.Run("Update Habit (Schedule Edit)", func(t *testing.T) {
		oldUpdatedAt := newHabit.UpdatedAt

		edited := *newHabit.CurrentSchedule()
		edited.Name = "Edited Habit"
		require.NoError(t, newHabit.EditSchedule("2024-02-01", edited))

		time.Sleep(100 * time.Millisecond)

		err := repo.Update(ctx, newHabit)
		assert.NoError(t, err)

		updated, err := repo.GetByID(ctx, habitID)
		assert.NoError(t, err)

		require.Len(t, updated.ScheduleHistory, 2)
		assert.Equal(t, "Edited Habit", updated.ScheduleHistory[1].Name)
		require.NotNil(t, updated.ScheduleHistory[0].EndDate)
		assert.Equal(t, "2024-02-01", *updated.ScheduleHistory[0].EndDate)
		assert.True(t, updated.UpdatedAt.After(oldUpdatedAt))
		assert.Equal(t, 2, updated.Version)
	})

	t.Run("List By UserID", func(t *testing.T) {
		list, err := repo.ListByUserID(ctx, userID)
		assert.NoError(t, err)
		assert.Len(t, list, 1)
		assert.Equal(t, habitID, list[0].ID)
	})

	t.Run("Tombstone Persists", func(t *testing.T) {
		h, err := repo.GetByID(ctx, habitID)
		require.NoError(t, err)

		require.NoError(t, h.Tombstone("2024-06-01"))
		require.NoError(t, repo.Update(ctx, h))

		fetched, err := repo.GetByID(ctx, habitID)
		require.NoError(t, err)
		require.NotNil(t, fetched.DeletedOn)
		assert.Equal(t, "2024-06-01", *fetched.DeletedOn)
	})

	t.Run("UpdateStreaks", func(t *testing.T) {
		err := repo.UpdateStreaks(ctx, habitID, 4, 9)
		assert.NoError(t, err)

		fetched, err := repo.GetByID(ctx, habitID)
		require.NoError(t, err)
		assert.Equal(t, 4, fetched.CurrentStreak)
		assert.Equal(t, 9, fetched.LongestStreak)

		err = repo.UpdateStreaks(ctx, uuid.NewString(), 1, 1)
		assert.Equal(t, domain.ErrHabitNotFound, err)
	})

	t.Run("Delete Habit (Soft Delete Check)", func(t *testing.T) {
		err := repo.Delete(ctx, habitID)
		assert.NoError(t, err)

		_, err = repo.GetByID(ctx, habitID)
		assert.Equal(t, domain.ErrHabitNotFound, err)

		var count int
		err = db.QueryRow("SELECT count(*) FROM habits WHERE id=$1 AND deleted_at IS NOT NULL", habitID).Scan(&count)
		assert.NoError(t, err)
		assert.Equal(t, 1, count, "row must still exist physically")
	})

	t.Run("Update/Delete Non-Existent ID", func(t *testing.T) {
		ghost := habitFixture(t, userID, now)
		ghost.ID = uuid.NewString()

		err := repo.Update(ctx, ghost)
		assert.Equal(t, domain.ErrHabitNotFound, err)

		err = repo.Delete(ctx, ghost.ID)
		assert.Equal(t, domain.ErrHabitNotFound, err)
	})

	t.Run("Optimistic Locking: Prevent Overwrite", func(t *testing.T) {
		base := habitFixture(t, userID, now)
		require.NoError(t, repo.Create(ctx, base))

		deviceACopy, err := repo.GetByID(ctx, base.ID)
		require.NoError(t, err)

		deviceBCopy, err := repo.GetByID(ctx, base.ID)
		require.NoError(t, err)

		require.NoError(t, deviceBCopy.ChangePosition(7))
		require.NoError(t, repo.Update(ctx, deviceBCopy))

		require.NoError(t, deviceACopy.ChangePosition(2))
		err = repo.Update(ctx, deviceACopy)

		assert.Equal(t, domain.ErrHabitConflict, err)
	})

	t.Run("GetChanges (Delta Sync)", func(t *testing.T) {
		syncUser := "habit-sync-user"
		insertUserFixture(t, db, syncUser, "sync-habit@ritmo.app", now)

		h1 := habitFixture(t, syncUser, now)
		h2 := habitFixture(t, syncUser, now)

		require.NoError(t, repo.Create(ctx, h1))
		require.NoError(t, repo.Create(ctx, h2))

		time.Sleep(50 * time.Millisecond)

		var lastSync time.Time
		err := db.QueryRow("SELECT NOW()").Scan(&lastSync)
		require.NoError(t, err)

		time.Sleep(50 * time.Millisecond)

		require.NoError(t, h1.ChangePosition(3))
		require.NoError(t, repo.Update(ctx, h1))
		require.NoError(t, repo.Delete(ctx, h2.ID))

		changes, err := repo.GetChanges(ctx, syncUser, lastSync)
		assert.NoError(t, err)
		assert.Len(t, changes, 2)
	})
}
