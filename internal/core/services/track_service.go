package services

import (
	"context"
	"errors"
	"time"

	"github.com/ritmohq/ritmo-engine/internal/core/domain"
	"github.com/ritmohq/ritmo-engine/internal/core/workers"
)

// TrackService is the mutation surface for the status log and the
// day-scoped overrides, plus the monthly shard export/import used by
// backup and device sync.
type TrackService struct {
	statusRepo   domain.StatusRepository
	overrideRepo domain.OverrideRepository
	habitRepo    domain.HabitRepository
	worker       *workers.StreakWorker
	invalidator  EngineInvalidator
}

func NewTrackService(
	statusRepo domain.StatusRepository,
	overrideRepo domain.OverrideRepository,
	habitRepo domain.HabitRepository,
	worker *workers.StreakWorker,
	invalidator EngineInvalidator,
) *TrackService {
	return &TrackService{
		statusRepo:   statusRepo,
		overrideRepo: overrideRepo,
		habitRepo:    habitRepo,
		worker:       worker,
		invalidator:  invalidator,
	}
}

type SetStatusInput struct {
	HabitID string
	UserID  string
	Date    string
	Time    string
	Status  string
}

type OverrideInput struct {
	HabitID string
	UserID  string
	Date    string

	Note       *string
	SlotGoals  map[string]int
	DailyTimes []string
	Version    int
}

func (s *TrackService) ownedHabit(ctx context.Context, habitID, userID string) (*domain.Habit, error) {
	habit, err := s.habitRepo.GetByID(ctx, habitID)
	if err != nil {
		return nil, err
	}
	if habit.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return habit, nil
}

// SetStatus records one slot's completion state and kicks the streak
// worker for the habit.
func (s *TrackService) SetStatus(ctx context.Context, input SetStatusInput) (domain.DayStatus, error) {
	if !domain.IsValidDate(input.Date) {
		return domain.DayStatus{}, domain.ErrInvalidDate
	}
	t, err := domain.ParseTimeOfDay(input.Time)
	if err != nil {
		return domain.DayStatus{}, err
	}
	status, err := domain.ParseStatus(input.Status)
	if err != nil {
		return domain.DayStatus{}, err
	}

	if _, err := s.ownedHabit(ctx, input.HabitID, input.UserID); err != nil {
		return domain.DayStatus{}, err
	}

	day, err := s.statusRepo.GetDay(ctx, input.HabitID, input.Date)
	if err != nil {
		return domain.DayStatus{}, err
	}
	day.Set(t, status)

	if err := s.statusRepo.UpsertDay(ctx, input.UserID, input.HabitID, input.Date, day); err != nil {
		return domain.DayStatus{}, err
	}

	s.worker.Enqueue(input.HabitID)
	s.invalidator.InvalidateUser(input.UserID)
	return day, nil
}

func (s *TrackService) GetDay(ctx context.Context, habitID, userID, date string) (domain.DayStatus, error) {
	if _, err := s.ownedHabit(ctx, habitID, userID); err != nil {
		return domain.DayStatus{}, err
	}
	return s.statusRepo.GetDay(ctx, habitID, date)
}

// SetOverride creates or amends the day override for a (habit, date)
// pair. An override that ends up empty is removed.
func (s *TrackService) SetOverride(ctx context.Context, input OverrideInput) (*domain.Override, error) {
	if _, err := s.ownedHabit(ctx, input.HabitID, input.UserID); err != nil {
		return nil, err
	}

	ov, err := s.overrideRepo.GetByHabitAndDate(ctx, input.HabitID, input.Date)
	if errors.Is(err, domain.ErrOverrideNotFound) {
		ov, err = domain.NewOverride(input.HabitID, input.UserID, input.Date)
	}
	if err != nil {
		return nil, err
	}

	if input.Version > 0 && ov.Version != input.Version {
		return nil, domain.ErrHabitConflict
	}

	if input.Note != nil {
		ov.Note = *input.Note
	}
	for slot, goal := range input.SlotGoals {
		t, err := domain.ParseTimeOfDay(slot)
		if err != nil {
			return nil, err
		}
		ov.SetSlotGoal(t, goal)
	}
	if input.DailyTimes != nil {
		times, err := parseTimes(input.DailyTimes)
		if err != nil {
			return nil, err
		}
		ov.DailyTimes = times
	}

	if err := ov.Validate(); err != nil {
		return nil, err
	}
	ov.Version++
	ov.UpdatedAt = time.Now().UTC()

	if err := s.overrideRepo.Upsert(ctx, ov); err != nil {
		return nil, err
	}

	s.invalidator.InvalidateUser(input.UserID)
	return ov, nil
}

func (s *TrackService) GetOverride(ctx context.Context, habitID, userID, date string) (*domain.Override, error) {
	if _, err := s.ownedHabit(ctx, habitID, userID); err != nil {
		return nil, err
	}
	return s.overrideRepo.GetByHabitAndDate(ctx, habitID, date)
}

func (s *TrackService) GetOverrideDelta(ctx context.Context, userID string, since time.Time) ([]*domain.Override, error) {
	return s.overrideRepo.GetChanges(ctx, userID, since)
}

// ExportMonth packs one month of the user's status log into its shard
// transport form.
func (s *TrackService) ExportMonth(ctx context.Context, userID, month string) (domain.Shard, error) {
	if !domain.IsValidDate(month + "-01") {
		return domain.Shard{}, domain.ErrInvalidShardKey
	}

	log, err := s.statusRepo.LoadMonth(ctx, userID, month)
	if err != nil {
		return domain.Shard{}, err
	}
	return domain.BuildShard(month, log), nil
}

// ImportShard unpacks a shard and persists every day it names,
// overwriting local rows. Entries for habits the user does not own are
// rejected before anything is written.
func (s *TrackService) ImportShard(ctx context.Context, userID string, shard domain.Shard) error {
	log := domain.StatusLog{}
	if err := domain.ApplyShard(shard, log); err != nil {
		return err
	}

	for habitID := range log {
		if _, err := s.ownedHabit(ctx, habitID, userID); err != nil {
			return err
		}
	}

	for habitID, days := range log {
		for date, day := range days {
			if err := s.statusRepo.UpsertDay(ctx, userID, habitID, date, day); err != nil {
				return err
			}
		}
		s.worker.Enqueue(habitID)
	}

	s.invalidator.InvalidateUser(userID)
	return nil
}
