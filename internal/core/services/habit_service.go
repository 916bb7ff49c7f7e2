package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ritmohq/ritmo-engine/internal/core/domain"
)

// EngineInvalidator is the hook mutating services use to drop a user's
// cached analytics after a write.
type EngineInvalidator interface {
	InvalidateUser(userID string)
}

type HabitService struct {
	repo        domain.HabitRepository
	invalidator EngineInvalidator
}

func NewHabitService(repo domain.HabitRepository, invalidator EngineInvalidator) *HabitService {
	return &HabitService{
		repo:        repo,
		invalidator: invalidator,
	}
}

// ScheduleInput carries schedule fields as they arrive from the
// transport layer, before domain validation.
type ScheduleInput struct {
	Name  string
	Icon  string
	Color string
	Times []string

	GoalType  string
	GoalTotal int
	GoalUnit  string

	FrequencyType  string
	Weekdays       []int
	IntervalUnit   string
	IntervalAmount int

	Anchor string
}

type CreateHabitInput struct {
	UserID    string
	StartDate string

	// TemplateSlug creates the habit from a predefined catalog entry;
	// explicit schedule fields override the template's.
	TemplateSlug string

	Schedule ScheduleInput
}

type EditScheduleInput struct {
	ID            string
	UserID        string
	EffectiveDate string
	Schedule      ScheduleInput
	Version       int
}

func mergeString(newVal, oldVal string) string {
	if newVal == "" {
		return oldVal
	}
	return newVal
}

func parseTimes(in []string) ([]domain.TimeOfDay, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]domain.TimeOfDay, 0, len(in))
	for _, s := range in {
		t, err := domain.ParseTimeOfDay(s)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// toSchedule merges the input over a base schedule. Zero-valued fields
// keep the base's value, so edits only need to carry what changed.
func (in ScheduleInput) toSchedule(base domain.HabitSchedule) (domain.HabitSchedule, error) {
	s := base

	s.Name = mergeString(in.Name, base.Name)
	s.Icon = mergeString(in.Icon, base.Icon)
	s.Color = mergeString(in.Color, base.Color)

	times, err := parseTimes(in.Times)
	if err != nil {
		return domain.HabitSchedule{}, err
	}
	if times != nil {
		s.Times = times
	}

	if in.GoalType != "" {
		s.Goal = domain.Goal{Type: in.GoalType, Total: in.GoalTotal, Unit: in.GoalUnit}
	} else if in.GoalTotal > 0 {
		s.Goal.Total = in.GoalTotal
		s.Goal.Unit = mergeString(in.GoalUnit, s.Goal.Unit)
	}

	if in.FrequencyType != "" {
		s.Frequency = domain.Frequency{
			Type:     in.FrequencyType,
			Weekdays: in.Weekdays,
			Unit:     in.IntervalUnit,
			Amount:   in.IntervalAmount,
		}
	}

	if in.Anchor != "" {
		anchor := in.Anchor
		s.Anchor = &anchor
	}

	return s, nil
}

func (s *HabitService) Create(ctx context.Context, input CreateHabitInput) (*domain.Habit, error) {
	var base domain.HabitSchedule
	if input.TemplateSlug != "" {
		tpl := domain.FindPredefined(input.TemplateSlug)
		if tpl == nil {
			return nil, domain.ErrHabitNotFound
		}
		base = tpl.Schedule()
	} else {
		// Fresh habits default to a daily check-off.
		base = domain.HabitSchedule{
			Goal:      domain.Goal{Type: domain.GoalCheck},
			Frequency: domain.Frequency{Type: domain.FreqDaily},
		}
	}

	sched, err := input.Schedule.toSchedule(base)
	if err != nil {
		return nil, err
	}

	habit, err := domain.NewHabit(input.UserID, input.StartDate, sched)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, habit); err != nil {
		return nil, err
	}

	s.invalidator.InvalidateUser(input.UserID)
	return habit, nil
}

func (s *HabitService) Get(ctx context.Context, id, userID string) (*domain.Habit, error) {
	habit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if habit.UserID != userID {
		return nil, domain.ErrHabitNotFound
	}
	return habit, nil
}

func (s *HabitService) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	return s.repo.ListByUserID(ctx, userID)
}

func (s *HabitService) GetDelta(ctx context.Context, userID string, lastSync time.Time) ([]*domain.Habit, error) {
	return s.repo.GetChanges(ctx, userID, lastSync)
}

// EditSchedule closes the habit's current schedule record at the
// effective date and opens a new one built from the input.
func (s *HabitService) EditSchedule(ctx context.Context, input EditScheduleInput) (*domain.Habit, error) {
	habit, err := s.Get(ctx, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}

	if input.Version > 0 && habit.Version != input.Version {
		return nil, fmt.Errorf("%w: client v%d vs server v%d", domain.ErrHabitConflict, input.Version, habit.Version)
	}

	current := habit.CurrentSchedule()
	if current == nil {
		return nil, domain.ErrHabitNoHistory
	}

	sched, err := input.Schedule.toSchedule(*current)
	if err != nil {
		return nil, err
	}
	if err := habit.EditSchedule(input.EffectiveDate, sched); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, habit); err != nil {
		return nil, err
	}

	s.invalidator.InvalidateUser(input.UserID)
	return habit, nil
}

// Tombstone hides the habit from date forward; history and logged
// statuses stay queryable for past dates.
func (s *HabitService) Tombstone(ctx context.Context, id, userID, date string) error {
	habit, err := s.Get(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := habit.Tombstone(date); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, habit); err != nil {
		return err
	}
	s.invalidator.InvalidateUser(userID)
	return nil
}

func (s *HabitService) Graduate(ctx context.Context, id, userID, date string) error {
	habit, err := s.Get(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := habit.Graduate(date); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, habit); err != nil {
		return err
	}
	s.invalidator.InvalidateUser(userID)
	return nil
}

func (s *HabitService) Reorder(ctx context.Context, id, userID string, position int) error {
	habit, err := s.Get(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := habit.ChangePosition(position); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, habit); err != nil {
		return err
	}
	s.invalidator.InvalidateUser(userID)
	return nil
}

// Delete removes the habit row entirely. Prefer Tombstone; this exists
// for account cleanup and undo of a just-created habit.
func (s *HabitService) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidator.InvalidateUser(userID)
	return nil
}
