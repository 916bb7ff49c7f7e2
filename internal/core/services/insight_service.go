package services

import (
	"context"
	"sync"
	"time"

	"github.com/ritmohq/ritmo-engine/internal/core/domain"
	"github.com/ritmohq/ritmo-engine/internal/core/engine"
)

// userEngine pairs one user's engine with the lock serializing access
// to it. The engine's memo tables are plain maps, so every query must
// hold the lock for its full duration, not just the registry lookup.
type userEngine struct {
	mu  sync.Mutex
	eng *engine.Engine
}

// InsightService owns one analytics engine per user, built lazily from
// the repositories. Mutating services must call InvalidateUser after
// every write; the next query rebuilds the snapshot from storage.
type InsightService struct {
	habitRepo    domain.HabitRepository
	statusRepo   domain.StatusRepository
	overrideRepo domain.OverrideRepository

	mu      sync.Mutex
	engines map[string]*userEngine
}

func NewInsightService(habitRepo domain.HabitRepository, statusRepo domain.StatusRepository, overrideRepo domain.OverrideRepository) *InsightService {
	return &InsightService{
		habitRepo:    habitRepo,
		statusRepo:   statusRepo,
		overrideRepo: overrideRepo,
		engines:      make(map[string]*userEngine),
	}
}

// InvalidateUser drops the user's engine. Cheap to call; the snapshot
// is rebuilt on the next query. Queries already holding the old engine
// finish against the snapshot they started with.
func (s *InsightService) InvalidateUser(userID string) {
	s.mu.Lock()
	delete(s.engines, userID)
	s.mu.Unlock()
}

func (s *InsightService) entryFor(userID string) *userEngine {
	s.mu.Lock()
	defer s.mu.Unlock()

	ue, ok := s.engines[userID]
	if !ok {
		ue = &userEngine{}
		s.engines[userID] = ue
	}
	return ue
}

// withEngine runs fn with exclusive access to the user's engine,
// building it from the repositories on first use. Concurrent queries
// for the same user serialize here; the build happens once under the
// entry lock so parallel first requests do not race it.
func (s *InsightService) withEngine(ctx context.Context, userID string, fn func(e *engine.Engine) error) error {
	ue := s.entryFor(userID)
	ue.mu.Lock()
	defer ue.mu.Unlock()

	if ue.eng == nil {
		habits, err := s.habitRepo.ListByUserID(ctx, userID)
		if err != nil {
			return err
		}
		statuses, err := s.statusRepo.LoadByUserID(ctx, userID)
		if err != nil {
			return err
		}
		overrides, err := s.overrideRepo.LoadByUserID(ctx, userID)
		if err != nil {
			return err
		}

		ue.eng = engine.New(&engine.Dataset{
			Habits:    habits,
			Statuses:  statuses,
			Overrides: overrides,
		})
	}

	return fn(ue.eng)
}

func (s *InsightService) Summary(ctx context.Context, userID, date string) (engine.DaySummary, error) {
	var out engine.DaySummary
	err := s.withEngine(ctx, userID, func(e *engine.Engine) error {
		out = e.Summary(date)
		return nil
	})
	return out, err
}

// WeeklySummary returns the seven day summaries ending at endDate.
func (s *InsightService) WeeklySummary(ctx context.Context, userID, endDate string) ([]engine.DaySummary, error) {
	end, err := time.Parse(domain.DateLayout, endDate)
	if err != nil {
		return nil, domain.ErrInvalidDate
	}

	out := make([]engine.DaySummary, 0, 7)
	err = s.withEngine(ctx, userID, func(e *engine.Engine) error {
		for d := end.AddDate(0, 0, -6); !d.After(end); d = d.AddDate(0, 0, 1) {
			out = append(out, e.Summary(d.Format(domain.DateLayout)))
		}
		return nil
	})
	return out, err
}

func (s *InsightService) Streak(ctx context.Context, userID, habitID, date string) (int, error) {
	var out int
	err := s.withEngine(ctx, userID, func(e *engine.Engine) error {
		h := e.Habit(habitID)
		if h == nil {
			return domain.ErrHabitNotFound
		}
		out = e.Streak(h, date)
		return nil
	})
	return out, err
}

func (s *InsightService) SmartGoal(ctx context.Context, userID, habitID, date string, t domain.TimeOfDay) (int, error) {
	var out int
	err := s.withEngine(ctx, userID, func(e *engine.Engine) error {
		h := e.Habit(habitID)
		if h == nil {
			return domain.ErrHabitNotFound
		}
		out = e.SmartGoal(h, date, t)
		return nil
	})
	return out, err
}

func (s *InsightService) ActiveHabits(ctx context.Context, userID, date string) ([]engine.HabitDay, error) {
	var out []engine.HabitDay
	err := s.withEngine(ctx, userID, func(e *engine.Engine) error {
		out = e.ActiveHabits(date)
		return nil
	})
	return out, err
}

func (s *InsightService) Display(ctx context.Context, userID string, ref engine.DisplayRef, date string, t domain.TimeOfDay) (engine.DisplayInfo, error) {
	var out engine.DisplayInfo
	err := s.withEngine(ctx, userID, func(e *engine.Engine) error {
		info, ok := e.Display(ref, date, t)
		if !ok {
			return domain.ErrHabitNotFound
		}
		out = info
		return nil
	})
	return out, err
}
