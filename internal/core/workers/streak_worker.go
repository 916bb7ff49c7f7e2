package workers

import (
	"context"
	"log"
	"time"

	"github.com/ritmohq/ritmo-engine/internal/core/domain"
	"github.com/ritmohq/ritmo-engine/internal/core/engine"
)

type HabitRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Habit, error)
	UpdateStreaks(ctx context.Context, id string, current, longest int) error
}

type StatusRepository interface {
	LoadByUserID(ctx context.Context, userID string) (domain.StatusLog, error)
}

type OverrideRepository interface {
	LoadByUserID(ctx context.Context, userID string) (map[string]*domain.Override, error)
}

type StreakJob struct {
	HabitID string
}

// StreakWorker recomputes persisted streak counters in the background
// after status writes, so list endpoints can serve them without
// touching the analytics engine.
type StreakWorker struct {
	habitRepo    HabitRepository
	statusRepo   StatusRepository
	overrideRepo OverrideRepository
	jobs         chan StreakJob

	// now is the worker's clock; tests pin it.
	now func() time.Time
}

func NewStreakWorker(habitRepo HabitRepository, statusRepo StatusRepository, overrideRepo OverrideRepository) *StreakWorker {
	return &StreakWorker{
		habitRepo:    habitRepo,
		statusRepo:   statusRepo,
		overrideRepo: overrideRepo,
		jobs:         make(chan StreakJob, 100),
		now:          time.Now,
	}
}

func (w *StreakWorker) Start(ctx context.Context) {
	go func() {
		log.Println("Streak Worker started in background...")
		for {
			select {
			case job := <-w.jobs:
				w.processJob(ctx, job)
			case <-ctx.Done():
				log.Println("Streak Worker shutting down...")
				return
			}
		}
	}()
}

func (w *StreakWorker) Enqueue(habitID string) {
	select {
	case w.jobs <- StreakJob{HabitID: habitID}:
	default:
		log.Printf("Streak Worker queue full! Dropping job for habit %s", habitID)
	}
}

func (w *StreakWorker) processJob(ctx context.Context, job StreakJob) {
	habit, err := w.habitRepo.GetByID(ctx, job.HabitID)
	if err != nil {
		log.Printf("Worker Error fetching habit %s: %v", job.HabitID, err)
		return
	}

	statuses, err := w.statusRepo.LoadByUserID(ctx, habit.UserID)
	if err != nil {
		log.Printf("Worker Error loading statuses for %s: %v", job.HabitID, err)
		return
	}
	overrides, err := w.overrideRepo.LoadByUserID(ctx, habit.UserID)
	if err != nil {
		log.Printf("Worker Error loading overrides for %s: %v", job.HabitID, err)
		return
	}

	e := engine.New(&engine.Dataset{
		Habits:    []*domain.Habit{habit},
		Statuses:  statuses,
		Overrides: overrides,
	})
	e.Now = w.now

	// A run is still alive when today is merely unfinished, so fall
	// back to the streak ending yesterday.
	now := w.now().UTC()
	current := e.Streak(habit, now.Format(domain.DateLayout))
	if current == 0 {
		current = e.Streak(habit, now.AddDate(0, 0, -1).Format(domain.DateLayout))
	}
	longest := habit.LongestStreak
	if current > longest {
		longest = current
	}

	if habit.CurrentStreak != current || habit.LongestStreak != longest {
		if err := w.habitRepo.UpdateStreaks(ctx, habit.ID, current, longest); err != nil {
			log.Printf("Worker Failed to update streak for %s: %v", job.HabitID, err)
		} else {
			log.Printf("Streak updated for %s: Current=%d, Longest=%d", habit.ID, current, longest)
		}
	}
}
