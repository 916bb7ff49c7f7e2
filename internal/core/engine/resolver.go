package engine

import (
	"github.com/ritmohq/ritmo-engine/internal/core/domain"
)

// Resolve returns the schedule record effective for the habit on date,
// or nil when no window contains it (or the habit has no history).
func (e *Engine) Resolve(h *domain.Habit, date string) *domain.HabitSchedule {
	if h == nil || !domain.IsValidDate(date) {
		return nil
	}

	table, ok := e.resolves[h.ID]
	if !ok {
		table = newMemoTable[string, *domain.HabitSchedule](resolveCacheCap)
		e.resolves[h.ID] = table
	}
	if sched, ok := table.get(date); ok {
		return sched
	}

	sched := resolveSchedule(h, date)
	table.put(date, sched)
	return sched
}

// resolveSchedule scans the history from the most recent record
// backward and returns the first whose window contains date.
func resolveSchedule(h *domain.Habit, date string) *domain.HabitSchedule {
	for i := len(h.ScheduleHistory) - 1; i >= 0; i-- {
		if h.ScheduleHistory[i].Contains(date) {
			return &h.ScheduleHistory[i]
		}
	}
	return nil
}

// PropertiesOrLatest resolves like Resolve but falls back to the last
// history record when no window matches. Display of ended or graduated
// habits reads through this.
func (e *Engine) PropertiesOrLatest(h *domain.Habit, date string) *domain.HabitSchedule {
	if h == nil {
		return nil
	}
	if sched := e.Resolve(h, date); sched != nil {
		return sched
	}
	return h.CurrentSchedule()
}
