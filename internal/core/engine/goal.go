package engine

import (
	"strconv"

	"github.com/ritmohq/ritmo-engine/internal/core/domain"
)

// SmartGoal computes the numeric target for a measurable habit on a
// date and slot. Binary habits always answer 1. A day override wins
// outright; otherwise the two most recent completed-with-override days
// set the target when they agree, and a streak-scaled formula covers
// everything else.
func (e *Engine) SmartGoal(h *domain.Habit, date string, t domain.TimeOfDay) int {
	if h == nil {
		return 0
	}
	sched := e.PropertiesOrLatest(h, date)
	if sched == nil || !sched.Goal.IsMeasurable() {
		return 1
	}

	key := h.ID + "|" + date + "|" + strconv.Itoa(int(t))
	if g, ok := e.goals.get(key); ok {
		return g
	}

	g := e.computeGoal(h, sched, date, t)
	e.goals.put(key, g)
	return g
}

func (e *Engine) computeGoal(h *domain.Habit, sched *domain.HabitSchedule, date string, t domain.TimeOfDay) int {
	if ov := e.override(h.ID, date); ov != nil {
		if g, ok := ov.SlotGoal(t); ok {
			return g
		}
	}

	if g, ok := e.adoptedGoal(h, date, t); ok {
		return g
	}

	day, ok := parseDate(date)
	if !ok {
		return sched.Goal.Total
	}
	prev := day.AddDate(0, 0, -1).Format(domain.DateLayout)
	g := sched.Goal.Total + (e.Streak(h, prev)/7)*goalStepPerWeek
	if g < minMeasurableGoal {
		g = minMeasurableGoal
	}
	return g
}

// adoptedGoal scans backward for the two most recent days where the
// habit was due, the slot was done and an override value was recorded.
// Two identical values in a row become the new target; a differing
// second value ends the search empty.
func (e *Engine) adoptedGoal(h *domain.Habit, date string, t domain.TimeOfDay) (int, bool) {
	day, ok := parseDate(date)
	if !ok {
		return 0, false
	}
	if today := e.today(); date > today {
		// Future targets scan from today inclusive.
		if td, ok := parseDate(today); ok {
			day = td.AddDate(0, 0, 1)
		}
	}

	first := 0
	found := false
	for i := 0; i < goalLookbackDays; i++ {
		day = day.AddDate(0, 0, -1)
		iso := day.Format(domain.DateLayout)
		if iso < h.CreatedOn {
			break
		}
		if !e.ShouldAppear(h, iso) {
			continue
		}
		if !e.Status(h.ID, iso, t).IsDone() {
			continue
		}
		ov := e.override(h.ID, iso)
		if ov == nil {
			continue
		}
		g, ok := ov.SlotGoal(t)
		if !ok {
			continue
		}
		if !found {
			first = g
			found = true
			continue
		}
		if g == first {
			return g, true
		}
		return 0, false
	}
	return 0, false
}
