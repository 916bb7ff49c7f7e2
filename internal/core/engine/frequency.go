package engine

import (
	"time"

	"github.com/ritmohq/ritmo-engine/internal/core/domain"
)

// ShouldAppear decides whether the habit is due on date: tombstone and
// graduation first, then schedule resolution, then the frequency rule
// of the effective record.
func (e *Engine) ShouldAppear(h *domain.Habit, date string) bool {
	if h == nil || !domain.IsValidDate(date) {
		return false
	}

	key := h.ID + "|" + date
	if due, ok := e.appears.get(key); ok {
		return due
	}

	due := e.computeDue(h, date)
	e.appears.put(key, due)
	return due
}

func (e *Engine) computeDue(h *domain.Habit, date string) bool {
	if h.DeletedOn != nil && date >= *h.DeletedOn {
		return false
	}
	if h.GraduatedOn != nil {
		return false
	}
	if date < h.CreatedOn {
		return false
	}

	sched := e.Resolve(h, date)
	if sched == nil {
		return false
	}

	switch sched.Frequency.Type {
	case domain.FreqDaily:
		return true

	case domain.FreqSpecificDays:
		day, ok := parseDate(date)
		if !ok {
			return false
		}
		wd := int(day.Weekday())
		for _, d := range sched.Frequency.Weekdays {
			if d == wd {
				return true
			}
		}
		return false

	case domain.FreqInterval:
		return e.intervalDue(sched, date)
	}

	return false
}

func (e *Engine) intervalDue(sched *domain.HabitSchedule, date string) bool {
	anchor, ok := e.anchorTime(sched.AnchorDate())
	if !ok {
		return false
	}
	day, ok := parseDate(date)
	if !ok {
		return false
	}

	diffDays := daysBetween(anchor, day)
	if diffDays < 0 {
		return false
	}

	amount := sched.Frequency.Amount
	if amount < 1 {
		return false
	}

	switch sched.Frequency.Unit {
	case domain.IntervalUnitDays:
		return diffDays%amount == 0
	case domain.IntervalUnitWeeks:
		if day.Weekday() != anchor.Weekday() {
			return false
		}
		return (diffDays/7)%amount == 0
	}

	return false
}

// daysBetween counts whole days from a to b. Both come from date-only
// parses, so the difference is always an exact multiple of 24h.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}

// effectiveTimes returns the slot set that applies to the habit on
// date: the day override when present, otherwise the schedule's times.
func (e *Engine) effectiveTimes(h *domain.Habit, date string) []domain.TimeOfDay {
	if ov := e.override(h.ID, date); ov != nil && ov.DailyTimes != nil {
		return ov.DailyTimes
	}
	if sched := e.Resolve(h, date); sched != nil {
		return sched.Times
	}
	return nil
}
