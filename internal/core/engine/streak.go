package engine

import (
	"github.com/ritmohq/ritmo-engine/internal/core/domain"
)

// Streak counts consecutive fulfilled days for the habit ending at
// date, walking backward one day at a time. Days where the habit is
// not scheduled are neutral: they neither extend nor break the run.
// A scheduled day counts only when every effective slot is done.
func (e *Engine) Streak(h *domain.Habit, date string) int {
	if h == nil {
		return 0
	}
	key := h.ID + "|" + date
	if n, ok := e.streaks.get(key); ok {
		return n
	}

	n := e.computeStreak(h, date)
	e.streaks.put(key, n)
	return n
}

func (e *Engine) computeStreak(h *domain.Habit, date string) int {
	day, ok := parseDate(date)
	if !ok {
		return 0
	}

	streak := 0
	for i := 0; i < streakLookbackDays; i++ {
		iso := day.Format(domain.DateLayout)
		if iso < h.CreatedOn {
			break
		}
		if e.ShouldAppear(h, iso) {
			if !e.dayFulfilled(h, iso) {
				break
			}
			streak++
		}
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// dayFulfilled reports whether every slot the habit is tracked in on
// date is marked done.
func (e *Engine) dayFulfilled(h *domain.Habit, date string) bool {
	times := e.effectiveTimes(h, date)
	if len(times) == 0 {
		return false
	}
	log := e.DayLog(h.ID, date)
	for _, t := range times {
		if !log.Get(t).IsDone() {
			return false
		}
	}
	return true
}
