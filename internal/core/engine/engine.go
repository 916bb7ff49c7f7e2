// Package engine implements the habit scheduling and completion-status
// core: effective-dated schedule resolution, recurrence evaluation,
// streaks, adaptive goals and day summaries, all computed over an
// in-memory snapshot with layered memoization.
//
// Every query is a synchronous pure function of the snapshot. Callers
// own the contract that any mutation of habits, schedules, statuses or
// overrides is followed by Invalidate (or a fresh engine) before the
// next read.
package engine

import (
	"time"

	"github.com/ritmohq/ritmo-engine/internal/core/domain"
)

const (
	resolveCacheCap = 512
	appearCacheCap  = 512
	anchorCacheCap  = 256
	streakCacheCap  = 512
	goalCacheCap    = 512
	summaryCacheCap = 512

	// streakLookbackDays bounds the backward walk of Streak.
	streakLookbackDays = 730

	// goalLookbackDays bounds the history search of SmartGoal.
	goalLookbackDays = 60

	minMeasurableGoal = 5
	goalStepPerWeek   = 5
)

// Dataset is the boot snapshot the engine computes over: the habit
// list, the status log and the per-day overrides, as supplied by the
// durable store.
type Dataset struct {
	Habits    []*domain.Habit
	Statuses  domain.StatusLog
	Overrides map[string]*domain.Override
}

// Engine owns every memoization table. One instance serves one user's
// dataset; it is not safe for concurrent use.
type Engine struct {
	data     *Dataset
	habitsBy map[string]*domain.Habit

	// Now is the clock SmartGoal uses to detect future target dates.
	// Tests override it.
	Now func() time.Time

	resolves  map[string]*memoTable[string, *domain.HabitSchedule]
	appears   *memoTable[string, bool]
	anchors   *memoTable[string, time.Time]
	streaks   *memoTable[string, int]
	goals     *memoTable[string, int]
	summaries *memoTable[string, *DaySummary]
}

func New(data *Dataset) *Engine {
	if data == nil {
		data = &Dataset{}
	}
	if data.Statuses == nil {
		data.Statuses = make(domain.StatusLog)
	}
	if data.Overrides == nil {
		data.Overrides = make(map[string]*domain.Override)
	}

	e := &Engine{
		data: data,
		Now:  time.Now,
	}
	e.indexHabits()
	e.Invalidate()
	return e
}

func (e *Engine) indexHabits() {
	e.habitsBy = make(map[string]*domain.Habit, len(e.data.Habits))
	for _, h := range e.data.Habits {
		e.habitsBy[h.ID] = h
	}
}

// Invalidate drops every memo table wholesale. Partial invalidation
// is not supported.
func (e *Engine) Invalidate() {
	e.resolves = make(map[string]*memoTable[string, *domain.HabitSchedule])
	e.appears = newMemoTable[string, bool](appearCacheCap)
	e.anchors = newMemoTable[string, time.Time](anchorCacheCap)
	e.streaks = newMemoTable[string, int](streakCacheCap)
	e.goals = newMemoTable[string, int](goalCacheCap)
	e.summaries = newMemoTable[string, *DaySummary](summaryCacheCap)
}

// Replace swaps in a fresh snapshot and invalidates everything.
func (e *Engine) Replace(data *Dataset) {
	if data == nil {
		data = &Dataset{}
	}
	if data.Statuses == nil {
		data.Statuses = make(domain.StatusLog)
	}
	if data.Overrides == nil {
		data.Overrides = make(map[string]*domain.Override)
	}
	e.data = data
	e.indexHabits()
	e.Invalidate()
}

// Habit looks a habit up by id in the snapshot.
func (e *Engine) Habit(id string) *domain.Habit {
	return e.habitsBy[id]
}

// Status returns the completion state of one (habit, date, slot)
// triple. Absent entries are pending.
func (e *Engine) Status(habitID, date string, t domain.TimeOfDay) domain.Status {
	return e.data.Statuses.Status(habitID, date, t)
}

// DayLog returns the full day record for a habit.
func (e *Engine) DayLog(habitID, date string) domain.DayStatus {
	return e.data.Statuses.Day(habitID, date)
}

func (e *Engine) override(habitID, date string) *domain.Override {
	return e.data.Overrides[domain.OverrideKey(habitID, date)]
}

// SetStatus records one slot status in the snapshot's log and drops
// every memo table, keeping reads consistent with the write.
func (e *Engine) SetStatus(habitID, date string, t domain.TimeOfDay, s domain.Status) {
	e.data.Statuses.SetStatus(habitID, date, t, s)
	e.Invalidate()
}

// SetOverride installs or removes the day override for a (habit, date)
// pair. A nil or empty override deletes the record.
func (e *Engine) SetOverride(ov *domain.Override) {
	if ov == nil {
		return
	}
	key := domain.OverrideKey(ov.HabitID, ov.Date)
	if ov.IsEmpty() {
		delete(e.data.Overrides, key)
	} else {
		e.data.Overrides[key] = ov
	}
	e.Invalidate()
}

// today returns the current date in the canonical layout.
func (e *Engine) today() string {
	return e.Now().UTC().Format(domain.DateLayout)
}

// parseDate reports ok=false for bad input so the caller can return
// its zero result instead of failing.
func parseDate(date string) (time.Time, bool) {
	if !domain.IsValidDate(date) {
		return time.Time{}, false
	}
	t, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// anchorTime parses an anchor date through the shared bounded memo
// table; anchors repeat across habits and dates constantly.
func (e *Engine) anchorTime(anchor string) (time.Time, bool) {
	if t, ok := e.anchors.get(anchor); ok {
		return t, !t.IsZero()
	}

	t, ok := parseDate(anchor)
	if !ok {
		e.anchors.put(anchor, time.Time{})
		return time.Time{}, false
	}
	e.anchors.put(anchor, t)
	return t, true
}
