package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ritmohq/ritmo-engine/internal/core/domain"
)

func TestSummary_EmptyDay(t *testing.T) {
	e := newTestEngine()

	s := e.Summary("2024-03-01")
	assert.Equal(t, 0, s.Total)
	assert.Equal(t, 0.0, s.CompletedPercent)
	assert.Equal(t, 0.0, s.SnoozedPercent)
	assert.False(t, s.ShowPlusIndicator)
}

func TestSummary_Tallies(t *testing.T) {
	read := mustHabit(t, "2024-03-01", checkSchedule("Read", domain.Morning, domain.Evening))
	gym := mustHabit(t, "2024-03-01", checkSchedule("Gym"))
	water := mustHabit(t, "2024-03-01", measurableSchedule("Water", 8))
	e := newTestEngine(read, gym, water)

	e.SetStatus(read.ID, "2024-03-05", domain.Morning, domain.StatusDone)
	e.SetStatus(read.ID, "2024-03-05", domain.Evening, domain.StatusDeferred)
	e.SetStatus(gym.ID, "2024-03-05", domain.Morning, domain.StatusDonePlus)
	// Water left pending.

	s := e.Summary("2024-03-05")
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Completed)
	assert.Equal(t, 1, s.Snoozed)
	assert.Equal(t, 1, s.Pending)
	assert.Equal(t, 50.0, s.CompletedPercent)
	assert.Equal(t, 25.0, s.SnoozedPercent)
	assert.False(t, s.ShowPlusIndicator)
}

func TestSummary_SkipsNonDueHabits(t *testing.T) {
	sched := checkSchedule("Gym")
	sched.Frequency = domain.Frequency{
		Type:     domain.FreqSpecificDays,
		Weekdays: []int{1}, // Monday only
	}
	gym := mustHabit(t, "2024-01-01", sched)
	e := newTestEngine(gym)

	assert.Equal(t, 1, e.Summary("2024-01-01").Total) // Monday
	assert.Equal(t, 0, e.Summary("2024-01-02").Total) // Tuesday
}

func TestSummary_PlusIndicator(t *testing.T) {
	water := mustHabit(t, "2024-03-01", measurableSchedule("Water", 8))
	e := newTestEngine(water)
	fixNow(e, "2024-03-03")

	e.SetStatus(water.ID, "2024-03-01", domain.Morning, domain.StatusDone)
	e.SetStatus(water.ID, "2024-03-02", domain.Morning, domain.StatusDone)
	e.SetStatus(water.ID, "2024-03-03", domain.Morning, domain.StatusDonePlus)
	slotOverride(t, e, water.ID, "2024-03-03", 20)

	s := e.Summary("2024-03-03")
	assert.Equal(t, 100.0, s.CompletedPercent)
	assert.True(t, s.ShowPlusIndicator)
}

func TestSummary_PlusIndicatorNeedsEscalation(t *testing.T) {
	water := mustHabit(t, "2024-03-01", measurableSchedule("Water", 8))
	e := newTestEngine(water)
	fixNow(e, "2024-03-03")

	// Three perfect days, but the DonePlus goal never rose above the
	// prior days' target.
	e.SetStatus(water.ID, "2024-03-01", domain.Morning, domain.StatusDone)
	e.SetStatus(water.ID, "2024-03-02", domain.Morning, domain.StatusDone)
	e.SetStatus(water.ID, "2024-03-03", domain.Morning, domain.StatusDonePlus)

	s := e.Summary("2024-03-03")
	assert.Equal(t, 100.0, s.CompletedPercent)
	assert.False(t, s.ShowPlusIndicator)
}

func TestSummary_PlusIndicatorNeedsThreeFullDays(t *testing.T) {
	water := mustHabit(t, "2024-03-01", measurableSchedule("Water", 8))
	e := newTestEngine(water)
	fixNow(e, "2024-03-02")

	// 03-01 complete, but 02-29 predates the habit: empty day.
	e.SetStatus(water.ID, "2024-03-01", domain.Morning, domain.StatusDone)
	e.SetStatus(water.ID, "2024-03-02", domain.Morning, domain.StatusDonePlus)
	slotOverride(t, e, water.ID, "2024-03-02", 20)

	assert.False(t, e.Summary("2024-03-02").ShowPlusIndicator)
}

func TestSummary_PlusIndicatorBrokenRun(t *testing.T) {
	water := mustHabit(t, "2024-03-01", measurableSchedule("Water", 8))
	e := newTestEngine(water)
	fixNow(e, "2024-03-04")

	e.SetStatus(water.ID, "2024-03-02", domain.Morning, domain.StatusDeferred)
	e.SetStatus(water.ID, "2024-03-03", domain.Morning, domain.StatusDone)
	e.SetStatus(water.ID, "2024-03-04", domain.Morning, domain.StatusDonePlus)
	slotOverride(t, e, water.ID, "2024-03-04", 20)

	assert.False(t, e.Summary("2024-03-04").ShowPlusIndicator)
}
