package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritmohq/ritmo-engine/internal/core/domain"
)

func TestMemoTable_OverflowWipesWholesale(t *testing.T) {
	table := newMemoTable[string, int](4)

	for i := 0; i < 4; i++ {
		table.put(fmt.Sprintf("k%d", i), i)
	}
	assert.Len(t, table.entries, 4)

	// The put that crosses the cap clears everything first, so only
	// the newest entry survives.
	table.put("k4", 4)
	assert.Len(t, table.entries, 1)

	v, ok := table.get("k4")
	require.True(t, ok)
	assert.Equal(t, 4, v)

	_, ok = table.get("k0")
	assert.False(t, ok)
}

// Queries spanning more distinct dates than a table's cap must stay
// correct across the wipe: a cleared entry is recomputed, never lost.
func TestEngine_SummaryCacheOverflowStaysCorrect(t *testing.T) {
	h, err := domain.NewHabit("user-1", "2020-01-01", domain.HabitSchedule{
		Name:      "Stretch",
		Times:     []domain.TimeOfDay{domain.Morning},
		Goal:      domain.Goal{Type: domain.GoalCheck},
		Frequency: domain.Frequency{Type: domain.FreqDaily},
	})
	require.NoError(t, err)

	e := New(&Dataset{Habits: []*domain.Habit{h}})
	e.SetStatus(h.ID, "2020-01-01", domain.Morning, domain.StatusDone)

	first := e.Summary("2020-01-01")
	assert.Equal(t, 1, first.Completed)

	// Walk one date past the cap so the table wipes mid-scan.
	day, ok := parseDate("2020-01-01")
	require.True(t, ok)
	for i := 0; i <= summaryCacheCap; i++ {
		e.Summary(day.AddDate(0, 0, i).Format(domain.DateLayout))
	}
	assert.LessOrEqual(t, len(e.summaries.entries), summaryCacheCap)

	again := e.Summary("2020-01-01")
	assert.Equal(t, first, again)

	empty := e.Summary("2019-06-01")
	assert.Equal(t, 0, empty.Total)
}
