package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritmohq/ritmo-engine/internal/core/domain"
	"github.com/ritmohq/ritmo-engine/internal/core/engine"
)

const testUserID = "user-1"

func checkSchedule(name string, times ...domain.TimeOfDay) domain.HabitSchedule {
	if len(times) == 0 {
		times = []domain.TimeOfDay{domain.Morning}
	}
	return domain.HabitSchedule{
		Name:      name,
		Times:     times,
		Goal:      domain.Goal{Type: domain.GoalCheck},
		Frequency: domain.Frequency{Type: domain.FreqDaily},
	}
}

func measurableSchedule(name string, total int, times ...domain.TimeOfDay) domain.HabitSchedule {
	s := checkSchedule(name, times...)
	s.Goal = domain.Goal{Type: domain.GoalMeasurable, Total: total, Unit: "reps"}
	return s
}

func mustHabit(t *testing.T, start string, sched domain.HabitSchedule) *domain.Habit {
	t.Helper()
	h, err := domain.NewHabit(testUserID, start, sched)
	require.NoError(t, err)
	return h
}

func newTestEngine(habits ...*domain.Habit) *engine.Engine {
	return engine.New(&engine.Dataset{
		Habits:    habits,
		Statuses:  domain.StatusLog{},
		Overrides: map[string]*domain.Override{},
	})
}

// fixNow pins the engine clock so future-date checks are deterministic.
func fixNow(e *engine.Engine, date string) {
	t, _ := time.Parse(domain.DateLayout, date)
	e.Now = func() time.Time { return t }
}

func TestResolve_TwoEdits(t *testing.T) {
	h := mustHabit(t, "2024-01-01", checkSchedule("Old name"))
	require.NoError(t, h.EditSchedule("2024-02-01", checkSchedule("New name")))

	e := newTestEngine(h)

	tests := []struct {
		date string
		want string
	}{
		{"2024-01-01", "Old name"},
		{"2024-01-15", "Old name"},
		{"2024-01-31", "Old name"},
		{"2024-02-01", "New name"},
		{"2024-06-30", "New name"},
	}
	for _, tc := range tests {
		sched := e.Resolve(h, tc.date)
		require.NotNil(t, sched, tc.date)
		assert.Equal(t, tc.want, sched.Name, tc.date)
	}

	assert.Nil(t, e.Resolve(h, "2023-12-31"))
}

func TestResolve_NoHistoryOrBadDate(t *testing.T) {
	h := mustHabit(t, "2024-01-01", checkSchedule("Read"))
	e := newTestEngine(h)

	assert.Nil(t, e.Resolve(nil, "2024-01-01"))
	assert.Nil(t, e.Resolve(h, "not-a-date"))

	empty := &domain.Habit{ID: "empty", UserID: testUserID, CreatedOn: "2024-01-01"}
	assert.Nil(t, e.Resolve(empty, "2024-01-01"))
}

func TestPropertiesOrLatest_FallsBack(t *testing.T) {
	h := mustHabit(t, "2024-01-01", checkSchedule("Old name"))
	require.NoError(t, h.EditSchedule("2024-02-01", checkSchedule("New name")))

	e := newTestEngine(h)

	sched := e.PropertiesOrLatest(h, "2023-06-01")
	require.NotNil(t, sched)
	assert.Equal(t, "New name", sched.Name)

	sched = e.PropertiesOrLatest(h, "2024-01-15")
	require.NotNil(t, sched)
	assert.Equal(t, "Old name", sched.Name)
}

func TestInvalidate_DropsMemoizedResults(t *testing.T) {
	h := mustHabit(t, "2024-01-01", checkSchedule("Read"))
	e := newTestEngine(h)

	assert.True(t, e.ShouldAppear(h, "2024-03-01"))

	require.NoError(t, h.Tombstone("2024-02-01"))
	// Stale until the mutation is followed by an invalidation.
	assert.True(t, e.ShouldAppear(h, "2024-03-01"))

	e.Invalidate()
	assert.False(t, e.ShouldAppear(h, "2024-03-01"))
}

func TestReplace_SwapsSnapshot(t *testing.T) {
	a := mustHabit(t, "2024-01-01", checkSchedule("A"))
	e := newTestEngine(a)
	require.NotNil(t, e.Habit(a.ID))

	b := mustHabit(t, "2024-01-01", checkSchedule("B"))
	e.Replace(&engine.Dataset{
		Habits:    []*domain.Habit{b},
		Statuses:  domain.StatusLog{},
		Overrides: map[string]*domain.Override{},
	})

	assert.Nil(t, e.Habit(a.ID))
	require.NotNil(t, e.Habit(b.ID))
}
