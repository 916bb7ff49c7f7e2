package engine

import (
	"sort"
	"strconv"

	"github.com/ritmohq/ritmo-engine/internal/core/domain"
)

// HabitDay is one habit's view for a specific date: the schedule in
// effect, the slots it runs in and the recorded statuses.
type HabitDay struct {
	Habit    *domain.Habit         `json:"habit"`
	Schedule *domain.HabitSchedule `json:"schedule"`
	Times    []domain.TimeOfDay    `json:"times"`
	Log      domain.DayStatus      `json:"log"`
}

// ActiveHabits lists every habit due on date, ordered by the user's
// sort position.
func (e *Engine) ActiveHabits(date string) []HabitDay {
	out := make([]HabitDay, 0, len(e.data.Habits))
	for _, h := range e.data.Habits {
		if !e.ShouldAppear(h, date) {
			continue
		}
		out = append(out, HabitDay{
			Habit:    h,
			Schedule: e.Resolve(h, date),
			Times:    e.effectiveTimes(h, date),
			Log:      e.DayLog(h.ID, date),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Habit.SortOrder != out[j].Habit.SortOrder {
			return out[i].Habit.SortOrder < out[j].Habit.SortOrder
		}
		return out[i].Habit.ID < out[j].Habit.ID
	})
	return out
}

const (
	RefLive     = "live"
	RefTemplate = "template"
)

// DisplayRef points at either a live habit or a predefined template,
// so list screens can render both through one query.
type DisplayRef struct {
	Kind    string `json:"kind"`
	HabitID string `json:"habit_id,omitempty"`
	Slug    string `json:"slug,omitempty"`
}

func LiveRef(habitID string) DisplayRef {
	return DisplayRef{Kind: RefLive, HabitID: habitID}
}

func TemplateRef(slug string) DisplayRef {
	return DisplayRef{Kind: RefTemplate, Slug: slug}
}

// DisplayInfo is the rendered tuple for one habit slot on a date.
type DisplayInfo struct {
	Name     string        `json:"name"`
	Icon     string        `json:"icon"`
	Color    string        `json:"color"`
	Subtitle string        `json:"subtitle"`
	Status   domain.Status `json:"status"`
}

// Display resolves a reference into its effective name, subtitle and
// status for a date and slot. Live habits read the schedule in effect
// on that date; templates render their catalog entry with a pending
// status.
func (e *Engine) Display(ref DisplayRef, date string, t domain.TimeOfDay) (DisplayInfo, bool) {
	switch ref.Kind {
	case RefLive:
		h := e.Habit(ref.HabitID)
		if h == nil {
			return DisplayInfo{}, false
		}
		sched := e.PropertiesOrLatest(h, date)
		if sched == nil {
			return DisplayInfo{}, false
		}
		return DisplayInfo{
			Name:     sched.Name,
			Icon:     sched.Icon,
			Color:    sched.Color,
			Subtitle: e.subtitle(h, sched, date, t),
			Status:   e.Status(h.ID, date, t),
		}, true

	case RefTemplate:
		p := domain.FindPredefined(ref.Slug)
		if p == nil {
			return DisplayInfo{}, false
		}
		return DisplayInfo{
			Name:     p.Name,
			Icon:     p.Icon,
			Color:    p.Color,
			Subtitle: goalLabel(p.Goal.Total, p.Goal.Unit),
			Status:   domain.StatusPending,
		}, true
	}
	return DisplayInfo{}, false
}

func (e *Engine) subtitle(h *domain.Habit, sched *domain.HabitSchedule, date string, t domain.TimeOfDay) string {
	if ov := e.override(h.ID, date); ov != nil && ov.Note != "" {
		return ov.Note
	}
	if !sched.Goal.IsMeasurable() {
		return ""
	}
	return goalLabel(e.SmartGoal(h, date, t), sched.Goal.Unit)
}

func goalLabel(total int, unit string) string {
	if unit == "" {
		return strconv.Itoa(total)
	}
	return strconv.Itoa(total) + " " + unit
}
