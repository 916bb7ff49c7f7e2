package engine

import (
	"github.com/ritmohq/ritmo-engine/internal/core/domain"
)

// DaySummary is the composite completion picture for one calendar day
// across every habit in the snapshot.
type DaySummary struct {
	Date             string  `json:"date"`
	Total            int     `json:"total"`
	Completed        int     `json:"completed"`
	Snoozed          int     `json:"snoozed"`
	Pending          int     `json:"pending"`
	CompletedPercent float64 `json:"completed_percent"`
	SnoozedPercent   float64 `json:"snoozed_percent"`

	// ShowPlusIndicator marks a third consecutive fully completed day
	// capped by an escalating overachievement.
	ShowPlusIndicator bool `json:"show_plus_indicator"`
}

func (s DaySummary) complete() bool {
	return s.Total > 0 && s.Completed == s.Total
}

// Summary aggregates slot statuses for date. The tallies themselves
// are memoized per date; the plus indicator is derived on top from the
// two preceding days, looked up through the same memo.
func (e *Engine) Summary(date string) DaySummary {
	out := *e.tallies(date)
	if out.complete() {
		out.ShowPlusIndicator = e.plusIndicator(date)
	}
	return out
}

func (e *Engine) tallies(date string) *DaySummary {
	if s, ok := e.summaries.get(date); ok {
		return s
	}

	s := &DaySummary{Date: date}
	for _, h := range e.data.Habits {
		if !e.ShouldAppear(h, date) {
			continue
		}
		for _, t := range e.effectiveTimes(h, date) {
			s.Total++
			switch e.Status(h.ID, date, t) {
			case domain.StatusDone, domain.StatusDonePlus:
				s.Completed++
			case domain.StatusDeferred:
				s.Snoozed++
			default:
				s.Pending++
			}
		}
	}
	if s.Total > 0 {
		s.CompletedPercent = float64(s.Completed) / float64(s.Total) * 100
		s.SnoozedPercent = float64(s.Snoozed) / float64(s.Total) * 100
	}

	e.summaries.put(date, s)
	return s
}

// plusIndicator checks the momentum bonus for a fully completed date:
// the two preceding days must also be fully complete, and at least one
// DonePlus slot of a measurable habit must have run on a goal strictly
// above the goal it used on both of those days.
func (e *Engine) plusIndicator(date string) bool {
	day, ok := parseDate(date)
	if !ok {
		return false
	}

	var prior [2]string
	for i := range prior {
		day = day.AddDate(0, 0, -1)
		iso := day.Format(domain.DateLayout)
		if !e.tallies(iso).complete() {
			return false
		}
		prior[i] = iso
	}

	for _, h := range e.data.Habits {
		if !e.ShouldAppear(h, date) {
			continue
		}
		sched := e.Resolve(h, date)
		if sched == nil || !sched.Goal.IsMeasurable() {
			continue
		}
		for _, t := range e.effectiveTimes(h, date) {
			if e.Status(h.ID, date, t) != domain.StatusDonePlus {
				continue
			}
			g := e.SmartGoal(h, date, t)
			if g > e.SmartGoal(h, prior[0], t) && g > e.SmartGoal(h, prior[1], t) {
				return true
			}
		}
	}
	return false
}
