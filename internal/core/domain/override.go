package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidOverride     = errors.New("invalid override data")
	ErrOverrideNotFound    = errors.New("override not found")
	ErrInvalidGoalOverride = errors.New("goal override must be positive")
	ErrEmptyDailyTimes     = errors.New("daily schedule override must cover at least one time of day")
)

// Override is a day-scoped, habit-scoped tweak: a note, per-slot goal
// overrides, and optionally a replacement slot set for that one day.
// It never touches the schedule history.
type Override struct {
	ID      string `json:"id"`
	HabitID string `json:"habit_id"`
	UserID  string `json:"user_id"`
	Date    string `json:"date"`

	Note string `json:"note,omitempty"`

	// SlotGoals overrides the numeric goal for individual slots.
	SlotGoals map[TimeOfDay]int `json:"slot_goals,omitempty"`

	// DailyTimes, when set, replaces the schedule's slot set for this
	// day only. Nil means no replacement.
	DailyTimes []TimeOfDay `json:"daily_times,omitempty"`

	Version   int        `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

func NewOverride(habitID, userID, date string) (*Override, error) {
	if habitID == "" || userID == "" {
		return nil, ErrInvalidOverride
	}
	if !IsValidDate(date) {
		return nil, ErrInvalidDate
	}

	now := time.Now().UTC()
	return &Override{
		ID:        uuid.NewString(),
		HabitID:   habitID,
		UserID:    userID,
		Date:      date,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (o *Override) Validate() error {
	if o.HabitID == "" || o.UserID == "" {
		return ErrInvalidOverride
	}
	if !IsValidDate(o.Date) {
		return ErrInvalidDate
	}
	for slot, goal := range o.SlotGoals {
		if !slot.Valid() {
			return ErrInvalidTimeOfDay
		}
		if goal < 1 {
			return ErrInvalidGoalOverride
		}
	}
	if o.DailyTimes != nil && len(o.DailyTimes) == 0 {
		return ErrEmptyDailyTimes
	}
	for _, t := range o.DailyTimes {
		if !t.Valid() {
			return ErrInvalidTimeOfDay
		}
	}
	return nil
}

func (o *Override) SetSlotGoal(t TimeOfDay, goal int) {
	if o.SlotGoals == nil {
		o.SlotGoals = make(map[TimeOfDay]int)
	}
	o.SlotGoals[t] = goal
	o.UpdatedAt = time.Now().UTC()
}

func (o *Override) SlotGoal(t TimeOfDay) (int, bool) {
	goal, ok := o.SlotGoals[t]
	return goal, ok
}

// IsEmpty reports whether the override carries no information anymore
// and can be dropped.
func (o *Override) IsEmpty() bool {
	return o.Note == "" && len(o.SlotGoals) == 0 && o.DailyTimes == nil
}

// OverrideKey identifies the one override a (habit, date) pair may have.
func OverrideKey(habitID, date string) string {
	return habitID + "_" + date
}
