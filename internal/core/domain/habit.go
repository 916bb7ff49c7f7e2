package domain

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrHabitNameEmpty     = errors.New("habit name cannot be empty")
	ErrHabitNameTooLong   = errors.New("habit name is too long (max 100 chars)")
	ErrHabitInvalidUserID = errors.New("invalid user id")
	ErrInvalidColor       = errors.New("invalid color format (must be #RRGGBB)")
	ErrHabitDeleted       = errors.New("habit has been deleted")
	ErrHabitGraduated     = errors.New("habit has been graduated")
	ErrHabitNoHistory     = errors.New("habit has no schedule history")
	ErrEditBeforeCurrent  = errors.New("schedule edit cannot start before the current record")
)

var colorRegex = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)

const (
	DefaultIcon = "default_icon"
	MaxNameLen  = 100
)

// Habit is the identity plus the append-only history of its schedule
// records. At any date at most one record of ScheduleHistory is
// effective; editing closes the current record and appends a new one,
// so the past is never rewritten.
type Habit struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`

	// CreatedOn is the first valid date, the inclusive lower bound for
	// every query against this habit.
	CreatedOn string `json:"created_on"`

	// DeletedOn is a tombstone: the habit is invisible on and after
	// this date but its history stays intact.
	DeletedOn *string `json:"deleted_on,omitempty"`

	// GraduatedOn marks the habit as retired. It never appears again.
	GraduatedOn *string `json:"graduated_on,omitempty"`

	ScheduleHistory []HabitSchedule `json:"schedule_history"`

	SortOrder     int `json:"sort_order"`
	CurrentStreak int `json:"current_streak"`
	LongestStreak int `json:"longest_streak"`

	Version   int        `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

func normalizeWeekdays(days []int) []int {
	if len(days) == 0 {
		return nil
	}

	uniqueMap := make(map[int]bool)
	var uniqueDays []int
	for _, d := range days {
		if !uniqueMap[d] {
			uniqueMap[d] = true
			uniqueDays = append(uniqueDays, d)
		}
	}

	sort.Ints(uniqueDays)
	return uniqueDays
}

func normalizeSchedule(s *HabitSchedule) error {
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return ErrHabitNameEmpty
	}
	if len(s.Name) > MaxNameLen {
		return ErrHabitNameTooLong
	}
	if s.Color != "" && !colorRegex.MatchString(s.Color) {
		return ErrInvalidColor
	}
	if s.Icon == "" {
		s.Icon = DefaultIcon
	}
	if s.Goal.Type == GoalCheck {
		s.Goal.Total = 1
	}
	s.Frequency.Weekdays = normalizeWeekdays(s.Frequency.Weekdays)

	return s.Validate()
}

// NewHabit opens a habit with its first schedule record, effective from
// startDate onward (open-ended window).
func NewHabit(userID string, startDate string, schedule HabitSchedule) (*Habit, error) {
	if userID == "" {
		return nil, ErrHabitInvalidUserID
	}
	if !IsValidDate(startDate) {
		return nil, ErrInvalidDate
	}

	schedule.StartDate = startDate
	schedule.EndDate = nil
	if err := normalizeSchedule(&schedule); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	return &Habit{
		ID:              uuid.NewString(),
		UserID:          userID,
		CreatedOn:       startDate,
		ScheduleHistory: []HabitSchedule{schedule},
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// CurrentSchedule returns the most recent history record, or nil when
// the habit has no history at all.
func (h *Habit) CurrentSchedule() *HabitSchedule {
	if len(h.ScheduleHistory) == 0 {
		return nil
	}
	return &h.ScheduleHistory[len(h.ScheduleHistory)-1]
}

// EditSchedule closes the current record at effectiveDate and appends
// the new one, keeping history append-only and windows non-overlapping.
func (h *Habit) EditSchedule(effectiveDate string, schedule HabitSchedule) error {
	if h.DeletedOn != nil {
		return ErrHabitDeleted
	}
	if h.GraduatedOn != nil {
		return ErrHabitGraduated
	}
	if !IsValidDate(effectiveDate) {
		return ErrInvalidDate
	}

	current := h.CurrentSchedule()
	if current == nil {
		return ErrHabitNoHistory
	}
	if effectiveDate < current.StartDate {
		return ErrEditBeforeCurrent
	}

	schedule.StartDate = effectiveDate
	schedule.EndDate = nil
	if err := normalizeSchedule(&schedule); err != nil {
		return err
	}

	if current.StartDate == effectiveDate {
		// Same-day edit: the closed record would cover nothing, so the
		// new record simply replaces it.
		h.ScheduleHistory[len(h.ScheduleHistory)-1] = schedule
	} else {
		end := effectiveDate
		current.EndDate = &end
		h.ScheduleHistory = append(h.ScheduleHistory, schedule)
	}

	h.UpdatedAt = time.Now().UTC()
	return nil
}

// Tombstone hides the habit from date forward without erasing history.
func (h *Habit) Tombstone(date string) error {
	if !IsValidDate(date) {
		return ErrInvalidDate
	}
	h.DeletedOn = &date
	h.UpdatedAt = time.Now().UTC()
	return nil
}

// Graduate retires the habit entirely.
func (h *Habit) Graduate(date string) error {
	if h.DeletedOn != nil {
		return ErrHabitDeleted
	}
	if !IsValidDate(date) {
		return ErrInvalidDate
	}
	h.GraduatedOn = &date
	h.UpdatedAt = time.Now().UTC()
	return nil
}

func (h *Habit) ChangePosition(newOrder int) error {
	if h.GraduatedOn != nil {
		return ErrHabitGraduated
	}
	h.SortOrder = newOrder
	h.UpdatedAt = time.Now().UTC()
	return nil
}

func (h *Habit) UpdateStreak(current, longest int) {
	h.CurrentStreak = current
	h.LongestStreak = longest
	h.UpdatedAt = time.Now().UTC()
}
