package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidTimeOfDay = errors.New("invalid time of day (must be morning, afternoon or evening)")
	ErrEmptyTimes       = errors.New("schedule must cover at least one time of day")
	ErrInvalidGoalType  = errors.New("invalid goal type (must be check or measurable)")
	ErrInvalidGoalTotal = errors.New("measurable goal total must be positive")
	ErrInvalidFrequency = errors.New("invalid frequency type (must be daily, specific_days or interval)")
	ErrInvalidUnit      = errors.New("invalid interval unit (must be days or weeks)")
	ErrInvalidAmount    = errors.New("interval amount must be positive")
	ErrInvalidWeekdays  = errors.New("invalid weekdays (must be 0-6)")
	ErrInvalidDate      = errors.New("invalid date (expected YYYY-MM-DD)")
)

// DateLayout is the canonical calendar-date format used across the engine,
// the status log and the shard transport format.
const DateLayout = "2006-01-02"

type TimeOfDay int

const (
	Morning TimeOfDay = iota
	Afternoon
	Evening
)

var AllTimesOfDay = []TimeOfDay{Morning, Afternoon, Evening}

func (t TimeOfDay) Valid() bool {
	return t >= Morning && t <= Evening
}

func (t TimeOfDay) String() string {
	switch t {
	case Morning:
		return "morning"
	case Afternoon:
		return "afternoon"
	case Evening:
		return "evening"
	}
	return "unknown"
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	switch s {
	case "morning":
		return Morning, nil
	case "afternoon":
		return Afternoon, nil
	case "evening":
		return Evening, nil
	}
	return 0, ErrInvalidTimeOfDay
}

// JSON carries times of day by name, both in API payloads and in the
// stored schedule history.
func (t TimeOfDay) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, ErrInvalidTimeOfDay
	}
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

const (
	GoalCheck      = "check"
	GoalMeasurable = "measurable"
)

// Goal is either a binary check-off or a measurable target with a unit.
type Goal struct {
	Type  string `json:"type"`
	Total int    `json:"total,omitempty"`
	Unit  string `json:"unit,omitempty"`
}

func (g Goal) IsMeasurable() bool {
	return g.Type == GoalMeasurable
}

const (
	FreqDaily        = "daily"
	FreqSpecificDays = "specific_days"
	FreqInterval     = "interval"

	IntervalUnitDays  = "days"
	IntervalUnitWeeks = "weeks"
)

// Frequency is a tagged variant: daily, a set of weekdays, or an
// anchored interval counted in days or weeks.
type Frequency struct {
	Type     string `json:"type"`
	Weekdays []int  `json:"weekdays,omitempty"`
	Unit     string `json:"unit,omitempty"`
	Amount   int    `json:"amount,omitempty"`
}

// HabitSchedule is one effective-dated configuration record. Its validity
// window is [StartDate, EndDate); EndDate is absent only on the most
// recent record of a habit's history.
type HabitSchedule struct {
	StartDate string  `json:"start_date"`
	EndDate   *string `json:"end_date,omitempty"`

	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`

	Times     []TimeOfDay `json:"times"`
	Goal      Goal        `json:"goal"`
	Frequency Frequency   `json:"frequency"`

	// Anchor is the reference date interval frequencies count from.
	// Defaults to StartDate when absent.
	Anchor *string `json:"anchor,omitempty"`
}

// Contains reports whether date falls inside the record's validity window.
// ISO dates compare correctly as plain strings.
func (s *HabitSchedule) Contains(date string) bool {
	if date < s.StartDate {
		return false
	}
	return s.EndDate == nil || date < *s.EndDate
}

// AnchorDate returns the interval anchor, falling back to StartDate.
func (s *HabitSchedule) AnchorDate() string {
	if s.Anchor != nil && *s.Anchor != "" {
		return *s.Anchor
	}
	return s.StartDate
}

func (s *HabitSchedule) Validate() error {
	if !IsValidDate(s.StartDate) {
		return ErrInvalidDate
	}
	if s.EndDate != nil && !IsValidDate(*s.EndDate) {
		return ErrInvalidDate
	}
	if s.Anchor != nil && !IsValidDate(*s.Anchor) {
		return ErrInvalidDate
	}

	if len(s.Times) == 0 {
		return ErrEmptyTimes
	}
	seen := make(map[TimeOfDay]bool)
	for _, t := range s.Times {
		if !t.Valid() {
			return ErrInvalidTimeOfDay
		}
		if seen[t] {
			return ErrInvalidTimeOfDay
		}
		seen[t] = true
	}

	switch s.Goal.Type {
	case GoalCheck:
	case GoalMeasurable:
		if s.Goal.Total < 1 {
			return ErrInvalidGoalTotal
		}
	default:
		return ErrInvalidGoalType
	}

	switch s.Frequency.Type {
	case FreqDaily:
	case FreqSpecificDays:
		if len(s.Frequency.Weekdays) == 0 {
			return ErrInvalidWeekdays
		}
		for _, d := range s.Frequency.Weekdays {
			if d < 0 || d > 6 {
				return ErrInvalidWeekdays
			}
		}
	case FreqInterval:
		if s.Frequency.Unit != IntervalUnitDays && s.Frequency.Unit != IntervalUnitWeeks {
			return ErrInvalidUnit
		}
		if s.Frequency.Amount < 1 {
			return ErrInvalidAmount
		}
	default:
		return ErrInvalidFrequency
	}

	return nil
}

// IsValidDate reports whether s is a well-formed YYYY-MM-DD date.
func IsValidDate(s string) bool {
	if len(s) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
