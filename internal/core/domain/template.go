package domain

// PredefinedHabit is a built-in template users can start a habit from.
// Templates only supply display defaults and an initial schedule; they
// never carry history or status data.
type PredefinedHabit struct {
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`

	Times     []TimeOfDay `json:"times"`
	Goal      Goal        `json:"goal"`
	Frequency Frequency   `json:"frequency"`
}

// Schedule builds the template's initial schedule record, ready to be
// passed to NewHabit.
func (p *PredefinedHabit) Schedule() HabitSchedule {
	return HabitSchedule{
		Name:      p.Name,
		Icon:      p.Icon,
		Color:     p.Color,
		Times:     append([]TimeOfDay(nil), p.Times...),
		Goal:      p.Goal,
		Frequency: p.Frequency,
	}
}

var PredefinedCatalog = []PredefinedHabit{
	{
		Slug: "drink-water", Name: "Drink water", Icon: "droplet", Color: "#4FC3F7",
		Times:     []TimeOfDay{Morning, Afternoon, Evening},
		Goal:      Goal{Type: GoalMeasurable, Total: 8, Unit: "glasses"},
		Frequency: Frequency{Type: FreqDaily},
	},
	{
		Slug: "morning-run", Name: "Morning run", Icon: "running", Color: "#81C784",
		Times:     []TimeOfDay{Morning},
		Goal:      Goal{Type: GoalMeasurable, Total: 20, Unit: "min"},
		Frequency: Frequency{Type: FreqSpecificDays, Weekdays: []int{1, 3, 5}},
	},
	{
		Slug: "read", Name: "Read", Icon: "book", Color: "#FFB74D",
		Times:     []TimeOfDay{Evening},
		Goal:      Goal{Type: GoalMeasurable, Total: 10, Unit: "pages"},
		Frequency: Frequency{Type: FreqDaily},
	},
	{
		Slug: "meditate", Name: "Meditate", Icon: "lotus", Color: "#BA68C8",
		Times:     []TimeOfDay{Morning},
		Goal:      Goal{Type: GoalCheck, Total: 1},
		Frequency: Frequency{Type: FreqDaily},
	},
	{
		Slug: "deep-clean", Name: "Deep clean", Icon: "broom", Color: "#90A4AE",
		Times:     []TimeOfDay{Afternoon},
		Goal:      Goal{Type: GoalCheck, Total: 1},
		Frequency: Frequency{Type: FreqInterval, Unit: IntervalUnitWeeks, Amount: 2},
	},
}

// FindPredefined looks a template up by slug.
func FindPredefined(slug string) *PredefinedHabit {
	for i := range PredefinedCatalog {
		if PredefinedCatalog[i].Slug == slug {
			return &PredefinedCatalog[i]
		}
	}
	return nil
}
