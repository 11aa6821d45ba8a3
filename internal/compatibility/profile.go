package compatibility

import (
	"time"
)

type Diet string

const (
	DietVegetarian    Diet = "vegetarian"
	DietNonVegetarian Diet = "non_vegetarian"
	DietVegan         Diet = "vegan"
	DietOccasional    Diet = "occasional"
)

// Strict reports whether the diet excludes meat entirely.
func (d Diet) Strict() bool {
	return d == DietVegetarian || d == DietVegan
}

// Habit is used for both smoking and drinking.
type Habit string

const (
	HabitNever        Habit = "never"
	HabitOccasionally Habit = "occasionally"
	HabitRegularly    Habit = "regularly"
)

type MaritalStatus string

const (
	MaritalNeverMarried    MaritalStatus = "never_married"
	MaritalDivorced        MaritalStatus = "divorced"
	MaritalWidowed         MaritalStatus = "widowed"
	MaritalAwaitingDivorce MaritalStatus = "awaiting_divorce"
	MaritalAnnulled        MaritalStatus = "annulled"
)

// Range is an inclusive integer range. The zero value means "not set" and
// a zero Max with a positive Min is unbounded above.
type Range struct {
	Min int `json:"min" mapstructure:"min" validate:"gte=0"`
	Max int `json:"max" mapstructure:"max" validate:"omitempty,gtefield=Min"`
}

func (r Range) IsSet() bool {
	return r.Min > 0 || r.Max > 0
}

func (r Range) Contains(v int) bool {
	if !r.IsSet() {
		return true
	}
	if v < r.Min {
		return false
	}
	return r.Max == 0 || v <= r.Max
}

type PartnerPreferences struct {
	AgeRange        Range           `json:"age_range" mapstructure:"age_range"`
	HeightRange     Range           `json:"height_range" mapstructure:"height_range"`
	MaritalStatuses []MaritalStatus `json:"marital_statuses,omitempty" mapstructure:"marital_statuses" validate:"dive,oneof=never_married divorced widowed awaiting_divorce annulled"`
	Religions       []string        `json:"religions,omitempty" mapstructure:"religions"`
	Locations       []string        `json:"locations,omitempty" mapstructure:"locations"`
}

// Profile is a read-only snapshot of a member profile.
type Profile struct {
	ID     string `json:"id" mapstructure:"id" validate:"required"`
	UserID string `json:"user_id,omitempty" mapstructure:"user_id"`

	DateOfBirth   time.Time     `json:"date_of_birth" mapstructure:"date_of_birth" validate:"required"`
	Gender        string        `json:"gender" mapstructure:"gender" validate:"required"`
	HeightCm      int           `json:"height_cm" mapstructure:"height_cm" validate:"gte=0,lte=272"`
	MaritalStatus MaritalStatus `json:"marital_status" mapstructure:"marital_status" validate:"required,oneof=never_married divorced widowed awaiting_divorce annulled"`

	Country string `json:"country" mapstructure:"country"`
	State   string `json:"state" mapstructure:"state"`
	City    string `json:"city" mapstructure:"city"`

	Religion  string `json:"religion" mapstructure:"religion" validate:"required"`
	Community string `json:"community" mapstructure:"community"`

	Education  string `json:"education" mapstructure:"education"`
	Profession string `json:"profession" mapstructure:"profession"`

	Diet     Diet  `json:"diet" mapstructure:"diet" validate:"omitempty,oneof=vegetarian non_vegetarian vegan occasional"`
	Smoking  Habit `json:"smoking" mapstructure:"smoking" validate:"omitempty,oneof=never occasionally regularly"`
	Drinking Habit `json:"drinking" mapstructure:"drinking" validate:"omitempty,oneof=never occasionally regularly"`

	Preferences PartnerPreferences `json:"partner_preferences" mapstructure:"partner_preferences"`
}

// AgeAt returns the whole-year age on the given day.
func AgeAt(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// AgeAt returns the profile's age on the given day.
func (p *Profile) AgeAt(now time.Time) int {
	return AgeAt(p.DateOfBirth, now)
}
