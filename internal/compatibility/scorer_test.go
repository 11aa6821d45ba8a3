package compatibility

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var evaluatedAt = time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func newViewer() *Profile {
	return &Profile{
		ID:            "p-viewer",
		UserID:        "u-1",
		DateOfBirth:   date(1996, time.March, 10),
		Gender:        "male",
		HeightCm:      178,
		MaritalStatus: MaritalNeverMarried,
		Country:       "India",
		State:         "Maharashtra",
		City:          "Mumbai",
		Religion:      "Hindu",
		Community:     "Maratha",
		Education:     "masters",
		Profession:    "Software Engineer",
		Diet:          DietVegetarian,
		Smoking:       HabitNever,
		Drinking:      HabitOccasionally,
		Preferences: PartnerPreferences{
			AgeRange:        Range{Min: 25, Max: 32},
			HeightRange:     Range{Min: 150, Max: 170},
			MaritalStatuses: []MaritalStatus{MaritalNeverMarried},
			Religions:       []string{"Hindu"},
			Locations:       []string{"Maharashtra"},
		},
	}
}

func newCandidate() *Profile {
	return &Profile{
		ID:            "p-candidate",
		UserID:        "u-2",
		DateOfBirth:   date(1998, time.August, 20),
		Gender:        "female",
		HeightCm:      162,
		MaritalStatus: MaritalNeverMarried,
		Country:       "India",
		State:         "Maharashtra",
		City:          "Mumbai",
		Religion:      "Hindu",
		Community:     "Maratha",
		Education:     "Masters",
		Profession:    "Software Engineer",
		Diet:          DietVegetarian,
		Smoking:       HabitNever,
		Drinking:      HabitOccasionally,
	}
}

func TestAgeAt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		dob    time.Time
		now    time.Time
		expect int
	}{
		{name: "birthday later this year", dob: date(1998, time.August, 20), now: evaluatedAt, expect: 27},
		{name: "birthday today", dob: date(1998, time.June, 15), now: evaluatedAt, expect: 28},
		{name: "birthday tomorrow", dob: date(1998, time.June, 16), now: evaluatedAt, expect: 27},
		{name: "leap day before march", dob: date(2000, time.February, 29), now: date(2026, time.February, 28), expect: 25},
		{name: "leap day after february", dob: date(2000, time.February, 29), now: date(2026, time.March, 1), expect: 26},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expect, AgeAt(tt.dob, tt.now))
		})
	}
}

func TestCalculateAtIdealPair(t *testing.T) {
	viewer, candidate := newViewer(), newCandidate()

	got := CalculateAt(viewer, candidate, evaluatedAt)

	assert.Equal(t, Breakdown{
		Age:         94,
		Location:    100,
		Education:   100,
		Religion:    100,
		Lifestyle:   100,
		Preferences: 100,
	}, got.Breakdown)
	assert.Equal(t, 99, got.Score)
	assert.Equal(t, []string{
		"Same Hindu community",
		"Both from Mumbai",
		"Similar education background",
	}, got.Reasons)
	assert.Equal(t,
		"Excellent match (99%) - Same Hindu community, Both from Mumbai, Similar education background",
		Explain(got),
	)
}

func TestCalculateAtPoorPair(t *testing.T) {
	viewer := newViewer()
	candidate := &Profile{
		ID:            "p-far",
		DateOfBirth:   date(1980, time.January, 1),
		Gender:        "female",
		HeightCm:      185,
		MaritalStatus: MaritalDivorced,
		Country:       "USA",
		State:         "California",
		City:          "Los Angeles",
		Religion:      "Christian",
		Education:     "high_school",
		Profession:    "Software Engineer",
		Diet:          DietNonVegetarian,
		Smoking:       HabitRegularly,
		Drinking:      HabitNever,
	}

	got := CalculateAt(viewer, candidate, evaluatedAt)

	assert.Equal(t, Breakdown{
		Age:         0,
		Location:    30,
		Education:   50,
		Religion:    40,
		Lifestyle:   40,
		Preferences: 0,
	}, got.Breakdown)
	assert.Less(t, got.Score, 60)
	assert.Equal(t, []string{"Both in Software Engineer"}, got.Reasons)
	assert.Equal(t, fmt.Sprintf("Low match (%d%%) - Limited compatibility", got.Score), Explain(got))
}

func TestCalculateAtReasonsNeverNil(t *testing.T) {
	viewer := newViewer()
	candidate := newCandidate()
	candidate.Religion = "Sikh"
	candidate.City, candidate.State, candidate.Country = "Toronto", "Ontario", "Canada"
	candidate.Education = "high_school"
	candidate.DateOfBirth = date(1970, time.January, 1)
	candidate.Diet = DietNonVegetarian
	candidate.Profession = "Chef"

	got := CalculateAt(viewer, candidate, evaluatedAt)

	require.NotNil(t, got.Reasons)
	assert.Empty(t, got.Reasons)
}

func TestCalculateAtStateReason(t *testing.T) {
	viewer := newViewer()
	candidate := newCandidate()
	candidate.City = "Pune"
	candidate.Community = "Brahmin"

	got := CalculateAt(viewer, candidate, evaluatedAt)

	assert.Equal(t, 80, got.Breakdown.Location)
	assert.Equal(t, 80, got.Breakdown.Religion)
	assert.Equal(t, []string{
		"Same Hindu community",
		"Both from Maharashtra",
		"Similar education background",
	}, got.Reasons)
}

func TestCalculateAtIsReferentiallyTransparent(t *testing.T) {
	viewer, candidate := newViewer(), newCandidate()

	viewerBefore, err := json.Marshal(viewer)
	require.NoError(t, err)
	candidateBefore, err := json.Marshal(candidate)
	require.NoError(t, err)

	first := CalculateAt(viewer, candidate, evaluatedAt)
	second := CalculateAt(viewer, candidate, evaluatedAt)
	assert.Equal(t, first, second)

	viewerAfter, err := json.Marshal(viewer)
	require.NoError(t, err)
	candidateAfter, err := json.Marshal(candidate)
	require.NoError(t, err)

	assert.JSONEq(t, string(viewerBefore), string(viewerAfter))
	assert.JSONEq(t, string(candidateBefore), string(candidateAfter))
}

func TestCalculateAtBounds(t *testing.T) {
	diets := []Diet{DietVegetarian, DietNonVegetarian, DietVegan, DietOccasional, ""}
	habits := []Habit{HabitNever, HabitOccasionally, HabitRegularly}
	educations := []string{"high_school", "phd", "unknown", "Diploma"}
	births := []time.Time{date(1950, time.May, 1), date(1996, time.March, 10), date(2005, time.December, 31)}

	viewer := newViewer()
	for _, diet := range diets {
		for _, smoking := range habits {
			for _, drinking := range habits {
				for _, education := range educations {
					for _, dob := range births {
						candidate := newCandidate()
						candidate.Diet = diet
						candidate.Smoking = smoking
						candidate.Drinking = drinking
						candidate.Education = education
						candidate.DateOfBirth = dob

						got := CalculateAt(viewer, candidate, evaluatedAt)

						assert.GreaterOrEqual(t, got.Score, 0)
						assert.LessOrEqual(t, got.Score, 100)
						assert.LessOrEqual(t, len(got.Reasons), maxReasons)
						for _, sub := range []int{
							got.Breakdown.Age, got.Breakdown.Location, got.Breakdown.Education,
							got.Breakdown.Religion, got.Breakdown.Lifestyle, got.Breakdown.Preferences,
						} {
							assert.GreaterOrEqual(t, sub, 0)
							assert.LessOrEqual(t, sub, 100)
						}
					}
				}
			}
		}
	}
}

func TestCalculateIsNotCommutative(t *testing.T) {
	viewer, candidate := newViewer(), newCandidate()

	forward := CalculateAt(viewer, candidate, evaluatedAt)
	backward := CalculateAt(candidate, viewer, evaluatedAt)

	// The candidate has no partner preferences, so the fallback applies.
	assert.Equal(t, 100, forward.Breakdown.Preferences)
	assert.Equal(t, 50, backward.Breakdown.Preferences)
}

func TestAgeScore(t *testing.T) {
	t.Parallel()

	preferred := Range{Min: 25, Max: 32}

	tests := []struct {
		name      string
		viewer    int
		candidate int
		preferred Range
		expect    int
	}{
		{name: "inside with small gap", viewer: 30, candidate: 27, preferred: preferred, expect: 94},
		{name: "same age", viewer: 30, candidate: 30, preferred: preferred, expect: 100},
		{name: "inside floors at 70", viewer: 50, candidate: 26, preferred: preferred, expect: 70},
		{name: "lower boundary is inclusive", viewer: 50, candidate: 25, preferred: preferred, expect: 70},
		{name: "upper boundary is inclusive", viewer: 30, candidate: 32, preferred: preferred, expect: 96},
		{name: "one year above", viewer: 30, candidate: 33, preferred: preferred, expect: 60},
		{name: "two years below", viewer: 30, candidate: 23, preferred: preferred, expect: 50},
		{name: "far outside reaches zero", viewer: 30, candidate: 40, preferred: preferred, expect: 0},
		{name: "unset range accepts everyone", viewer: 30, candidate: 45, preferred: Range{}, expect: 70},
		{name: "open upper bound", viewer: 30, candidate: 60, preferred: Range{Min: 25}, expect: 70},
		{name: "below open upper bound", viewer: 30, candidate: 22, preferred: Range{Min: 25}, expect: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expect, AgeScore(tt.viewer, tt.candidate, tt.preferred))
		})
	}
}

func TestAgeScoreIsSymmetricForSharedRange(t *testing.T) {
	shared := Range{Min: 20, Max: 45}
	for a := 20; a <= 45; a++ {
		for b := 20; b <= 45; b++ {
			assert.Equal(t, AgeScore(a, b, shared), AgeScore(b, a, shared), "ages %d and %d", a, b)
		}
	}
}

func TestLocationScore(t *testing.T) {
	t.Parallel()

	base := &Profile{Country: "India", State: "Maharashtra", City: "Mumbai"}

	tests := []struct {
		name   string
		other  *Profile
		expect int
	}{
		{name: "same city", other: &Profile{Country: "India", State: "Maharashtra", City: "Mumbai"}, expect: 100},
		{name: "same state", other: &Profile{Country: "India", State: "Maharashtra", City: "Pune"}, expect: 80},
		{name: "same country", other: &Profile{Country: "India", State: "Karnataka", City: "Bengaluru"}, expect: 60},
		{name: "different country", other: &Profile{Country: "UK", State: "England", City: "London"}, expect: 30},
		{name: "comparison is case sensitive", other: &Profile{Country: "India", State: "Maharashtra", City: "mumbai"}, expect: 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expect, LocationScore(base, tt.other))
			assert.Equal(t, tt.expect, LocationScore(tt.other, base), "symmetry")
		})
	}
}

func TestEducationScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b   string
		expect int
	}{
		{a: "masters", b: "MASTERS", expect: 100},
		{a: "bachelors", b: "masters", expect: 85},
		{a: "diploma", b: "masters", expect: 70},
		{a: "high_school", b: "masters", expect: 50},
		{a: "high_school", b: "phd", expect: 50},
		{a: "professional", b: "masters", expect: 100},
		{a: "MBA", b: "bachelors", expect: 100},
		{a: "", b: "diploma", expect: 85},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expect, EducationScore(tt.a, tt.b))
			assert.Equal(t, tt.expect, EducationScore(tt.b, tt.a), "symmetry")
		})
	}
}

func TestEducationLevelDefault(t *testing.T) {
	assert.Equal(t, DefaultEducationLevel, EducationLevel("some college"))
	assert.Equal(t, 1, EducationLevel(" High_School "))
	assert.Equal(t, 5, EducationLevel("PhD"))
}

func TestReligionScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		a, b   *Profile
		expect int
	}{
		{name: "same religion and community", a: &Profile{Religion: "Hindu", Community: "Maratha"}, b: &Profile{Religion: "Hindu", Community: "Maratha"}, expect: 100},
		{name: "same religion only", a: &Profile{Religion: "Hindu", Community: "Maratha"}, b: &Profile{Religion: "Hindu", Community: "Iyer"}, expect: 80},
		{name: "different religion", a: &Profile{Religion: "Hindu", Community: "Maratha"}, b: &Profile{Religion: "Jain", Community: "Maratha"}, expect: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expect, ReligionScore(tt.a, tt.b))
			assert.Equal(t, tt.expect, ReligionScore(tt.b, tt.a), "symmetry")
		})
	}
}

func TestLifestyleScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		a, b   *Profile
		expect int
	}{
		{
			name:   "identical",
			a:      &Profile{Diet: DietVegan, Smoking: HabitNever, Drinking: HabitNever},
			b:      &Profile{Diet: DietVegan, Smoking: HabitNever, Drinking: HabitNever},
			expect: 100,
		},
		{
			name:   "every axis differs",
			a:      &Profile{Diet: DietVegetarian, Smoking: HabitNever, Drinking: HabitNever},
			b:      &Profile{Diet: DietNonVegetarian, Smoking: HabitRegularly, Drinking: HabitOccasionally},
			expect: 40,
		},
		{
			name:   "vegan against non vegetarian",
			a:      &Profile{Diet: DietVegan},
			b:      &Profile{Diet: DietNonVegetarian},
			expect: 70,
		},
		{
			name:   "vegan against vegetarian",
			a:      &Profile{Diet: DietVegan},
			b:      &Profile{Diet: DietVegetarian},
			expect: 85,
		},
		{
			name:   "occasional against non vegetarian",
			a:      &Profile{Diet: DietOccasional},
			b:      &Profile{Diet: DietNonVegetarian},
			expect: 85,
		},
		{
			name:   "drinking only",
			a:      &Profile{Diet: DietVegetarian, Drinking: HabitNever},
			b:      &Profile{Diet: DietVegetarian, Drinking: HabitRegularly},
			expect: 85,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expect, LifestyleScore(tt.a, tt.b))
			assert.Equal(t, tt.expect, LifestyleScore(tt.b, tt.a), "symmetry")
		})
	}
}

func TestPreferenceScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		prefs     PartnerPreferences
		candidate *Profile
		expect    int
	}{
		{
			name:      "every preference matches",
			prefs:     newViewer().Preferences,
			candidate: newCandidate(),
			expect:    100,
		},
		{
			name:  "nothing matches",
			prefs: newViewer().Preferences,
			candidate: &Profile{
				HeightCm:      190,
				MaritalStatus: MaritalWidowed,
				Religion:      "Buddhist",
				City:          "Kathmandu", State: "Bagmati", Country: "Nepal",
			},
			expect: 0,
		},
		{
			name:      "no preferences set",
			prefs:     PartnerPreferences{},
			candidate: newCandidate(),
			expect:    50,
		},
		{
			name: "half of the configured checks",
			prefs: PartnerPreferences{
				Religions: []string{"Hindu"},
				Locations: []string{"Delhi"},
			},
			candidate: newCandidate(),
			expect:    50,
		},
		{
			name: "two of three configured checks",
			prefs: PartnerPreferences{
				HeightRange:     Range{Min: 170},
				MaritalStatuses: []MaritalStatus{MaritalNeverMarried, MaritalDivorced},
				Religions:       []string{"Hindu", "Jain"},
			},
			candidate: newCandidate(),
			expect:    67,
		},
		{
			name:      "location token is a substring",
			prefs:     PartnerPreferences{Locations: []string{"", "Mum"}},
			candidate: newCandidate(),
			expect:    100,
		},
		{
			name:      "height boundaries are inclusive",
			prefs:     PartnerPreferences{HeightRange: Range{Min: 162, Max: 162}},
			candidate: newCandidate(),
			expect:    100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			viewer := &Profile{Preferences: tt.prefs}
			assert.Equal(t, tt.expect, PreferenceScore(viewer, tt.candidate))
		})
	}
}

func TestReasonsAreTruncatedInPriorityOrder(t *testing.T) {
	viewer, candidate := newViewer(), newCandidate()

	got := reasons(viewer, candidate, Breakdown{
		Age: 100, Location: 100, Education: 100, Religion: 100, Lifestyle: 100, Preferences: 100,
	})
	assert.Equal(t, []string{"Same Hindu community", "Both from Mumbai", "Similar education background"}, got)

	got = reasons(viewer, candidate, Breakdown{
		Age: 80, Location: 60, Education: 70, Religion: 40, Lifestyle: 80, Preferences: 80,
	})
	assert.Equal(t, []string{"Compatible age range", "Similar lifestyle preferences", "Matches your preferences"}, got)

	got = reasons(viewer, candidate, Breakdown{Lifestyle: 85})
	assert.Equal(t, []string{"Similar lifestyle preferences", "Both in Software Engineer"}, got)
}
