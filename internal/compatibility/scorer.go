package compatibility

import (
	"math"
	"slices"
	"strings"
	"time"
)

const (
	weightAge         = 0.15
	weightLocation    = 0.20
	weightEducation   = 0.15
	weightReligion    = 0.25
	weightLifestyle   = 0.10
	weightPreferences = 0.15

	// preferenceFallback is used when the viewer has not set any partner preference.
	preferenceFallback = 50
)

// Breakdown holds the six sub-scores, each in [0,100].
type Breakdown struct {
	Age         int `json:"age"`
	Location    int `json:"location"`
	Education   int `json:"education"`
	Religion    int `json:"religion"`
	Lifestyle   int `json:"lifestyle"`
	Preferences int `json:"preferences"`
}

// MatchScore is the result of scoring a candidate from the viewer's side.
type MatchScore struct {
	Score     int       `json:"score"`
	Breakdown Breakdown `json:"breakdown"`
	Reasons   []string  `json:"reasons"`
}

// Calculate scores candidate against viewer using the current time to derive ages.
func Calculate(viewer, candidate *Profile) MatchScore {
	return CalculateAt(viewer, candidate, time.Now())
}

// CalculateAt scores candidate against viewer with ages derived at now.
// The result is not symmetric: preferences are always the viewer's.
func CalculateAt(viewer, candidate *Profile, now time.Time) MatchScore {
	b := Breakdown{
		Age:         AgeScore(viewer.AgeAt(now), candidate.AgeAt(now), viewer.Preferences.AgeRange),
		Location:    LocationScore(viewer, candidate),
		Education:   EducationScore(viewer.Education, candidate.Education),
		Religion:    ReligionScore(viewer, candidate),
		Lifestyle:   LifestyleScore(viewer, candidate),
		Preferences: PreferenceScore(viewer, candidate),
	}

	total := float64(b.Age)*weightAge +
		float64(b.Location)*weightLocation +
		float64(b.Education)*weightEducation +
		float64(b.Religion)*weightReligion +
		float64(b.Lifestyle)*weightLifestyle +
		float64(b.Preferences)*weightPreferences

	return MatchScore{
		Score:     clamp(int(math.Round(total))),
		Breakdown: b,
		Reasons:   reasons(viewer, candidate, b),
	}
}

// AgeScore rewards candidates inside the preferred range with a floor of 70
// and decays by 10 per year outside of it.
func AgeScore(viewerAge, candidateAge int, preferred Range) int {
	if preferred.Contains(candidateAge) {
		gap := abs(viewerAge - candidateAge)
		return clamp(max(70, 100-2*gap))
	}

	deviation := abs(candidateAge - preferred.Min)
	if preferred.Max > 0 {
		deviation = min(deviation, abs(candidateAge-preferred.Max))
	}

	return clamp(max(0, 70-10*deviation))
}

// LocationScore compares the most specific shared location.
func LocationScore(a, b *Profile) int {
	switch {
	case a.City == b.City:
		return 100
	case a.State == b.State:
		return 80
	case a.Country == b.Country:
		return 60
	default:
		return 30
	}
}

func EducationScore(a, b string) int {
	d := abs(EducationLevel(a) - EducationLevel(b))
	switch d {
	case 0:
		return 100
	case 1:
		return 85
	case 2:
		return 70
	default:
		return clamp(max(50, 70-10*d))
	}
}

func ReligionScore(a, b *Profile) int {
	if a.Religion != b.Religion {
		return 40
	}
	if a.Community == b.Community {
		return 100
	}
	return 80
}

// LifestyleScore subtracts penalties for diet, smoking and drinking mismatches.
// A meat-free diet against a non-vegetarian one costs 30 regardless of side.
func LifestyleScore(a, b *Profile) int {
	score := 100

	if a.Diet != b.Diet {
		if (a.Diet.Strict() && b.Diet == DietNonVegetarian) || (b.Diet.Strict() && a.Diet == DietNonVegetarian) {
			score -= 30
		} else {
			score -= 15
		}
	}

	if a.Smoking != b.Smoking {
		score -= 15
	}

	if a.Drinking != b.Drinking {
		score -= 15
	}

	return clamp(score)
}

// PreferenceScore checks the candidate against each partner preference the
// viewer has set. Every check is worth the same number of points.
func PreferenceScore(viewer, candidate *Profile) int {
	const pointsPerCheck = 25

	prefs := viewer.Preferences
	possible, earned := 0, 0

	check := func(applies, ok bool) {
		if !applies {
			return
		}
		possible += pointsPerCheck
		if ok {
			earned += pointsPerCheck
		}
	}

	check(prefs.HeightRange.IsSet(), prefs.HeightRange.Contains(candidate.HeightCm))
	check(len(prefs.MaritalStatuses) > 0, slices.Contains(prefs.MaritalStatuses, candidate.MaritalStatus))
	check(len(prefs.Religions) > 0, slices.Contains(prefs.Religions, candidate.Religion))
	check(len(prefs.Locations) > 0, matchesLocation(prefs.Locations, candidate))

	if possible == 0 {
		return preferenceFallback
	}

	return clamp(int(math.Round(float64(earned) / float64(possible) * 100)))
}

func matchesLocation(tokens []string, p *Profile) bool {
	for _, token := range tokens {
		if token == "" {
			continue
		}
		if strings.Contains(p.City, token) || strings.Contains(p.State, token) || strings.Contains(p.Country, token) {
			return true
		}
	}
	return false
}

func clamp(v int) int {
	return min(100, max(0, v))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
