package filtering

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/match-scorer/internal/profiles"
)

type genderFilter struct {
	toggle
	genders []string
	logger  *zap.Logger
}

// NewGender creates a filter that keeps only candidates of the given genders.
// An empty list keeps everybody.
func NewGender(genders []string, logger *zap.Logger) Filter {
	f := &genderFilter{logger: orNop(logger)}
	for _, g := range genders {
		if g = strings.ToLower(strings.TrimSpace(g)); g != "" {
			f.genders = append(f.genders, g)
		}
	}
	return f
}

func (f *genderFilter) Name() string { return "gender" }

func (f *genderFilter) Validate() error { return nil }

func (f *genderFilter) Apply(_ context.Context, c *profiles.Candidates) (*profiles.Candidates, Step, error) {
	initial := c.Len()
	if len(f.genders) == 0 {
		return c, Step{Initial: initial, Dropped: 0, Left: c.Len()}, nil
	}

	var others []string
	for _, candidate := range c.Items {
		gender := strings.ToLower(strings.TrimSpace(candidate.GetStringField(profiles.CandidateGenderField)))
		if !slices.Contains(f.genders, gender) {
			others = append(others, candidate.Profile.ID)
		}
	}

	excluded := c.Exclude(profiles.CandidateIDField, others)
	if len(excluded) > 0 {
		f.logger.Info("excluding candidates by gender",
			zap.Strings("accepted_genders", f.genders),
			zap.Strings("excluded_profiles", excluded),
			zap.Int("profiles_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(excluded), Left: c.Len()}, nil
}

func (f *genderFilter) Status() Status {
	details := map[string]string{}
	if len(f.genders) > 0 {
		details["genders"] = strings.Join(f.genders, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
