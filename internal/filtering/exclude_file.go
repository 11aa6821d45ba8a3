package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/match-scorer/internal/profiles"
)

type excludeFileFilter struct {
	toggle
	path   string
	logger *zap.Logger
}

// NewExcludeFile creates a filter that removes profiles listed in the dismissed profiles file.
func NewExcludeFile(path string, logger *zap.Logger) Filter {
	return &excludeFileFilter{path: path, logger: orNop(logger)}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Validate() error { return nil }

func (f *excludeFileFilter) Apply(_ context.Context, c *profiles.Candidates) (*profiles.Candidates, Step, error) {
	initial := c.Len()
	if f.path == "" {
		return c, Step{Initial: initial, Dropped: 0, Left: c.Len()}, nil
	}

	excluded, err := profiles.GetExcludedFromFile(f.path)
	if err != nil {
		return c, Step{}, fmt.Errorf("getting dismissed profiles from file: %w", err)
	}

	removed := c.Exclude(profiles.CandidateIDField, excluded.IDs())
	if len(removed) > 0 {
		f.logger.Info("excluding profiles based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_profiles", removed),
			zap.Int("profiles_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(removed), Left: c.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
