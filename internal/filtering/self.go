package filtering

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/match-scorer/internal/profiles"
)

type selfFilter struct {
	toggle
	viewerID string
	logger   *zap.Logger
}

// NewSelf creates a filter that removes the viewer's own profile.
func NewSelf(viewerID string, logger *zap.Logger) Filter {
	return &selfFilter{viewerID: viewerID, logger: orNop(logger)}
}

func (f *selfFilter) Name() string { return "self" }

func (f *selfFilter) Validate() error {
	if strings.TrimSpace(f.viewerID) == "" {
		return fmt.Errorf("%w: viewer id is required", ErrInvalidConfig)
	}
	return nil
}

func (f *selfFilter) Apply(_ context.Context, c *profiles.Candidates) (*profiles.Candidates, Step, error) {
	initial := c.Len()
	excluded := c.Exclude(profiles.CandidateIDField, []string{f.viewerID})
	if len(excluded) > 0 {
		f.logger.Debug("excluding the viewer's own profile", zap.String("viewer_id", f.viewerID))
	}
	return c, Step{Initial: initial, Dropped: len(excluded), Left: c.Len()}, nil
}

func (f *selfFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: map[string]string{"viewer_id": f.viewerID}}
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
