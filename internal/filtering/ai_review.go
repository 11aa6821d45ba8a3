package filtering

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/match-scorer/internal/ai"
	"github.com/spigell/match-scorer/internal/compatibility"
	"github.com/spigell/match-scorer/internal/logger"
	"github.com/spigell/match-scorer/internal/profiles"
)

type AIReviewOptions struct {
	Viewer  *compatibility.Profile
	Matcher ai.Matcher
	// DismissFile receives rejected candidates with the ai actor when set.
	DismissFile string
	Logger      *zap.Logger
}

type aiReviewFilter struct {
	toggle
	opts AIReviewOptions
}

// NewAIReview creates the step that asks an LLM for a second opinion on each scored candidate.
func NewAIReview(opts AIReviewOptions) Filter {
	opts.Logger = orNop(opts.Logger)
	return &aiReviewFilter{opts: opts}
}

func (f *aiReviewFilter) Name() string { return "ai_review" }

func (f *aiReviewFilter) Validate() error {
	if f.opts.Matcher == nil {
		return fmt.Errorf("%w: ai matcher is required when ai review is enabled", ErrInvalidConfig)
	}
	if f.opts.Viewer == nil {
		return fmt.Errorf("%w: viewer profile is required for ai review", ErrInvalidConfig)
	}
	return nil
}

// Apply evaluates candidates one by one. A failed evaluation keeps the
// candidate and records the error on it.
func (f *aiReviewFilter) Apply(ctx context.Context, c *profiles.Candidates) (*profiles.Candidates, Step, error) {
	initial := c.Len()
	approved := make([]*profiles.Candidate, 0, initial)
	rejected := &profiles.Candidates{}

	for _, candidate := range c.Items {
		if err := ctx.Err(); err != nil {
			return c, Step{}, err
		}

		log := f.opts.Logger.With(logger.MatchFields(f.opts.Viewer.ID, candidate.Profile.ID)...)

		review, err := f.opts.Matcher.Evaluate(ctx, f.opts.Viewer, candidate.Profile, candidate.Match)
		if err != nil {
			log.Warn("AI evaluation failed", zap.Error(err))
			candidate.AI = &profiles.AIReview{Error: err.Error()}
			approved = append(approved, candidate)
			continue
		}

		candidate.AI = &profiles.AIReview{
			Fit:     review.Fit,
			Score:   review.Score,
			Reason:  review.Reason,
			Message: review.Message,
			Raw:     review.Raw,
		}

		if !review.Fit {
			log.Info("candidate rejected by AI provider",
				zap.Float64("ai_score", review.Score),
				zap.String("reason", review.Reason),
			)
			rejected.Items = append(rejected.Items, candidate)
			continue
		}

		log.Info("candidate approved by AI", zap.Float64("ai_score", review.Score))
		approved = append(approved, candidate)
	}

	c.Items = approved

	if err := f.dismiss(rejected); err != nil {
		return c, Step{}, err
	}

	left := c.Len()
	return c, Step{Initial: initial, Dropped: initial - left, Left: left}, nil
}

func (f *aiReviewFilter) dismiss(rejected *profiles.Candidates) error {
	if f.opts.DismissFile == "" || rejected.Len() == 0 {
		return nil
	}

	dismissed, err := profiles.GetExcludedFromFile(f.opts.DismissFile)
	if err != nil {
		return fmt.Errorf("getting dismissed profiles from file: %w", err)
	}

	for _, candidate := range rejected.Items {
		dismissed.Append((&profiles.Candidates{Items: []*profiles.Candidate{candidate}}).ToExcluded(profiles.ExcludeActorAI, candidate.AI.Reason))
	}

	if err := dismissed.ToFile(f.opts.DismissFile); err != nil {
		return fmt.Errorf("saving dismissed profiles: %w", err)
	}
	return nil
}

func (f *aiReviewFilter) Status() Status {
	details := map[string]string{
		"matcher_configured": strconv.FormatBool(f.opts.Matcher != nil),
	}
	if f.opts.DismissFile != "" {
		details["dismiss_file"] = f.opts.DismissFile
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
