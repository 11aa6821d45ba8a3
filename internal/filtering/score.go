package filtering

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/match-scorer/internal/cache"
	"github.com/spigell/match-scorer/internal/compatibility"
	"github.com/spigell/match-scorer/internal/logger"
	"github.com/spigell/match-scorer/internal/metrics"
	"github.com/spigell/match-scorer/internal/profiles"
)

type ScoreOptions struct {
	Viewer *compatibility.Profile
	// At is the evaluation time used to derive ages. Zero means now.
	At           time.Time
	MinimumScore int
	Parallelism  int
	Cache        cache.MatchCache
	Metrics      *metrics.Metrics
	// DismissFile receives candidates below MinimumScore when set.
	DismissFile string
	Logger      *zap.Logger
}

type scoreFilter struct {
	toggle
	opts ScoreOptions
}

// NewScore creates the step that scores every candidate against the viewer.
func NewScore(opts ScoreOptions) Filter {
	opts.Logger = orNop(opts.Logger)
	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.GOMAXPROCS(0)
	}
	return &scoreFilter{opts: opts}
}

func (f *scoreFilter) Name() string { return "score" }

func (f *scoreFilter) Validate() error {
	if f.opts.Viewer == nil {
		return fmt.Errorf("%w: viewer profile is required for scoring", ErrInvalidConfig)
	}
	if f.opts.MinimumScore < 0 || f.opts.MinimumScore > 100 {
		return fmt.Errorf("%w: minimum score must be within [0,100], got %d", ErrInvalidConfig, f.opts.MinimumScore)
	}
	return nil
}

func (f *scoreFilter) Apply(ctx context.Context, c *profiles.Candidates) (*profiles.Candidates, Step, error) {
	initial := c.Len()

	at := f.opts.At
	if at.IsZero() {
		at = time.Now()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.Parallelism)

	for _, candidate := range c.Items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			match := f.score(gctx, candidate.Profile, at)
			candidate.Match = &match
			candidate.Explanation = compatibility.Explain(match)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return c, Step{}, err
	}

	var low []string
	for _, candidate := range c.Items {
		if candidate.Match.Score < f.opts.MinimumScore {
			low = append(low, candidate.Profile.ID)
		}
	}

	if len(low) > 0 {
		if err := f.dismiss(c, low); err != nil {
			return c, Step{}, err
		}
	}

	excluded := c.Exclude(profiles.CandidateIDField, low)
	if len(excluded) > 0 {
		f.opts.Logger.Info("excluding candidates below minimum score",
			zap.Int("minimum_score", f.opts.MinimumScore),
			zap.Strings("excluded_profiles", excluded),
			zap.Int("profiles_left", c.Len()),
		)
	}

	c.SortByScore()

	return c, Step{Initial: initial, Dropped: len(excluded), Left: c.Len()}, nil
}

// score returns the cached result when there is one. Cache failures fall back to computing.
func (f *scoreFilter) score(ctx context.Context, candidate *compatibility.Profile, at time.Time) compatibility.MatchScore {
	viewer := f.opts.Viewer
	log := f.opts.Logger.With(logger.MatchFields(viewer.ID, candidate.ID)...)

	if f.opts.Cache != nil {
		cached, ok, err := f.opts.Cache.Get(ctx, viewer, candidate, at)
		switch {
		case err != nil:
			f.opts.Metrics.CacheRequest(metrics.CacheError)
			log.Warn("score cache lookup failed", zap.Error(err))
		case ok:
			f.opts.Metrics.CacheRequest(metrics.CacheHit)
			return *cached
		default:
			f.opts.Metrics.CacheRequest(metrics.CacheMiss)
		}
	}

	match := compatibility.CalculateAt(viewer, candidate, at)
	f.opts.Metrics.ScoreComputed(match.Score)
	log.Debug("score computed", zap.Int("score", match.Score))

	if f.opts.Cache != nil {
		if err := f.opts.Cache.Set(ctx, viewer, candidate, at, &match); err != nil {
			log.Warn("score cache store failed", zap.Error(err))
		}
	}

	return match
}

func (f *scoreFilter) dismiss(c *profiles.Candidates, ids []string) error {
	if f.opts.DismissFile == "" {
		return nil
	}

	low := &profiles.Candidates{}
	for _, id := range ids {
		low.Items = append(low.Items, c.FindByID(id))
	}

	dismissed, err := profiles.GetExcludedFromFile(f.opts.DismissFile)
	if err != nil {
		return fmt.Errorf("getting dismissed profiles from file: %w", err)
	}

	reason := fmt.Sprintf("score below %d", f.opts.MinimumScore)
	dismissed.Append(low.ToExcluded(profiles.ExcludeActorScore, reason))

	if err := dismissed.ToFile(f.opts.DismissFile); err != nil {
		return fmt.Errorf("saving dismissed profiles: %w", err)
	}
	return nil
}

func (f *scoreFilter) Status() Status {
	details := map[string]string{
		"minimum_score": strconv.Itoa(f.opts.MinimumScore),
		"parallelism":   strconv.Itoa(f.opts.Parallelism),
		"cache":         strconv.FormatBool(f.opts.Cache != nil),
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
