package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/match-scorer/internal/cache"
	"github.com/spigell/match-scorer/internal/compatibility"
	"github.com/spigell/match-scorer/internal/filtering"
	"github.com/spigell/match-scorer/internal/metrics"
	"github.com/spigell/match-scorer/internal/profiles"
)

const (
	PromptShowRanking     = "Show ranking"
	PromptReportByCity    = "Report by city"
	PromptDismissProfiles = "Dismiss profiles"
	PromptDumpToFile      = "Dump candidates to file"
	PromptExit            = "Exit"
	PromptBack            = "back"
	PromptDismissAll      = "Dismiss all shown candidates"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptShowRanking, PromptReportByCity, PromptDismissProfiles, PromptDumpToFile, PromptExit},
}

var rankCmd = &cobra.Command{
	Use:   "rank <viewer-id>",
	Short: "Rank candidates for a viewer",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rank(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().BoolP("auto-approve", "y", false, "print the ranking and exit without the interactive menu")
	rankCmd.Flags().StringP("exclude-file", "e", "", "a file with dismissed profiles to exclude. Default is unset.")
	rankCmd.Flags().IntP("limit", "l", 0, "show only the top N candidates")
	rankCmd.Flags().Int("min-score", 0, "drop candidates scoring below this value")
	rankCmd.Flags().StringSlice("skip", nil, "filter steps to skip, e.g. --skip gender,ai_review")

	viper.BindPFlag("exclude-file", rankCmd.Flags().Lookup("exclude-file"))
	viper.BindPFlag("limit", rankCmd.Flags().Lookup("limit"))
	viper.BindPFlag("filters.minimum-score", rankCmd.Flags().Lookup("min-score"))
}

func rank(cmd *cobra.Command, viewerID string) {
	ctx := context.Background()

	logger := newLogger()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the match-scorer", zap.String("version", version), zap.String("viewer_id", viewerID))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	source, closeSource, err := newSource(config)
	if err != nil {
		logger.Fatal("creating a profile source", zap.Error(err),
			zap.String("hint", "set source.file, --profiles or MATCH_SCORER_POSTGRES_DSN"))
	}
	defer closeSource()

	viewer, err := source.Get(ctx, viewerID)
	if err != nil {
		logger.Fatal("getting the viewer profile", zap.Error(err))
	}

	if err := profiles.Validate(viewer); err != nil {
		logger.Fatal("viewer profile is invalid", zap.Error(err))
	}

	candidates, err := loadCandidates(ctx, source, logger)
	if err != nil {
		logger.Fatal("getting candidate profiles", zap.Error(err))
	}

	m := metrics.New()

	filters := prepareFilters(ctx, config, viewer, m, logger)

	skip, _ := cmd.Flags().GetStringSlice("skip")
	for _, name := range skip {
		filters.DisableByName(strings.TrimSpace(name), "skipped from the command line")
	}

	for _, status := range filters.Describe() {
		logger.Debug("filter configured",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}

	candidates, err = filters.RunFilters(ctx, candidates)
	if err != nil {
		logger.Fatal("filtering failed", zap.Error(err))
	}

	candidates.Limit(config.Limit)

	if config.Metrics != nil && config.Metrics.Textfile != "" {
		if err := m.WriteTextfile(config.Metrics.Textfile); err != nil {
			logger.Warn("writing metrics textfile", zap.Error(err))
		}
	}

	if candidates.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no candidates left after filters"))
		return
	}

	if cmd.Flag("auto-approve").Value.String() == "true" {
		renderRanking(os.Stdout, candidates)
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		logger.Info("current list of candidates", zap.Int("count", candidates.Len()))

		if err := handleAction(action, logger, config, candidates); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

// loadCandidates lists every profile and skips the ones failing validation.
func loadCandidates(ctx context.Context, source profiles.Source, logger *zap.Logger) (*profiles.Candidates, error) {
	all, err := source.List(ctx)
	if err != nil {
		return nil, err
	}

	candidates := profiles.NewCandidates(all)

	// order is restored by the score step
	for i := candidates.Len() - 1; i >= 0; i-- {
		p := candidates.Items[i].Profile
		if err := profiles.Validate(p); err != nil {
			logger.Warn("skipping invalid profile", zap.String("profile_id", p.ID), zap.Error(err))
			candidates.RemoveByIndex(i)
		}
	}

	logger.Info("getting candidate profiles", zap.Int("count", candidates.Len()), zap.Int("skipped", len(all)-candidates.Len()))
	return candidates, nil
}

func handleAction(action string, logger *zap.Logger, config *Config, candidates *profiles.Candidates) error {
	switch action {
	case PromptShowRanking:
		renderRanking(os.Stdout, candidates)
		return nil
	case PromptReportByCity:
		pretty, _ := json.MarshalIndent(candidates.ReportByCity(), "", "  ")
		logger.Info(string(pretty), zap.Int("candidates count", candidates.Len()))
		return nil
	case PromptDismissProfiles:
		return dismissProfiles(logger, config, candidates)
	case PromptDumpToFile:
		filename, err := candidates.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func dismissProfiles(logger *zap.Logger, config *Config, candidates *profiles.Candidates) error {
	excludeFile := config.ExcludeFile
	if excludeFile == "" {
		logger.Warn("dismissing is not available", zap.String("hint", "set exclude-file in the config or pass --exclude-file"))
		return nil
	}

	for {
		items := make([]string, 0, candidates.Len()+2)
		for _, c := range candidates.Items {
			items = append(items, candidateLabel(c))
		}
		if candidates.Len() > 0 {
			items = append(items, PromptDismissAll)
		}

		selector := promptui.Select{
			Label: "Choose a profile to dismiss and press ENTER",
			Items: append(items, PromptBack),
		}

		_, selected, err := selector.Run()
		if err != nil {
			return err
		}

		var dismissed *profiles.Candidates
		switch selected {
		case PromptBack:
			return nil
		case PromptDismissAll:
			dismissed = &profiles.Candidates{Items: append([]*profiles.Candidate(nil), candidates.Items...)}
		default:
			id := strings.Split(selected, " ")[0]
			c := candidates.FindByID(id)
			if c == nil {
				return fmt.Errorf("there is no such profile id %s", id)
			}
			dismissed = &profiles.Candidates{Items: []*profiles.Candidate{c}}
		}

		excluded, err := profiles.GetExcludedFromFile(excludeFile)
		if err != nil {
			return err
		}

		excluded.Append(dismissed.ToExcluded(profiles.ExcludeActorUser, "dismissed manually"))

		if err := excluded.ToFile(excludeFile); err != nil {
			return err
		}

		logger.Info("appended to exclude file", zap.String("filename", excludeFile), zap.Strings("profiles", dismissed.IDs()))

		candidates.Exclude(profiles.CandidateIDField, dismissed.IDs())
	}
}

func candidateLabel(c *profiles.Candidate) string {
	p := c.Profile
	score := "n/a"
	if c.Match != nil {
		score = fmt.Sprintf("%d%%", c.Match.Score)
	}
	return fmt.Sprintf("%s %s / %s / %s / %s", p.ID, score, p.City, p.Religion, p.Profession)
}

func renderRanking(w io.Writer, candidates *profiles.Candidates) {
	for i, c := range candidates.Items {
		fmt.Fprintf(w, "%2d. %-16s %s\n", i+1, c.Profile.ID, c.Explanation)
		if c.AI == nil {
			continue
		}
		if c.AI.Error != "" {
			fmt.Fprintf(w, "    ai: unavailable (%s)\n", c.AI.Error)
			continue
		}
		fmt.Fprintf(w, "    ai: %.2f %s\n", c.AI.Score, c.AI.Reason)
		if c.AI.Message != "" {
			fmt.Fprintf(w, "    suggested message: %s\n", c.AI.Message)
		}
	}
}

func prepareFilters(ctx context.Context, config *Config, viewer *compatibility.Profile, m *metrics.Metrics, logger *zap.Logger) *filtering.Filtering {
	var matchCache cache.MatchCache
	redisCache, err := newCache(ctx, config)
	if err != nil {
		logger.Warn("skipping score cache", zap.Error(err))
	} else if redisCache != nil {
		matchCache = redisCache
	}

	scoreDismissFile := ""
	if config.Filters.PersistLowScores {
		scoreDismissFile = config.ExcludeFile
	}

	aiReview := prepareAIFilter(ctx, config, viewer, logger)

	return filtering.New(logger, m,
		filtering.NewSelf(viewer.ID, logger),
		filtering.NewGender(config.Filters.Genders, logger),
		filtering.NewExcludeFile(config.ExcludeFile, logger),
		filtering.NewScore(filtering.ScoreOptions{
			Viewer:       viewer,
			MinimumScore: config.Filters.MinimumScore,
			Parallelism:  config.Filters.Parallelism,
			Cache:        matchCache,
			Metrics:      m,
			DismissFile:  scoreDismissFile,
			Logger:       logger,
		}),
		aiReview,
	)
}

func prepareAIFilter(ctx context.Context, config *Config, viewer *compatibility.Profile, logger *zap.Logger) filtering.Filter {
	opts := filtering.AIReviewOptions{Viewer: viewer, DismissFile: config.ExcludeFile, Logger: logger}

	if config.AI == nil || !config.AI.Enabled {
		f := filtering.NewAIReview(opts)
		f.Disable("ai is not enabled in the config")
		return f
	}

	matcher, err := newAIMatcher(ctx, config.AI, logger)
	if err != nil {
		logger.Warn("skipping AI filter", zap.Error(err))
		f := filtering.NewAIReview(opts)
		f.Disable(err.Error())
		return f
	}

	opts.Matcher = matcher
	return filtering.NewAIReview(opts)
}
