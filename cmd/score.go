package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/match-scorer/internal/compatibility"
)

var scoreCmd = &cobra.Command{
	Use:   "score <viewer-id> <candidate-id>",
	Short: "Score a single candidate from the viewer's side",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		score(cmd, args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().String("at", "", "evaluation date in YYYY-MM-DD format. Default is today.")
}

type scoreOutput struct {
	Match       compatibility.MatchScore `json:"match"`
	Quality     compatibility.Quality    `json:"quality"`
	Explanation string                   `json:"explanation"`
}

func score(cmd *cobra.Command, viewerID, candidateID string) {
	ctx := context.Background()
	logger := newLogger()

	at, err := parseEvaluationDate(cmd.Flag("at").Value.String())
	if err != nil {
		logger.Fatal("parsing --at", zap.Error(err))
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	source, closeSource, err := newSource(config)
	if err != nil {
		logger.Fatal("creating a profile source", zap.Error(err))
	}
	defer closeSource()

	viewer, err := source.Get(ctx, viewerID)
	if err != nil {
		logger.Fatal("getting the viewer profile", zap.Error(err))
	}

	candidate, err := source.Get(ctx, candidateID)
	if err != nil {
		logger.Fatal("getting the candidate profile", zap.Error(err))
	}

	if err := writeScore(os.Stdout, viewer, candidate, at); err != nil {
		logger.Fatal("writing the score", zap.Error(err))
	}
}

func parseEvaluationDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now(), nil
	}
	at, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD: %w", err)
	}
	return at, nil
}

func writeScore(w io.Writer, viewer, candidate *compatibility.Profile, at time.Time) error {
	match := compatibility.CalculateAt(viewer, candidate, at)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(scoreOutput{
		Match:       match,
		Quality:     compatibility.QualityOf(match.Score),
		Explanation: compatibility.Explain(match),
	})
}
