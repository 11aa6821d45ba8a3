package cmd

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/match-scorer/internal/compatibility"
	"github.com/spigell/match-scorer/internal/profiles"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate every profile in the configured source",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		validateProfiles()
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateProfiles() {
	ctx := context.Background()
	logger := newLogger()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	source, closeSource, err := newSource(config)
	if err != nil {
		logger.Fatal("creating a profile source", zap.Error(err))
	}
	defer closeSource()

	all, err := source.List(ctx)
	if err != nil {
		logger.Fatal("listing profiles", zap.Error(err))
	}

	invalid := invalidProfiles(all)
	for id, err := range invalid {
		logger.Error("invalid profile", zap.String("profile_id", id), zap.Error(err))
	}

	if len(invalid) > 0 {
		logger.Fatal("validation failed", zap.Int("invalid", len(invalid)), zap.Int("total", len(all)))
	}

	logger.Info("all profiles are valid", zap.Int("total", len(all)))
}

func invalidProfiles(all []*compatibility.Profile) map[string]error {
	invalid := make(map[string]error)
	for i, p := range all {
		if err := profiles.Validate(p); err != nil {
			id := p.ID
			if id == "" {
				id = "#" + strconv.Itoa(i)
			}
			invalid[id] = err
		}
	}
	return invalid
}
