package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/match-scorer/internal/ai"
	"github.com/spigell/match-scorer/internal/ai/gemini"
	"github.com/spigell/match-scorer/internal/cache"
	"github.com/spigell/match-scorer/internal/profiles"
	"github.com/spigell/match-scorer/internal/secrets"
)

// newSource prefers postgres when a dsn is configured. The returned closer is never nil.
func newSource(config *Config) (profiles.Source, func(), error) {
	if dsn := strings.TrimSpace(config.Source.PostgresDSN); dsn != "" {
		db, err := profiles.OpenPostgres(dsn)
		if err != nil {
			return nil, func() {}, err
		}
		return profiles.NewPostgresSource(db), func() { db.Close() }, nil
	}

	if file := strings.TrimSpace(config.Source.File); file != "" {
		return profiles.NewFileSource(file), func() {}, nil
	}

	return nil, func() {}, errors.New("no profile source configured")
}

// newCache returns nil when no redis url is configured.
func newCache(ctx context.Context, config *Config) (*cache.RedisCache, error) {
	if config.Cache == nil || strings.TrimSpace(config.Cache.RedisURL) == "" {
		return nil, nil
	}
	return cache.NewRedis(ctx, config.Cache.RedisURL, config.Cache.TTL)
}

func newAIMatcher(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Matcher, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	if cfg.Gemini == nil {
		return nil, errors.New("gemini configuration is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries,
		logger.With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries)))
	if err != nil {
		return nil, err
	}

	minScore := max(cfg.MinimumFitScore, 0)

	matcher := gemini.NewMatcher(generator, minScore, cfg.Gemini.MaxLogLength,
		logger.With(zap.Float64("minimum_fit_score", minScore)))
	matcher.SetPromptOverrides(cfg.Prompt)

	return matcher, nil
}
