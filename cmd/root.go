package cmd

import (
	"errors"
	"io/fs"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/match-scorer/internal/ai/gemini"
	"github.com/spigell/match-scorer/internal/logger"
)

const (
	app = "match-scorer"
)

type Config struct {
	Source      *SourceConfig  `mapstructure:"source"`
	Filters     *FiltersConfig `mapstructure:"filters"`
	ExcludeFile string         `mapstructure:"exclude-file"`
	Limit       int            `mapstructure:"limit"`
	Cache       *CacheConfig   `mapstructure:"cache"`
	Metrics     *MetricsConfig `mapstructure:"metrics"`
	AI          *AIConfig      `mapstructure:"ai"`
}

type SourceConfig struct {
	File        string `mapstructure:"file"`
	PostgresDSN string `mapstructure:"postgres-dsn"`
}

type FiltersConfig struct {
	Genders      []string `mapstructure:"genders"`
	MinimumScore int      `mapstructure:"minimum-score"`
	Parallelism  int      `mapstructure:"parallelism"`
	// PersistLowScores appends candidates below the minimum score to the exclude file.
	PersistLowScores bool `mapstructure:"persist-low-scores"`
}

type CacheConfig struct {
	RedisURL string        `mapstructure:"redis-url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

type AIConfig struct {
	Enabled         bool                   `mapstructure:"enabled"`
	Provider        string                 `mapstructure:"provider"`
	MinimumFitScore float64                `mapstructure:"minimum-fit-score"`
	Gemini          *GeminiConfig          `mapstructure:"gemini"`
	Prompt          gemini.PromptOverrides `mapstructure:"prompt"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "match-scorer computes compatibility scores between matrimony profiles and ranks candidates",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envBindings := map[string]string{
		"source.postgres-dsn":    "MATCH_SCORER_POSTGRES_DSN",
		"cache.redis-url":        "MATCH_SCORER_REDIS_URL",
		"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
	}
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("filters.minimum-score", 0)
	viper.SetDefault("cache.ttl", 24*time.Hour)
	viper.SetDefault("ai.minimum-fit-score", 0.5)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is match-scorer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().StringP("profiles", "p", "", "a YAML or JSON file with profiles. Ignored when a postgres dsn is set.")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("source.file", rootCmd.PersistentFlags().Lookup("profiles"))
}

func initConfig() {
	// The version command does not need any configuration.
	if versionCmd.CalledAs() != "" {
		return
	}

	// A missing .env is fine. Variables from the environment win over the file.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Flags and env are enough when the default config is absent.
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}
	if config.Source == nil {
		config.Source = &SourceConfig{}
	}
	if config.Filters == nil {
		config.Filters = &FiltersConfig{}
	}

	return config, nil
}

// newLogger builds the run logger tagged with a fresh run id.
func newLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	return logger.WithFields(l, logger.StringFields(
		logger.StringField{Key: logger.FieldRunID, Value: uuid.NewString()},
	)...)
}
