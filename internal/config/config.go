package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/jwebster45206/mystery-engine/pkg/puzzle"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	RedisURL string
	DataDir  string
	StateTTL time.Duration

	LLMProvider     string
	ModelName       string
	AnthropicAPIKey string
	OllamaURL       string

	ContentRating    string
	LieDetection     bool
	Scoring          puzzle.ScoringRules
	PuzzleDifficulty int

	WorkerConcurrency int
}

// Load reads configuration from the environment. A .env file in the working
// directory (or the file named by ENV_FILE) is loaded first if present;
// variables already set in the environment take precedence.
func Load() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	_ = godotenv.Load(envFile)

	defaults := puzzle.DefaultScoringRules()
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),
		DataDir:  getEnv("DATA_DIR", "./data"),

		LLMProvider:     strings.ToLower(getEnv("LLM_PROVIDER", "anthropic")),
		ModelName:       getEnv("MODEL_NAME", "claude-3-5-haiku-latest"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OllamaURL:       getEnv("OLLAMA_URL", "http://localhost:11434"),

		ContentRating: getEnv("CONTENT_RATING", "PG13"),
	}

	var errs []string
	var err error
	if cfg.StateTTL, err = getDuration("STATE_TTL", 30*24*time.Hour); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.LieDetection, err = getBool("LIE_DETECTION", true); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.Scoring.PointsToSolve, err = getInt("POINTS_TO_SOLVE", defaults.PointsToSolve); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.Scoring.CorrectBase, err = getInt("CORRECT_BASE", defaults.CorrectBase); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.Scoring.StreakBonus, err = getInt("STREAK_BONUS", defaults.StreakBonus); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.Scoring.WrongPenalty, err = getInt("WRONG_PENALTY", defaults.WrongPenalty); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.Scoring.DifficultyMultiplier, err = getBool("DIFFICULTY_MULTIPLIER", defaults.DifficultyMultiplier); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.PuzzleDifficulty, err = getInt("PUZZLE_DIFFICULTY", 2); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.WorkerConcurrency, err = getInt("WORKER_CONCURRENCY", 2); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LLMProvider {
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when LLM_PROVIDER=anthropic")
		}
	case "ollama", "mock":
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLMProvider)
	}
	if c.PuzzleDifficulty < 1 || c.PuzzleDifficulty > 3 {
		return fmt.Errorf("PUZZLE_DIFFICULTY must be between 1 and 3, got %d", c.PuzzleDifficulty)
	}
	if c.Scoring.PointsToSolve <= 0 {
		return fmt.Errorf("POINTS_TO_SOLVE must be positive, got %d", c.Scoring.PointsToSolve)
	}
	if c.WorkerConcurrency < 1 {
		return fmt.Errorf("WORKER_CONCURRENCY must be at least 1, got %d", c.WorkerConcurrency)
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return n, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false, got %q", key, value)
	}
	return b, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 720h, got %q", key, value)
	}
	return d, nil
}
