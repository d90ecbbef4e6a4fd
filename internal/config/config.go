package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full service configuration, loaded from environment
// variables with sensible defaults for local development.
type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	// LLM
	LLMProvider          string // "ollama" or "anthropic"
	OllamaHost           string
	AnthropicAPIKey      string
	ModelName            string
	TranslationModelName string
	NumCtx               int

	// Storage
	StorageBackend string // "redis" or "sqlite"
	RedisURL       string
	SQLitePath     string

	// Movement tuning
	VisitThresholdDistance float64
	RevisitInterval        time.Duration
	MinSearchDistance      float64
	MaxSearchDistance      float64
	SceneBoundaryBuffer    float64

	// Memory limits
	MaxLocationsInMemory int
	MaxLongTermMemories  int
	AutoSaveInterval     time.Duration
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),

		LLMProvider:          strings.ToLower(getEnv("LLM_PROVIDER", "ollama")),
		OllamaHost:           getEnv("OLLAMA_HOST", "http://localhost:11434"),
		AnthropicAPIKey:      getEnv("ANTHROPIC_API_KEY", ""),
		ModelName:            getEnv("MODEL_NAME", "llama3.1:8b"),
		TranslationModelName: getEnv("TRANSLATION_MODEL_NAME", ""),

		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", "redis")),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379"),
		SQLitePath:     getEnv("SQLITE_PATH", "npc_memory.db"),
	}

	var err error
	if cfg.NumCtx, err = getEnvInt("NUM_CTX", 4096); err != nil {
		return nil, err
	}
	if cfg.VisitThresholdDistance, err = getEnvFloat("VISIT_THRESHOLD_DISTANCE", 1.5); err != nil {
		return nil, err
	}
	if cfg.RevisitInterval, err = getEnvSeconds("REVISIT_INTERVAL_SECONDS", 300); err != nil {
		return nil, err
	}
	if cfg.MinSearchDistance, err = getEnvFloat("MIN_SEARCH_DISTANCE_FOR_NEW_POINT", 2.0); err != nil {
		return nil, err
	}
	if cfg.MaxSearchDistance, err = getEnvFloat("MAX_SEARCH_DISTANCE_FOR_NEW_POINT", 15.0); err != nil {
		return nil, err
	}
	if cfg.SceneBoundaryBuffer, err = getEnvFloat("SCENE_BOUNDARY_BUFFER", 0.5); err != nil {
		return nil, err
	}
	if cfg.MaxLocationsInMemory, err = getEnvInt("MAX_LOCATIONS_IN_MEMORY", 15); err != nil {
		return nil, err
	}
	if cfg.MaxLongTermMemories, err = getEnvInt("MAX_LONG_TERM_MEMORY_ENTRIES", 50); err != nil {
		return nil, err
	}
	if cfg.AutoSaveInterval, err = getEnvSeconds("AUTO_SAVE_INTERVAL_SECONDS", 300); err != nil {
		return nil, err
	}
	if cfg.TranslationModelName == "" {
		cfg.TranslationModelName = cfg.ModelName
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LLMProvider {
	case "ollama", "anthropic":
	default:
		return fmt.Errorf("config: unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	if c.LLMProvider == "anthropic" && c.AnthropicAPIKey == "" {
		return fmt.Errorf("config: ANTHROPIC_API_KEY is required when LLM_PROVIDER=anthropic")
	}
	switch c.StorageBackend {
	case "redis", "sqlite":
	default:
		return fmt.Errorf("config: unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.MinSearchDistance <= 0 || c.MaxSearchDistance <= c.MinSearchDistance {
		return fmt.Errorf("config: search distances must satisfy 0 < min < max (got %v, %v)",
			c.MinSearchDistance, c.MaxSearchDistance)
	}
	if c.SceneBoundaryBuffer < 0 {
		return fmt.Errorf("config: SCENE_BOUNDARY_BUFFER must be >= 0")
	}
	if c.VisitThresholdDistance <= 0 {
		return fmt.Errorf("config: VISIT_THRESHOLD_DISTANCE must be > 0")
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

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return v, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return v, nil
}

func getEnvSeconds(key string, defaultSeconds int) (time.Duration, error) {
	secs, err := getEnvInt(key, defaultSeconds)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs) * time.Second, nil
}
