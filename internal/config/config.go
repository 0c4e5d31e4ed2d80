// Package config loads the game configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/tatianab/chaotic-adventures/internal/prompts"
	"github.com/tatianab/chaotic-adventures/internal/provider"
)

// Config holds the application configuration.
type Config struct {
	Provider string `env:"GAME_PROVIDER" envDefault:"mock"`

	OpenRouterAPIKey  string `env:"OPENROUTER_API_KEY"`
	OpenRouterModel   string `env:"OPENROUTER_MODEL"`
	OpenRouterBaseURL string `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1/"`
	OpenRouterSiteURL string `env:"OPENROUTER_SITE_URL"`
	OpenRouterAppName string `env:"OPENROUTER_APP_NAME" envDefault:"Chaotic Adventures"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL"`

	OllamaURL   string `env:"LLM_API_URL" envDefault:"http://localhost:11434/api/generate"`
	OllamaModel string `env:"OLLAMA_MODEL" envDefault:"llama3"`

	GenerationTimeout time.Duration `env:"GENERATION_TIMEOUT" envDefault:"30s"`

	MemoryBackend string `env:"MEMORY_BACKEND" envDefault:"file"`
	MemoryDir     string `env:"MEMORY_DIR" envDefault:"adventure_memories"`
	MemoryDBPath  string `env:"MEMORY_DB_PATH" envDefault:"adventure_memories.db"`
	SaveDir       string `env:"SAVE_DIR" envDefault:"saves"`

	RulesFile string `env:"RULES_FILE"`
	Seed      int64  `env:"GAME_SEED"`
	LogFile   string `env:"GAME_LOG_FILE" envDefault:"chaotic-adventures.log"`
}

// LoadConfig loads and validates the configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected provider and memory backend are usable.
func (c *Config) Validate() error {
	var errs []error
	switch c.Provider {
	case "openrouter":
		if c.OpenRouterAPIKey == "" {
			errs = append(errs, errors.New("OPENROUTER_API_KEY environment variable is not set"))
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY environment variable is not set"))
		}
	case "ollama", "mock":
	default:
		errs = append(errs, fmt.Errorf("unknown GAME_PROVIDER %q", c.Provider))
	}
	switch c.MemoryBackend {
	case "file", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unknown MEMORY_BACKEND %q", c.MemoryBackend))
	}
	if c.GenerationTimeout <= 0 {
		errs = append(errs, errors.New("GENERATION_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// ProviderSettings maps the configuration onto the provider chain settings.
// tierModels chooses the OpenRouter model per narrative tier.
func (c *Config) ProviderSettings(tierModels map[string]string) provider.Settings {
	return provider.Settings{
		Primary:         c.Provider,
		OpenRouterKey:   c.OpenRouterAPIKey,
		OpenRouterURL:   c.OpenRouterBaseURL,
		OpenRouterModel: c.OpenRouterModel,
		SiteURL:         c.OpenRouterSiteURL,
		AppName:         c.OpenRouterAppName,
		TierModels:      tierModels,
		GeminiKey:       c.GeminiAPIKey,
		GeminiModel:     c.GeminiModel,
		OllamaURL:       c.OllamaURL,
		OllamaModel:     c.OllamaModel,
		Timeout:         c.GenerationTimeout,
		Sanitize:        prompts.Sanitize,
	}
}
