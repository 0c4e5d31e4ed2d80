package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Settings selects and configures the providers of a chain.
type Settings struct {
	Primary string // "openrouter", "gemini", "ollama" or "mock"

	OpenRouterKey   string
	OpenRouterURL   string
	OpenRouterModel string
	SiteURL         string
	AppName         string
	TierModels      map[string]string

	GeminiKey   string
	GeminiModel string

	OllamaURL   string
	OllamaModel string

	Timeout  time.Duration
	Sanitize func(string) string
}

// Build assembles a chain whose primary provider is named by s.Primary.
// A primary that cannot be constructed is logged and replaced by the mock.
// Fallbacks are the local provider (unless it is the primary) followed by
// the mock.
func Build(ctx context.Context, s Settings, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}

	primary, err := newPrimary(ctx, s, logger)
	if err != nil {
		logger.Warn("primary provider unavailable, using mock", "provider", s.Primary, "error", err)
		primary = NewMock()
	}

	var fallbacks []Provider
	if primary.Kind() != KindLocal {
		fallbacks = append(fallbacks, NewOllama(s.OllamaURL, s.OllamaModel))
	}
	if primary.Kind() != KindMock {
		fallbacks = append(fallbacks, NewMock())
	}

	opts := []ChainOption{WithLogger(logger)}
	if s.Timeout > 0 {
		opts = append(opts, WithTimeout(s.Timeout))
	}
	if s.Sanitize != nil {
		opts = append(opts, WithSanitizer(s.Sanitize))
	}
	c := NewChain(primary, fallbacks, opts...)
	logger.Info("provider chain ready", "primary", primary.Name(), "fallbacks", len(fallbacks))
	return c
}

func newPrimary(ctx context.Context, s Settings, logger *slog.Logger) (Provider, error) {
	switch s.Primary {
	case "", "openrouter":
		return NewOpenRouter(OpenRouterConfig{
			APIKey:     s.OpenRouterKey,
			BaseURL:    s.OpenRouterURL,
			Model:      s.OpenRouterModel,
			SiteURL:    s.SiteURL,
			AppName:    s.AppName,
			TierModels: s.TierModels,
			Logger:     logger,
		})
	case "gemini":
		return NewGemini(ctx, s.GeminiKey, s.GeminiModel)
	case "ollama":
		return NewOllama(s.OllamaURL, s.OllamaModel), nil
	case "mock":
		return NewMock(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", s.Primary)
	}
}
