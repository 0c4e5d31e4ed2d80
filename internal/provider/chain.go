package provider

import (
	"context"
	"log/slog"
	"time"

	"github.com/tatianab/chaotic-adventures/internal/models"
)

// FallbackText is returned when every provider in a chain fails.
const FallbackText = "The narrator pauses, gathering their thoughts before continuing this chaotic tale..."

// DefaultTimeout bounds a single provider attempt.
const DefaultTimeout = 30 * time.Second

// Shaper rewrites a prompt and its parameters before generation, e.g. to apply
// the active narrative modifiers of a session.
type Shaper interface {
	ApplyToPrompt(prompt string) string
	ApplyToParams(params models.GenerationParams) models.GenerationParams
}

// Attempt records one failed provider call.
type Attempt struct {
	Provider string
	Err      error
}

// Result is the outcome of Chain.Generate.
type Result struct {
	Text     string
	Provider string    // provider that produced Text, empty when Fallback is set
	Fallback bool      // every provider failed and Text is FallbackText
	Failures []Attempt // providers that failed before Text was produced
}

// Chain holds a primary provider and ordered fallbacks. It is safe for
// concurrent use when its providers are.
type Chain struct {
	primary   Provider
	fallbacks []Provider
	timeout   time.Duration
	sanitize  func(string) string
	logger    *slog.Logger
}

type ChainOption func(*Chain)

func WithTimeout(d time.Duration) ChainOption {
	return func(c *Chain) { c.timeout = d }
}

func WithSanitizer(fn func(string) string) ChainOption {
	return func(c *Chain) { c.sanitize = fn }
}

func WithLogger(l *slog.Logger) ChainOption {
	return func(c *Chain) { c.logger = l }
}

func NewChain(primary Provider, fallbacks []Provider, opts ...ChainOption) *Chain {
	c := &Chain{
		primary:   primary,
		fallbacks: fallbacks,
		timeout:   DefaultTimeout,
		sanitize:  func(s string) string { return s },
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate sanitizes prompt, applies shaper (may be nil), and asks the primary
// provider once, then each fallback once in order. It never returns an error:
// if every provider fails the result carries FallbackText.
func (c *Chain) Generate(ctx context.Context, prompt string, params models.GenerationParams, shaper Shaper) Result {
	prompt = c.sanitize(prompt)
	if shaper != nil {
		prompt = shaper.ApplyToPrompt(prompt)
		params = shaper.ApplyToParams(params)
	}

	var res Result
	for i, p := range c.providers() {
		text, err := c.attempt(ctx, p, prompt, params)
		if err == nil {
			res.Text = text
			res.Provider = p.Name()
			return res
		}
		res.Failures = append(res.Failures, Attempt{Provider: p.Name(), Err: err})
		if i == 0 {
			c.logger.Warn("primary provider failed", "provider", p.Name(), "error", err)
		} else {
			c.logger.Warn("fallback provider failed", "provider", p.Name(), "error", err)
		}
	}

	c.logger.Error("all providers failed", "attempts", len(res.Failures))
	res.Text = FallbackText
	res.Fallback = true
	return res
}

func (c *Chain) attempt(ctx context.Context, p Provider, prompt string, params models.GenerationParams) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return p.Generate(ctx, prompt, params)
}

func (c *Chain) providers() []Provider {
	return append([]Provider{c.primary}, c.fallbacks...)
}

// Primary returns the primary provider.
func (c *Chain) Primary() Provider { return c.primary }

// ListModels lists the primary provider's models, or nil when unsupported.
func (c *Chain) ListModels() []ModelInfo {
	if l, ok := c.primary.(ModelLister); ok {
		return l.ListModels()
	}
	return nil
}

// SwitchModel reports whether the primary provider switched to id.
func (c *Chain) SwitchModel(id string) bool {
	s, ok := c.primary.(ModelSwitcher)
	if !ok {
		return false
	}
	if err := s.SwitchModel(id); err != nil {
		c.logger.Warn("switch model failed", "provider", c.primary.Name(), "model", id, "error", err)
		return false
	}
	return true
}

// EstimateCost estimates the primary provider's cost for prompt, or zero.
func (c *Chain) EstimateCost(prompt string) float64 {
	if e, ok := c.primary.(CostEstimator); ok {
		return e.EstimateCost(prompt)
	}
	return 0
}

// UsageStats returns the primary provider's usage, or a zero value.
func (c *Chain) UsageStats() UsageStats {
	if u, ok := c.primary.(UsageReporter); ok {
		return u.Usage()
	}
	return UsageStats{}
}

// Info describes the chain's configuration.
type Info struct {
	Provider     string       `json:"provider"`
	Kind         Kind         `json:"type"`
	Fallbacks    []string     `json:"fallbacks"`
	Capabilities Capabilities `json:"capabilities"`
}

func (c *Chain) Info() Info {
	names := make([]string, len(c.fallbacks))
	for i, f := range c.fallbacks {
		names[i] = f.Name()
	}
	return Info{
		Provider:     c.primary.Name(),
		Kind:         c.primary.Kind(),
		Fallbacks:    names,
		Capabilities: CapabilitiesOf(c.primary),
	}
}
