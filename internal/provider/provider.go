// Package provider is the text-generation layer: a closed set of backends
// (cloud, local, mock) behind one interface, and a Chain that tries them in
// order until one succeeds.
package provider

import (
	"context"
	"errors"

	"github.com/tatianab/chaotic-adventures/internal/models"
)

// Kind is the variant of a provider.
type Kind string

const (
	KindCloud Kind = "cloud"
	KindLocal Kind = "local"
	KindMock  Kind = "mock"
)

var (
	ErrUnknownModel  = errors.New("unknown model")
	ErrEmptyResponse = errors.New("empty response")
)

// Provider generates text for a prompt.
type Provider interface {
	Name() string
	Kind() Kind
	Generate(ctx context.Context, prompt string, params models.GenerationParams) (string, error)
}

// ModelInfo describes a model a provider can serve.
type ModelInfo struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Tier          string  `json:"tier"`
	CostPer1K     float64 `json:"cost_per_1k"`
	MaxTokens     int     `json:"max_tokens"`
	ContextLength int     `json:"context_length"`
	Quality       int     `json:"quality"`
}

// ModelUsage is per-model usage accounting.
type ModelUsage struct {
	Requests int     `json:"requests"`
	Tokens   int     `json:"tokens"`
	Cost     float64 `json:"cost"`
}

// UsageStats summarises what a provider has consumed.
type UsageStats struct {
	Provider    string                `json:"provider"`
	Requests    int                   `json:"total_requests"`
	Tokens      int                   `json:"total_tokens"`
	Cost        float64               `json:"total_cost"`
	AverageCost float64               `json:"average_cost_per_request"`
	PerModel    map[string]ModelUsage `json:"model_usage,omitempty"`
}

// Optional capabilities. A provider advertises one by implementing it.
type (
	ModelLister interface {
		ListModels() []ModelInfo
	}
	ModelSwitcher interface {
		SwitchModel(id string) error
	}
	CostEstimator interface {
		EstimateCost(prompt string) float64
	}
	UsageReporter interface {
		Usage() UsageStats
	}
)

// Capabilities describes which optional capabilities a provider supports.
type Capabilities struct {
	ListModels   bool `json:"supports_model_listing"`
	SwitchModel  bool `json:"supports_model_switching"`
	EstimateCost bool `json:"supports_cost_estimation"`
	Usage        bool `json:"supports_usage_tracking"`
}

// CapabilitiesOf reports the optional capabilities p implements.
func CapabilitiesOf(p Provider) Capabilities {
	_, list := p.(ModelLister)
	_, sw := p.(ModelSwitcher)
	_, cost := p.(CostEstimator)
	_, usage := p.(UsageReporter)
	return Capabilities{ListModels: list, SwitchModel: sw, EstimateCost: cost, Usage: usage}
}

// estimateTokens is a rough word-based token estimate of a prompt plus an
// average response.
func estimateTokens(prompt string) float64 {
	words := 0
	inWord := false
	for _, r := range prompt {
		space := r == ' ' || r == '\n' || r == '\t' || r == '\r'
		if !space && !inWord {
			words++
		}
		inWord = !space
	}
	return float64(words)*1.3 + 200
}
