package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/openai/openai-go"
	oaioption "github.com/openai/openai-go/option"

	"github.com/tatianab/chaotic-adventures/internal/models"
)

const (
	DefaultOpenRouterURL   = "https://openrouter.ai/api/v1/"
	DefaultOpenRouterModel = "anthropic/claude-3.5-sonnet"

	storytellerPrompt = "You are a creative storyteller for 'Chaotic Adventures', a humorous text-based adventure game. " +
		"Generate engaging, slightly absurd, and entertaining narrative responses that advance the story in unexpected ways."
)

// openRouterModels is the catalog of models offered through OpenRouter.
var openRouterModels = []ModelInfo{
	{ID: "anthropic/claude-3.5-sonnet", Name: "Claude 3.5 Sonnet", Description: "Excellent creative writing", Tier: "master", CostPer1K: 0.003, MaxTokens: 8192, ContextLength: 200000, Quality: 5},
	{ID: "anthropic/claude-3-haiku", Name: "Claude 3 Haiku", Description: "Fast model for interactive storytelling", Tier: "enhanced", CostPer1K: 0.00025, MaxTokens: 4096, ContextLength: 200000, Quality: 4},
	{ID: "openai/gpt-4o", Name: "GPT-4o", Description: "Flagship model with strong narrative skills", Tier: "master", CostPer1K: 0.005, MaxTokens: 4096, ContextLength: 128000, Quality: 5},
	{ID: "openai/gpt-4o-mini", Name: "GPT-4o Mini", Description: "Fast and cost-effective story generation", Tier: "advanced", CostPer1K: 0.00015, MaxTokens: 16384, ContextLength: 128000, Quality: 4},
	{ID: "meta-llama/llama-3.1-70b-instruct", Name: "Llama 3.1 70B", Description: "Open model with creative storytelling", Tier: "advanced", CostPer1K: 0.0004, MaxTokens: 4096, ContextLength: 131072, Quality: 4},
	{ID: "google/gemini-pro-1.5", Name: "Gemini Pro 1.5", Description: "Strong creative capabilities", Tier: "advanced", CostPer1K: 0.00125, MaxTokens: 8192, ContextLength: 1000000, Quality: 4},
	{ID: "mistralai/mixtral-8x7b-instruct", Name: "Mixtral 8x7B", Description: "Mixture-of-experts with creative writing skills", Tier: "enhanced", CostPer1K: 0.00024, MaxTokens: 4096, ContextLength: 32768, Quality: 3},
	{ID: "qwen/qwen-2-72b-instruct", Name: "Qwen2 72B", Description: "Multilingual large model", Tier: "advanced", CostPer1K: 0.0004, MaxTokens: 4096, ContextLength: 131072, Quality: 4},
	{ID: "cohere/command-r-plus", Name: "Command R+", Description: "Strong reasoning capabilities", Tier: "advanced", CostPer1K: 0.003, MaxTokens: 4096, ContextLength: 128000, Quality: 4},
}

// OpenRouterConfig configures the OpenRouter provider.
type OpenRouterConfig struct {
	APIKey  string
	BaseURL string
	Model   string // explicit model; empty selects by tier
	SiteURL string
	AppName string
	// TierModels maps a tier name to the model used while no model has
	// been chosen explicitly.
	TierModels map[string]string
	Logger     *slog.Logger
}

// OpenRouter is a cloud multi-model provider reached through the
// OpenAI-compatible OpenRouter API.
type OpenRouter struct {
	client     openai.Client
	tierModels map[string]string
	logger     *slog.Logger

	mu       sync.Mutex
	model    string
	explicit bool
	usage    UsageStats
}

func NewOpenRouter(cfg OpenRouterConfig) (*OpenRouter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openrouter: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenRouterURL
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	opts := []oaioption.RequestOption{
		oaioption.WithAPIKey(cfg.APIKey),
		oaioption.WithBaseURL(cfg.BaseURL),
		oaioption.WithMaxRetries(0),
	}
	if cfg.SiteURL != "" {
		opts = append(opts, oaioption.WithHeader("HTTP-Referer", cfg.SiteURL))
	}
	if cfg.AppName != "" {
		opts = append(opts, oaioption.WithHeader("X-Title", cfg.AppName))
	}

	o := &OpenRouter{
		client:     openai.NewClient(opts...),
		tierModels: cfg.TierModels,
		logger:     cfg.Logger,
		model:      DefaultOpenRouterModel,
		usage:      UsageStats{Provider: "openrouter", PerModel: map[string]ModelUsage{}},
	}
	if cfg.Model != "" {
		if err := o.SwitchModel(cfg.Model); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *OpenRouter) Name() string { return "openrouter" }
func (o *OpenRouter) Kind() Kind   { return KindCloud }

func (o *OpenRouter) Generate(ctx context.Context, prompt string, params models.GenerationParams) (string, error) {
	info, ok := lookupModel(o.modelFor(params.Tier))
	if !ok {
		return "", fmt.Errorf("openrouter: %w", ErrUnknownModel)
	}

	maxTokens := params.MaxTokens
	if maxTokens <= 0 {
		maxTokens = min(1000, info.MaxTokens/2)
	}

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(info.ID),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(storytellerPrompt),
			openai.UserMessage(prompt),
		},
		MaxTokens:        openai.Int(int64(maxTokens)),
		Temperature:      openai.Float(params.Temperature),
		TopP:             openai.Float(params.TopP),
		FrequencyPenalty: openai.Float(params.FrequencyPenalty),
		PresencePenalty:  openai.Float(params.PresencePenalty),
	})
	if err != nil {
		return "", fmt.Errorf("openrouter: generate with %s: %w", info.ID, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openrouter: %w", ErrEmptyResponse)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("openrouter: %w", ErrEmptyResponse)
	}

	tokens := int(resp.Usage.TotalTokens)
	cost := float64(tokens) / 1000 * info.CostPer1K
	o.record(info.ID, tokens, cost)
	o.logger.Info("openrouter generation completed", "model", info.ID, "tokens", tokens, "cost", cost)
	return text, nil
}

func (o *OpenRouter) modelFor(tier string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.explicit {
		if m, ok := o.tierModels[tier]; ok {
			return m
		}
	}
	return o.model
}

func (o *OpenRouter) record(model string, tokens int, cost float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.usage.Requests++
	o.usage.Tokens += tokens
	o.usage.Cost += cost
	per := o.usage.PerModel[model]
	per.Requests++
	per.Tokens += tokens
	per.Cost += cost
	o.usage.PerModel[model] = per
}

func (o *OpenRouter) ListModels() []ModelInfo {
	return append([]ModelInfo(nil), openRouterModels...)
}

// SwitchModel pins the provider to id, overriding tier-based selection.
func (o *OpenRouter) SwitchModel(id string) error {
	if _, ok := lookupModel(id); !ok {
		return fmt.Errorf("openrouter: %w: %s", ErrUnknownModel, id)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.logger.Info("switched model", "from", o.model, "to", id)
	o.model = id
	o.explicit = true
	return nil
}

// Model returns the model used for the given tier.
func (o *OpenRouter) Model(tier string) string { return o.modelFor(tier) }

func (o *OpenRouter) EstimateCost(prompt string) float64 {
	o.mu.Lock()
	model := o.model
	o.mu.Unlock()
	info, ok := lookupModel(model)
	if !ok {
		return 0
	}
	return estimateTokens(prompt) / 1000 * info.CostPer1K
}

func (o *OpenRouter) Usage() UsageStats {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.usage
	out.PerModel = make(map[string]ModelUsage, len(o.usage.PerModel))
	for k, v := range o.usage.PerModel {
		out.PerModel[k] = v
	}
	if out.Requests > 0 {
		out.AverageCost = out.Cost / float64(out.Requests)
	}
	return out
}

func lookupModel(id string) (ModelInfo, bool) {
	for _, m := range openRouterModels {
		if m.ID == id {
			return m, true
		}
	}
	return ModelInfo{}, false
}
