package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/tatianab/chaotic-adventures/internal/models"
)

const DefaultGeminiModel = "gemini-2.5-flash"

var geminiModels = []ModelInfo{
	{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", Description: "Fast, balanced storytelling", Tier: "enhanced", CostPer1K: 0.0003, MaxTokens: 8192, ContextLength: 1000000, Quality: 4},
	{ID: "gemini-2.5-flash-lite", Name: "Gemini 2.5 Flash Lite", Description: "Cheapest option for quick turns", Tier: "basic", CostPer1K: 0.0001, MaxTokens: 8192, ContextLength: 1000000, Quality: 3},
	{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", Description: "Most capable Gemini model", Tier: "master", CostPer1K: 0.00125, MaxTokens: 8192, ContextLength: 1000000, Quality: 5},
}

// Gemini is a cloud provider backed by the Gemini API.
type Gemini struct {
	client *genai.Client

	mu    sync.Mutex
	model string
	usage UsageStats
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	g := &Gemini{client: client, model: DefaultGeminiModel, usage: UsageStats{Provider: "gemini", PerModel: map[string]ModelUsage{}}}
	if model != "" {
		if err := g.SwitchModel(model); err != nil {
			client.Close()
			return nil, err
		}
	}
	return g, nil
}

func (g *Gemini) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

func (g *Gemini) Name() string { return "gemini" }
func (g *Gemini) Kind() Kind   { return KindCloud }

func (g *Gemini) Generate(ctx context.Context, prompt string, params models.GenerationParams) (string, error) {
	g.mu.Lock()
	name := g.model
	g.mu.Unlock()

	// A GenerativeModel carries its own settings, so build one per call.
	model := g.client.GenerativeModel(name)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(storytellerPrompt)}}
	model.SetTemperature(float32(params.Temperature))
	model.SetTopP(float32(params.TopP))
	if params.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(params.MaxTokens))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini: generate with %s: %w", name, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}

	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	g.record(name, tokens)
	return text, nil
}

func (g *Gemini) record(model string, tokens int) {
	info, _ := lookupGeminiModel(model)
	cost := float64(tokens) / 1000 * info.CostPer1K

	g.mu.Lock()
	defer g.mu.Unlock()
	g.usage.Requests++
	g.usage.Tokens += tokens
	g.usage.Cost += cost
	per := g.usage.PerModel[model]
	per.Requests++
	per.Tokens += tokens
	per.Cost += cost
	g.usage.PerModel[model] = per
}

func (g *Gemini) ListModels() []ModelInfo {
	return append([]ModelInfo(nil), geminiModels...)
}

func (g *Gemini) SwitchModel(id string) error {
	if _, ok := lookupGeminiModel(id); !ok {
		return fmt.Errorf("gemini: %w: %s", ErrUnknownModel, id)
	}
	g.mu.Lock()
	g.model = id
	g.mu.Unlock()
	return nil
}

func (g *Gemini) Usage() UsageStats {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := g.usage
	out.PerModel = make(map[string]ModelUsage, len(g.usage.PerModel))
	for k, v := range g.usage.PerModel {
		out.PerModel[k] = v
	}
	if out.Requests > 0 {
		out.AverageCost = out.Cost / float64(out.Requests)
	}
	return out
}

func lookupGeminiModel(id string) (ModelInfo, bool) {
	for _, m := range geminiModels {
		if m.ID == id {
			return m, true
		}
	}
	return ModelInfo{}, false
}
