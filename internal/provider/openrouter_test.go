package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tatianab/chaotic-adventures/internal/models"
)

const completionBody = `{
  "id": "gen-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "%s",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": " The teapot sneezes. "}}],
  "usage": {"prompt_tokens": 1000, "completion_tokens": 1000, "total_tokens": 2000}
}`

type chatRequest struct {
	Model     string  `json:"model"`
	MaxTokens int     `json:"max_tokens"`
	TopP      float64 `json:"top_p"`
	Messages  []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newOpenRouterServer(t *testing.T, seen *[]chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s, want /chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("X-Title"); got != "Chaotic Adventures" {
			t.Errorf("X-Title = %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		*seen = append(*seen, req)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, completionBody, req.Model)
	}))
}

func newTestOpenRouter(t *testing.T, url string) *OpenRouter {
	t.Helper()
	o, err := NewOpenRouter(OpenRouterConfig{
		APIKey:  "test-key",
		BaseURL: url,
		AppName: "Chaotic Adventures",
		TierModels: map[string]string{
			"basic":  "anthropic/claude-3-haiku",
			"master": "anthropic/claude-3.5-sonnet",
		},
		Logger: quietLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return o
}

func TestOpenRouterGenerate(t *testing.T) {
	var seen []chatRequest
	srv := newOpenRouterServer(t, &seen)
	defer srv.Close()
	o := newTestOpenRouter(t, srv.URL)

	text, err := o.Generate(context.Background(), "Task: intro", models.GenerationParams{Tier: "basic", MaxTokens: 800, TopP: 0.9})
	if err != nil {
		t.Fatal(err)
	}
	if text != "The teapot sneezes." {
		t.Errorf("text = %q", text)
	}
	if len(seen) != 1 {
		t.Fatalf("requests = %d, want 1", len(seen))
	}
	req := seen[0]
	if req.Model != "anthropic/claude-3-haiku" || req.MaxTokens != 800 || req.TopP != 0.9 {
		t.Errorf("request = %+v", req)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Content != "Task: intro" {
		t.Errorf("messages = %+v", req.Messages)
	}

	u := o.Usage()
	if u.Requests != 1 || u.Tokens != 2000 {
		t.Errorf("Usage() = %+v", u)
	}
	if want := 2 * 0.00025; math.Abs(u.Cost-want) > 1e-12 || math.Abs(u.AverageCost-want) > 1e-12 {
		t.Errorf("cost = %v avg %v, want %v", u.Cost, u.AverageCost, want)
	}
	if got := u.PerModel["anthropic/claude-3-haiku"].Requests; got != 1 {
		t.Errorf("per-model requests = %d, want 1", got)
	}
}

func TestOpenRouterTierSelection(t *testing.T) {
	var seen []chatRequest
	srv := newOpenRouterServer(t, &seen)
	defer srv.Close()
	o := newTestOpenRouter(t, srv.URL)

	o.Generate(context.Background(), "p", models.GenerationParams{Tier: "master"})
	if err := o.SwitchModel("openai/gpt-4o-mini"); err != nil {
		t.Fatal(err)
	}
	o.Generate(context.Background(), "p", models.GenerationParams{Tier: "master"})

	if seen[0].Model != "anthropic/claude-3.5-sonnet" {
		t.Errorf("tier model = %s", seen[0].Model)
	}
	if seen[1].Model != "openai/gpt-4o-mini" {
		t.Errorf("switched model = %s, want explicit choice to win", seen[1].Model)
	}
}

func TestOpenRouterSwitchUnknown(t *testing.T) {
	o := newTestOpenRouter(t, "http://unused")
	if err := o.SwitchModel("acme/does-not-exist"); !errors.Is(err, ErrUnknownModel) {
		t.Errorf("SwitchModel() err = %v, want ErrUnknownModel", err)
	}
	if got := o.Model("basic"); got != "anthropic/claude-3-haiku" {
		t.Errorf("Model(basic) = %s after failed switch", got)
	}
}

func TestOpenRouterRequiresKey(t *testing.T) {
	if _, err := NewOpenRouter(OpenRouterConfig{}); err == nil {
		t.Error("NewOpenRouter() without key succeeded")
	}
}

func TestOpenRouterServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	o := newTestOpenRouter(t, srv.URL)
	if _, err := o.Generate(context.Background(), "p", models.GenerationParams{Tier: "basic"}); err == nil {
		t.Error("Generate() succeeded against a failing server")
	}
	if got := o.Usage().Requests; got != 0 {
		t.Errorf("failed request counted in usage: %d", got)
	}
}

func TestOpenRouterEstimateCost(t *testing.T) {
	o := newTestOpenRouter(t, "http://unused")
	// Default model costs 0.003 per 1K tokens; 10 words estimate to 213 tokens.
	got := o.EstimateCost("one two three four five six seven eight nine ten")
	if want := 213.0 / 1000 * 0.003; math.Abs(got-want) > 1e-12 {
		t.Errorf("EstimateCost() = %v, want %v", got, want)
	}
	if n := len(o.ListModels()); n != len(openRouterModels) {
		t.Errorf("ListModels() = %d models", n)
	}
}
