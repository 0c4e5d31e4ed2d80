package prompts

import (
	"errors"
	"strings"
	"testing"

	"github.com/tatianab/chaotic-adventures/internal/models"
)

func TestRenderEveryKind(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	events := []models.StoryEvent{
		{Kind: models.EventIntro, Text: "A teapot."},
		{Kind: models.EventPlayerChoice, Choice: "Climb", Response: "You climb."},
	}
	vars := Vars{
		"player_name":          "Ann",
		"chaos_level":          7,
		"past_memories":        "",
		"previous_events":      events,
		"story_events":         events,
		"significant_events":   events,
		"active_buffs":         "No special narrative effects active.",
		"memory_choice_hint":   "",
		"memory_reference":     "",
		"memory_chaotic_event": "",
		"choice":               "Climb",
		"game_over":            false,
		"encountered_buffs":    "",
		"final_choice":         "Climb",
	}
	for _, kind := range Kinds {
		got, err := r.Render(kind, vars)
		if err != nil {
			t.Fatalf("render %s: %v", kind, err)
		}
		if !strings.HasPrefix(got, "Task: "+string(kind)) {
			t.Errorf("%s: expected task header, got %q", kind, got[:min(40, len(got))])
		}
		if !strings.Contains(got, "Ann") {
			t.Errorf("%s: expected player name in prompt", kind)
		}
	}
}

func TestRenderErrors(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if _, err := r.Render("limerick", Vars{}); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
	if _, err := r.Render(Intro, Vars{"player_name": "Ann"}); !errors.Is(err, ErrMissingVariable) {
		t.Errorf("expected ErrMissingVariable, got %v", err)
	}
}

func TestFormatEvents(t *testing.T) {
	got := FormatEvents([]models.StoryEvent{
		{Kind: models.EventIntro, Text: "Hello"},
		{Kind: models.EventPlayerChoice, Choice: "Run", Response: "You run."},
		{Kind: models.EventChaotic, Text: "Ducks fall."},
	})
	want := "Introduction: Hello\nPlayer chose: Run\nResult: You run.\nChaotic event: Ducks fall."
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSanitize(t *testing.T) {
	tests := map[string]struct{ in, want string }{
		"collapses whitespace": {in: "  hello \n\n  world\t", want: "hello world"},
		"strips script":        {in: `say <script src="x">hi`, want: "say hi"},
		"strips handlers":      {in: `a onclick= b`, want: "a b"},
		"strips js urls":       {in: "go JavaScript:alert(1)", want: "go alert(1)"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}

	long := strings.Repeat("a", MaxPromptLength+100)
	if got := Sanitize(long); len(got) != MaxPromptLength {
		t.Errorf("expected truncation to %d, got %d", MaxPromptLength, len(got))
	}
}

func TestValidatePlayerName(t *testing.T) {
	if got, err := ValidatePlayerName("  Ann O'Neil "); err != nil || got != "Ann O'Neil" {
		t.Errorf("expected trimmed valid name, got %q, %v", got, err)
	}
	for _, bad := range []string{"", "   ", strings.Repeat("x", 51), "<b>Ann</b>", "Ann;drop"} {
		if _, err := ValidatePlayerName(bad); !errors.Is(err, ErrInvalidPlayerName) {
			t.Errorf("%q: expected ErrInvalidPlayerName, got %v", bad, err)
		}
	}
}
