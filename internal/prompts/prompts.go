// Package prompts assembles the text prompts sent to the generation layer and
// sanitizes text on its way to a provider.
package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/tatianab/chaotic-adventures/internal/models"
)

//go:embed templates/*.txt
var templateFS embed.FS

// Kind names a prompt template.
type Kind string

const (
	Intro            Kind = "intro"
	GenerateChoices  Kind = "generate_choices"
	ChoiceResponse   Kind = "choice_response"
	ChaoticEvent     Kind = "chaotic_event"
	AdventureSummary Kind = "adventure_summary"
	GameOverSummary  Kind = "game_over_summary"
	ExtractMemories  Kind = "extract_memories"
)

// Kinds lists every template kind.
var Kinds = []Kind{Intro, GenerateChoices, ChoiceResponse, ChaoticEvent, AdventureSummary, GameOverSummary, ExtractMemories}

var (
	ErrUnknownKind     = errors.New("unknown prompt kind")
	ErrMissingVariable = errors.New("missing prompt variable")
)

// Vars are the values substituted into a template.
type Vars map[string]any

// Renderer renders the embedded templates.
type Renderer struct {
	templates map[Kind]*template.Template
}

// NewRenderer parses every embedded template.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[Kind]*template.Template, len(Kinds))}
	funcs := template.FuncMap{"events": FormatEvents}
	for _, kind := range Kinds {
		name := "templates/" + string(kind) + ".txt"
		tmpl, err := template.New(string(kind)+".txt").
			Funcs(funcs).
			Option("missingkey=error").
			ParseFS(templateFS, name)
		if err != nil {
			return nil, fmt.Errorf("parse prompt %s: %w", kind, err)
		}
		r.templates[kind] = tmpl
	}
	return r, nil
}

// Render fills the template kind with vars.
func (r *Renderer) Render(kind Kind, vars Vars) (string, error) {
	tmpl, ok := r.templates[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]any(vars)); err != nil {
		if strings.Contains(err.Error(), "no entry for key") {
			return "", fmt.Errorf("%w for %s: %v", ErrMissingVariable, kind, err)
		}
		return "", fmt.Errorf("render prompt %s: %w", kind, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// FormatEvents renders story events as prompt context, one line per fact.
func FormatEvents(events []models.StoryEvent) string {
	var lines []string
	for _, e := range events {
		switch e.Kind {
		case models.EventIntro:
			lines = append(lines, "Introduction: "+e.Text)
		case models.EventPlayerChoice:
			lines = append(lines, "Player chose: "+e.Choice, "Result: "+e.Response)
		case models.EventChaotic:
			lines = append(lines, "Chaotic event: "+e.Text)
		case models.EventModifierAdded:
			lines = append(lines, "Narrative effect began: "+e.Modifier)
		case models.EventModifierExpired:
			lines = append(lines, "Narrative effect faded: "+e.Modifier)
		case models.EventTierUpgraded:
			lines = append(lines, fmt.Sprintf("The narrator improved from %s to %s", e.OldTier, e.NewTier))
		default:
			if e.Text != "" {
				lines = append(lines, e.Text)
			}
		}
	}
	return strings.Join(lines, "\n")
}
