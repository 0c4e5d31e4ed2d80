// Package modifier manages the active narrative modifiers (buffs and debuffs)
// of a single session.
package modifier

import (
	"strings"

	"github.com/tatianab/chaotic-adventures/internal/chance"
	"github.com/tatianab/chaotic-adventures/internal/models"
	"github.com/tatianab/chaotic-adventures/internal/rules"
)

// Engine activates, decays and applies the modifiers of one session.
// It mutates only session.ActiveModifiers and session.StoryEvents.
type Engine struct {
	catalog *rules.Catalog
	session *models.Session
	rng     chance.Source
}

func NewEngine(catalog *rules.Catalog, session *models.Session, rng chance.Source) *Engine {
	return &Engine{catalog: catalog, session: session, rng: rng}
}

// Activate adds a fresh copy of the catalog entry key to the active set.
// It reports false when key is not in the catalog.
func (e *Engine) Activate(key string) (models.Modifier, bool) {
	spec, ok := e.catalog.Modifier(key)
	if !ok {
		return models.Modifier{}, false
	}
	m := spec.Instance()
	e.session.ActiveModifiers = append(e.session.ActiveModifiers, m)
	e.session.AppendEvent(models.StoryEvent{
		Kind:        models.EventModifierAdded,
		Modifier:    m.Name,
		Description: m.Description,
	})
	return m, true
}

// Tick decrements every active modifier and drops those that reach zero.
func (e *Engine) Tick() (expired, remaining []string) {
	var still []models.Modifier
	for _, m := range e.session.ActiveModifiers {
		m.Remaining--
		if m.Remaining > 0 {
			still = append(still, m)
			remaining = append(remaining, m.Name)
			continue
		}
		expired = append(expired, m.Name)
		e.session.AppendEvent(models.StoryEvent{Kind: models.EventModifierExpired, Modifier: m.Name})
	}
	e.session.ActiveModifiers = still
	return expired, remaining
}

// ApplyToPrompt appends each active directive to prompt in activation order.
func (e *Engine) ApplyToPrompt(prompt string) string {
	var b strings.Builder
	b.WriteString(prompt)
	for _, m := range e.session.ActiveModifiers {
		b.WriteString("\n\n")
		b.WriteString(m.Directive)
	}
	return b.String()
}

// ApplyToParams returns params adjusted by every active modifier. Buffs raise
// temperature and top-p; debuffs raise the frequency penalty. Effects stack.
func (e *Engine) ApplyToParams(params models.GenerationParams) models.GenerationParams {
	a := e.catalog.Activation
	for _, m := range e.session.ActiveModifiers {
		if m.IsBuff() {
			params.Temperature = min(a.TemperatureCap, params.Temperature+a.TemperatureStep*m.Strength)
			params.TopP = min(a.TopPCap, params.TopP+a.TopPStep*m.Strength)
		} else {
			params.FrequencyPenalty = min(a.PenaltyCap, params.FrequencyPenalty+a.PenaltyStep*m.Strength)
		}
	}
	return params
}

// MaybeActivateRandom rolls the chaos-scaled activation chance and, on
// success, activates a random inactive modifier of a rolled polarity.
func (e *Engine) MaybeActivateRandom() (models.Modifier, bool) {
	a := e.catalog.Activation
	level := e.session.ChaosLevel
	if !chance.Roll(e.rng, a.Chance(level)) {
		return models.Modifier{}, false
	}

	polarity := models.Debuff
	if chance.Roll(e.rng, a.BuffChance(level)) {
		polarity = models.Buff
	}

	var pool []string
	for _, spec := range e.catalog.Modifiers {
		if spec.Polarity == polarity && !e.session.HasActiveModifier(spec.Key) {
			pool = append(pool, spec.Key)
		}
	}
	if len(pool) == 0 {
		return models.Modifier{}, false
	}
	return e.Activate(chance.Pick(e.rng, pool))
}

// Describe renders the active set for prompt context.
func (e *Engine) Describe() string {
	if len(e.session.ActiveModifiers) == 0 {
		return "No special narrative effects active."
	}
	lines := make([]string, 0, len(e.session.ActiveModifiers))
	for _, m := range e.session.ActiveModifiers {
		lines = append(lines, m.Name+": "+m.Description)
	}
	return "Active narrative effects:\n" + strings.Join(lines, "\n")
}
