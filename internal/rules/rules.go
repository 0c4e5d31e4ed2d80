// Package rules holds the immutable game rule catalog: narrative modifiers,
// the tier ladder, and the probability constants of a turn.
//
// A Catalog is loaded once at startup and shared read-only by every session.
package rules

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tatianab/chaotic-adventures/internal/models"
)

//go:embed rules.yaml
var defaultRules []byte

const (
	minStrength = 0.5
	maxStrength = 2.0
)

// ModifierSpec is a catalog entry for a narrative modifier.
type ModifierSpec struct {
	Key         string          `yaml:"key"`
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Directive   string          `yaml:"directive"`
	Polarity    models.Polarity `yaml:"polarity"`
	Duration    int             `yaml:"duration"`
	Strength    float64         `yaml:"strength"`
}

// Instance returns a fresh active copy of the entry.
func (s ModifierSpec) Instance() models.Modifier {
	return models.Modifier{
		Key:         s.Key,
		Name:        s.Name,
		Description: s.Description,
		Directive:   s.Directive,
		Polarity:    s.Polarity,
		Duration:    s.Duration,
		Remaining:   s.Duration,
		Strength:    s.Strength,
	}
}

// TierSpec is one rung of the tier ladder.
type TierSpec struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Threshold   int        `yaml:"threshold"` // zero on the final tier
	Model       string     `yaml:"model"`     // preferred cloud model for this tier
	Params      TierParams `yaml:"params"`
}

// TierParams are the generation settings of a tier.
type TierParams struct {
	MaxTokens        int     `yaml:"max_tokens"`
	Temperature      float64 `yaml:"temperature"`
	TopP             float64 `yaml:"top_p"`
	FrequencyPenalty float64 `yaml:"frequency_penalty"`
	PresencePenalty  float64 `yaml:"presence_penalty"`
}

// Odds are the per-turn probabilities of the turn state machine.
type Odds struct {
	MemoryReference float64 `yaml:"memory_reference"`
	GameOver        float64 `yaml:"game_over"`
	ChaoticEvent    float64 `yaml:"chaotic_event"`
	ChaoticMemory   float64 `yaml:"chaotic_memory"`
	ChoiceMemory    float64 `yaml:"choice_memory"`
	UpgradePoints   float64 `yaml:"upgrade_points"`
	MinAward        int     `yaml:"min_award"`
	MaxAward        int     `yaml:"max_award"`
}

// Activation governs random modifier activation and parameter mutation.
type Activation struct {
	BaseChance      float64 `yaml:"base_chance"`
	ChaosChance     float64 `yaml:"chaos_chance"`
	BuffBase        float64 `yaml:"buff_base"`
	BuffChaos       float64 `yaml:"buff_chaos"`
	TemperatureStep float64 `yaml:"temperature_step"`
	TopPStep        float64 `yaml:"top_p_step"`
	PenaltyStep     float64 `yaml:"penalty_step"`
	TemperatureCap  float64 `yaml:"temperature_cap"`
	TopPCap         float64 `yaml:"top_p_cap"`
	PenaltyCap      float64 `yaml:"penalty_cap"`
}

// Chance returns the probability that a random modifier activates this turn.
func (a Activation) Chance(chaosLevel int) float64 {
	return a.BaseChance + float64(chaosLevel)/10*a.ChaosChance
}

// BuffChance returns the probability that an activated modifier is a buff.
func (a Activation) BuffChance(chaosLevel int) float64 {
	return a.BuffBase - float64(chaosLevel)/10*a.BuffChaos
}

// Catalog is the full rule set.
type Catalog struct {
	Modifiers  []ModifierSpec `yaml:"modifiers"`
	Tiers      []TierSpec     `yaml:"tiers"`
	Odds       Odds           `yaml:"odds"`
	Activation Activation     `yaml:"activation"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultRules)
}

// Load reads a catalog from path, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	seen := make(map[string]bool)
	for i := range c.Modifiers {
		m := &c.Modifiers[i]
		if m.Key == "" {
			return fmt.Errorf("modifier %d has no key", i)
		}
		if seen[m.Key] {
			return fmt.Errorf("duplicate modifier %q", m.Key)
		}
		seen[m.Key] = true
		if m.Polarity != models.Buff && m.Polarity != models.Debuff {
			return fmt.Errorf("modifier %q: unknown polarity %q", m.Key, m.Polarity)
		}
		if m.Duration < 1 {
			return fmt.Errorf("modifier %q: duration must be positive", m.Key)
		}
		m.Strength = min(max(m.Strength, minStrength), maxStrength)
	}

	if len(c.Tiers) == 0 {
		return errors.New("no tiers defined")
	}
	names := make(map[string]bool)
	for i, t := range c.Tiers {
		if t.Name == "" || names[t.Name] {
			return fmt.Errorf("tier %d: missing or duplicate name %q", i, t.Name)
		}
		names[t.Name] = true
		last := i == len(c.Tiers)-1
		if !last && t.Threshold < 1 {
			return fmt.Errorf("tier %q: threshold must be positive", t.Name)
		}
		if last && t.Threshold != 0 {
			return fmt.Errorf("final tier %q must not have a threshold", t.Name)
		}
	}

	if c.Odds.MinAward < 1 || c.Odds.MaxAward < c.Odds.MinAward {
		return fmt.Errorf("invalid award range [%d, %d]", c.Odds.MinAward, c.Odds.MaxAward)
	}
	return nil
}

// Modifier returns the catalog entry for key.
func (c *Catalog) Modifier(key string) (ModifierSpec, bool) {
	for _, m := range c.Modifiers {
		if m.Key == key {
			return m, true
		}
	}
	return ModifierSpec{}, false
}

// TierIndex returns the position of the named tier, or -1.
func (c *Catalog) TierIndex(name string) int {
	for i, t := range c.Tiers {
		if t.Name == name {
			return i
		}
	}
	return -1
}

// Tier returns the named tier.
func (c *Catalog) Tier(name string) (TierSpec, bool) {
	if i := c.TierIndex(name); i >= 0 {
		return c.Tiers[i], true
	}
	return TierSpec{}, false
}

// NextTier returns the tier after name, if any.
func (c *Catalog) NextTier(name string) (TierSpec, bool) {
	i := c.TierIndex(name)
	if i < 0 || i+1 >= len(c.Tiers) {
		return TierSpec{}, false
	}
	return c.Tiers[i+1], true
}

// Params returns the generation parameters of the named tier. Unknown names
// fall back to the first tier.
func (c *Catalog) Params(name string) models.GenerationParams {
	t, ok := c.Tier(name)
	if !ok {
		t = c.Tiers[0]
	}
	return models.GenerationParams{
		Tier:             t.Name,
		MaxTokens:        t.Params.MaxTokens,
		Temperature:      t.Params.Temperature,
		TopP:             t.Params.TopP,
		FrequencyPenalty: t.Params.FrequencyPenalty,
		PresencePenalty:  t.Params.PresencePenalty,
	}
}

// FirstTier is the tier every session starts at.
func (c *Catalog) FirstTier() string { return c.Tiers[0].Name }

// TierModels maps tier names to their preferred cloud model.
func (c *Catalog) TierModels() map[string]string {
	out := make(map[string]string, len(c.Tiers))
	for _, t := range c.Tiers {
		if t.Model != "" {
			out[t.Name] = t.Model
		}
	}
	return out
}
