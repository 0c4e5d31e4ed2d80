package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tatianab/chaotic-adventures/internal/models"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}

	var buffs, debuffs int
	for _, m := range c.Modifiers {
		if m.Polarity == models.Buff {
			buffs++
		} else {
			debuffs++
		}
		if m.Strength < 0.5 || m.Strength > 2.0 {
			t.Errorf("%s: strength %v out of bounds", m.Key, m.Strength)
		}
	}
	if buffs == 0 || debuffs == 0 {
		t.Errorf("expected both buffs and debuffs, got %d/%d", buffs, debuffs)
	}

	wantTiers := []string{"basic", "enhanced", "advanced", "master"}
	if len(c.Tiers) != len(wantTiers) {
		t.Fatalf("expected %d tiers, got %d", len(wantTiers), len(c.Tiers))
	}
	for i, name := range wantTiers {
		if c.Tiers[i].Name != name {
			t.Errorf("tier %d: expected %s, got %s", i, name, c.Tiers[i].Name)
		}
	}
	if th := c.Tiers[0].Threshold; th != 5 {
		t.Errorf("expected basic threshold 5, got %d", th)
	}
	if _, ok := c.NextTier("master"); ok {
		t.Error("expected no tier after master")
	}
	if p := c.Params("advanced"); p.MaxTokens != 1200 || p.Temperature != 0.85 {
		t.Errorf("unexpected advanced params %+v", p)
	}
}

func TestActivationChances(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	a := c.Activation
	if got := a.Chance(10); got < 0.399 || got > 0.401 {
		t.Errorf("expected 0.4 at chaos 10, got %v", got)
	}
	if got := a.BuffChance(10); got < 0.399 || got > 0.401 {
		t.Errorf("expected buff chance 0.4 at chaos 10, got %v", got)
	}
	if got := a.Chance(0); got != 0.1 {
		t.Errorf("expected base chance 0.1, got %v", got)
	}
}

func TestParseClampsStrength(t *testing.T) {
	doc := `
modifiers:
  - {key: a, name: A, polarity: buff, duration: 1, strength: 9}
  - {key: b, name: B, polarity: debuff, duration: 1, strength: 0.1}
tiers:
  - {name: only}
odds: {min_award: 1, max_award: 2}
`
	c, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Modifiers[0].Strength != 2.0 || c.Modifiers[1].Strength != 0.5 {
		t.Errorf("expected clamped strengths, got %v and %v", c.Modifiers[0].Strength, c.Modifiers[1].Strength)
	}
}

func TestParseRejectsInvalidCatalogs(t *testing.T) {
	tests := map[string]string{
		"duplicate key":     "modifiers: [{key: a, polarity: buff, duration: 1}, {key: a, polarity: buff, duration: 1}]\ntiers: [{name: x}]\nodds: {min_award: 1, max_award: 1}",
		"bad polarity":      "modifiers: [{key: a, polarity: neutral, duration: 1}]\ntiers: [{name: x}]\nodds: {min_award: 1, max_award: 1}",
		"zero duration":     "modifiers: [{key: a, polarity: buff, duration: 0}]\ntiers: [{name: x}]\nodds: {min_award: 1, max_award: 1}",
		"no tiers":          "odds: {min_award: 1, max_award: 1}",
		"final threshold":   "tiers: [{name: x, threshold: 3}]\nodds: {min_award: 1, max_award: 1}",
		"missing threshold": "tiers: [{name: x}, {name: y}]\nodds: {min_award: 1, max_award: 1}",
		"bad award":         "tiers: [{name: x}]\nodds: {min_award: 0, max_award: 1}",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, defaultRules, 0644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Modifiers) == 0 {
		t.Error("expected modifiers")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil || !strings.Contains(err.Error(), "read rules") {
		t.Errorf("expected read error, got %v", err)
	}
}
