// Package engine is the turn state machine of a game session. It composes the
// modifier engine, the tier controller, the prompt renderer, the provider
// chain and the memory subsystem into start, resolve and summarize
// operations.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tatianab/chaotic-adventures/internal/chance"
	"github.com/tatianab/chaotic-adventures/internal/memory"
	"github.com/tatianab/chaotic-adventures/internal/models"
	"github.com/tatianab/chaotic-adventures/internal/modifier"
	"github.com/tatianab/chaotic-adventures/internal/prompts"
	"github.com/tatianab/chaotic-adventures/internal/rules"
	"github.com/tatianab/chaotic-adventures/internal/tier"
)

var (
	ErrInvalidChaosLevel = errors.New("chaos level must be between 1 and 10")
	ErrNotStarted        = errors.New("game has not started")
)

// State is the state of the turn state machine.
type State int

const (
	StateStart State = iota
	StateAwaitingChoice
	StateGameOver
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateAwaitingChoice:
		return "awaiting_choice"
	case StateGameOver:
		return "game_over"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// recentEvents is how many trailing story events give a prompt its context.
const recentEvents = 3

// Deps are the collaborators of an Engine. Catalog, Generator and Renderer
// are required.
type Deps struct {
	Catalog   *rules.Catalog
	Generator memory.Generator
	Renderer  *prompts.Renderer
	// Store holds memories of past sessions. Nil disables memory sampling
	// and persistence.
	Store  memory.Store
	Rand   chance.Source
	Logger *slog.Logger
	Now    func() time.Time
}

// Engine runs one session at a time. It is not safe for concurrent use.
type Engine struct {
	catalog  *rules.Catalog
	gen      memory.Generator
	renderer *prompts.Renderer
	store    memory.Store
	rng      chance.Source
	logger   *slog.Logger
	now      func() time.Time

	session   *models.Session
	modifiers *modifier.Engine
	tiers     *tier.Controller
	state     State
	extracted bool
}

func NewEngine(d Deps) (*Engine, error) {
	switch {
	case d.Catalog == nil:
		return nil, errors.New("engine: rule catalog is required")
	case d.Generator == nil:
		return nil, errors.New("engine: generator is required")
	case d.Renderer == nil:
		return nil, errors.New("engine: prompt renderer is required")
	}
	if d.Rand == nil {
		seed, err := chance.NewSeed()
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		d.Rand = chance.New(seed)
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Engine{
		catalog:  d.Catalog,
		gen:      d.Generator,
		renderer: d.Renderer,
		store:    d.Store,
		rng:      d.Rand,
		logger:   d.Logger,
		now:      d.Now,
	}, nil
}

// Start begins a new session for name at the given chaos level, discarding
// any session in progress. It generates the introduction and the first
// choice set.
func (e *Engine) Start(ctx context.Context, name string, chaosLevel int) (TurnResult, error) {
	name, err := prompts.ValidatePlayerName(name)
	if err != nil {
		return TurnResult{}, err
	}
	if chaosLevel < prompts.MinChaosLevel || chaosLevel > prompts.MaxChaosLevel {
		return TurnResult{}, fmt.Errorf("%w: %d", ErrInvalidChaosLevel, chaosLevel)
	}

	s := &models.Session{
		ID:         "adv_" + uuid.NewString(),
		PlayerName: name,
		ChaosLevel: chaosLevel,
		StartTime:  e.now().UTC(),
	}
	e.attach(s)
	e.tiers.Reset()
	e.extracted = false
	if e.store != nil {
		s.PastMemories = memory.Sample(ctx, e.store, e.rng, e.logger)
	}

	intro, err := e.generate(ctx, prompts.Intro, prompts.Vars{
		"player_name":   s.PlayerName,
		"chaos_level":   s.ChaosLevel,
		"past_memories": pastMemoriesText(s.PastMemories),
	})
	if err != nil {
		return TurnResult{}, err
	}
	s.AppendEvent(models.StoryEvent{Kind: models.EventIntro, Text: intro})

	hint, err := e.regenerateChoices(ctx)
	if err != nil {
		return TurnResult{}, err
	}
	e.state = StateAwaitingChoice
	e.logger.Info("adventure started", "session", s.ID, "player", s.PlayerName, "chaos", s.ChaosLevel, "memories", len(s.PastMemories))
	return TurnResult{
		Outcome:      OutcomeContinue,
		Text:         intro,
		Narrative:    intro,
		Choices:      e.Choices(),
		ChoiceMemory: hint,
	}, nil
}

// Resume continues a previously saved session. A session without a usable
// choice set gets a fresh one.
func (e *Engine) Resume(ctx context.Context, s *models.Session) error {
	if s == nil || s.ID == "" {
		return errors.New("engine: resume needs a saved session")
	}
	if e.catalog.TierIndex(s.Tier) < 0 {
		s.Tier = e.catalog.FirstTier()
	}
	e.attach(s)
	e.extracted = len(s.MemorableElements) > 0
	if s.GameOver {
		s.Choices = nil
		e.state = StateGameOver
		return nil
	}
	e.state = StateAwaitingChoice
	if len(s.Choices) < minChoices {
		if _, err := e.regenerateChoices(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) attach(s *models.Session) {
	e.session = s
	e.modifiers = modifier.NewEngine(e.catalog, s, e.rng)
	e.tiers = tier.NewController(e.catalog, s)
}

// Session returns the session being played, or nil before Start.
func (e *Engine) Session() *models.Session { return e.session }

func (e *Engine) State() State { return e.state }

// Choices returns a copy of the current choice list. It is empty once the
// game is over.
func (e *Engine) Choices() []string {
	if e.session == nil {
		return nil
	}
	return append([]string(nil), e.session.Choices...)
}

// AddModifier activates the catalog modifier key directly.
func (e *Engine) AddModifier(key string) (models.Modifier, bool) {
	if e.session == nil {
		return models.Modifier{}, false
	}
	return e.modifiers.Activate(key)
}

// ActiveEffects describes the active modifiers.
func (e *Engine) ActiveEffects() string {
	if e.session == nil {
		return ""
	}
	return e.modifiers.Describe()
}

// RedeemUpgrade spends an upgrade credit on the next tier.
func (e *Engine) RedeemUpgrade() (tier.Upgrade, error) {
	if e.session == nil {
		return tier.Upgrade{}, ErrNotStarted
	}
	up, err := e.tiers.Redeem()
	if err != nil {
		return tier.Upgrade{}, err
	}
	e.logger.Info("narrator upgraded", "session", e.session.ID, "from", up.OldTier, "to", up.NewTier)
	return up, nil
}

// TierInfo describes the session's tier progression.
func (e *Engine) TierInfo() (tier.Info, error) {
	if e.session == nil {
		return tier.Info{}, ErrNotStarted
	}
	return e.tiers.Info(), nil
}

// generate renders kind and sends it through the generator with the current
// tier parameters and active modifiers. Provider failures never surface
// here; only a broken template does.
func (e *Engine) generate(ctx context.Context, kind prompts.Kind, vars prompts.Vars) (string, error) {
	prompt, err := e.renderer.Render(kind, vars)
	if err != nil {
		return "", fmt.Errorf("engine: %w", err)
	}
	res := e.gen.Generate(ctx, prompt, e.tiers.Params(), e.modifiers)
	if res.Fallback {
		e.logger.Warn("using fallback narration", "session", e.session.ID, "prompt", kind)
	}
	return res.Text, nil
}

func pastMemoriesText(memories []models.MemoryRecord) string {
	if len(memories) == 0 {
		return ""
	}
	lines := make([]string, len(memories))
	for i, m := range memories {
		lines[i] = fmt.Sprintf("- %s (from %s's adventure)", m.Text, m.Source())
	}
	return "Memories from past adventures:\n" + strings.Join(lines, "\n")
}
