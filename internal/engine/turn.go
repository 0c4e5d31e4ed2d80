package engine

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/tatianab/chaotic-adventures/internal/chance"
	"github.com/tatianab/chaotic-adventures/internal/models"
	"github.com/tatianab/chaotic-adventures/internal/prompts"
	"github.com/tatianab/chaotic-adventures/internal/tier"
)

// Outcome classifies the result of a turn.
type Outcome int

const (
	OutcomeContinue Outcome = iota
	OutcomeGameOver
	// OutcomeInvalidChoice means the index was out of range. Nothing changed.
	OutcomeInvalidChoice
	// OutcomeClosed means the game is already over.
	OutcomeClosed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeContinue:
		return "continue"
	case OutcomeGameOver:
		return "game_over"
	case OutcomeInvalidChoice:
		return "invalid_choice"
	case OutcomeClosed:
		return "closed"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

const (
	minChoices = 2
	maxChoices = 4

	invalidChoiceText = "Invalid choice. Please try again."
	closedText        = "This adventure is over. Ask for a summary or start a new one."
	gameOverText      = "Your adventure has come to an unexpected end!"
)

var defaultChoices = []string{"Continue the adventure", "Try something else"}

// TurnResult is what the player sees after Start or Resolve.
type TurnResult struct {
	Outcome Outcome
	// Text is the narrative with every notice of the turn appended.
	Text string
	// Narrative is the response to the choice alone.
	Narrative string
	Choice    string
	Choices   []string

	ChaoticEvent string
	Expired      []string
	Activated    *models.Modifier
	Award        *tier.Award

	// Memories referenced this turn, if any.
	ResponseMemory *models.MemoryRecord
	ChaoticMemory  *models.MemoryRecord
	ChoiceMemory   *models.MemoryRecord
}

// Resolve plays the choice at index. An out-of-range index yields
// OutcomeInvalidChoice and leaves the session untouched; after game over
// every call yields OutcomeClosed.
func (e *Engine) Resolve(ctx context.Context, index int) (TurnResult, error) {
	switch e.state {
	case StateStart:
		return TurnResult{}, ErrNotStarted
	case StateGameOver:
		return TurnResult{Outcome: OutcomeClosed, Text: closedText}, nil
	}

	s := e.session
	if index < 0 || index >= len(s.Choices) {
		return TurnResult{Outcome: OutcomeInvalidChoice, Text: invalidChoiceText, Choices: e.Choices()}, nil
	}
	choice := s.Choices[index]
	odds := e.catalog.Odds

	expired, _ := e.modifiers.Tick()
	res := TurnResult{Choice: choice, Expired: expired}

	memoryReference := ""
	if chance.Roll(e.rng, odds.MemoryReference) && len(s.PastMemories) > 0 {
		m := chance.Pick(e.rng, s.PastMemories)
		res.ResponseMemory = &m
		memoryReference = fmt.Sprintf("Reference this memory from a past adventure in your response:\n%s (from %s's adventure)", m.Text, m.Source())
	}

	gameOver := chance.Roll(e.rng, odds.GameOver)

	narrative, err := e.generate(ctx, prompts.ChoiceResponse, prompts.Vars{
		"player_name":      s.PlayerName,
		"choice":           choice,
		"previous_events":  s.RecentEvents(recentEvents),
		"chaos_level":      s.ChaosLevel,
		"active_buffs":     e.modifiers.Describe(),
		"memory_reference": memoryReference,
		"game_over":        gameOver,
	})
	if err != nil {
		return TurnResult{}, err
	}
	s.AppendEvent(models.StoryEvent{
		Kind:     models.EventPlayerChoice,
		Choice:   choice,
		Response: narrative,
		GameOver: gameOver,
		Memory:   res.ResponseMemory,
	})
	res.Narrative = narrative

	var text strings.Builder
	text.WriteString(narrative)

	if gameOver {
		s.AppendEvent(models.StoryEvent{Kind: models.EventGameOver, Text: gameOverText, Choice: choice})
		s.GameOver = true
		s.Choices = nil
		e.state = StateGameOver
		e.logger.Info("adventure ended", "session", s.ID, "final_choice", choice)

		text.WriteString("\n\nGAME OVER\n" + gameOverText)
		res.Outcome = OutcomeGameOver
		res.Text = text.String()
		return res, nil
	}

	if chance.Roll(e.rng, odds.ChaoticEvent) {
		event, mem, err := e.chaoticEvent(ctx)
		if err != nil {
			return TurnResult{}, err
		}
		res.ChaoticEvent, res.ChaoticMemory = event, mem
		text.WriteString("\n\n" + event)
	}

	if m, ok := e.modifiers.MaybeActivateRandom(); ok {
		res.Activated = &m
		fmt.Fprintf(&text, "\n\nNarrative Effect Activated: %s - %s!", m.Name, m.Description)
	}

	if chance.Roll(e.rng, odds.UpgradePoints) {
		points := odds.MinAward + e.rng.IntN(odds.MaxAward-odds.MinAward+1)
		award, err := e.tiers.AwardPoints(points)
		if err != nil {
			return TurnResult{}, fmt.Errorf("engine: %w", err)
		}
		res.Award = &award
		text.WriteString("\n\n" + e.awardNotice(award))
	}

	hint, err := e.regenerateChoices(ctx)
	if err != nil {
		return TurnResult{}, err
	}
	res.ChoiceMemory = hint
	res.Outcome = OutcomeContinue
	res.Text = text.String()
	res.Choices = e.Choices()
	return res, nil
}

func (e *Engine) awardNotice(a tier.Award) string {
	s := e.session
	if next := e.tiers.NextTier(); s.UpgradesAvailable > 0 && next != "" {
		return fmt.Sprintf("Model Upgrade Available! Your narrative model can be upgraded from %s to %s.", title(s.Tier), title(next))
	}
	plural := "s"
	if a.Points == 1 {
		plural = ""
	}
	if a.Threshold == 0 {
		return fmt.Sprintf("You earned %d model upgrade point%s! (%d points, highest tier reached)", a.Points, plural, a.Total)
	}
	return fmt.Sprintf("You earned %d model upgrade point%s! (%d/%d needed for next upgrade)", a.Points, plural, a.Total, a.Threshold)
}

// chaoticEvent generates an interruption, possibly built around a past
// memory, and logs it.
func (e *Engine) chaoticEvent(ctx context.Context) (string, *models.MemoryRecord, error) {
	s := e.session
	var used *models.MemoryRecord
	hint := ""
	if chance.Roll(e.rng, e.catalog.Odds.ChaoticMemory) && len(s.PastMemories) > 0 {
		m := chance.Pick(e.rng, s.PastMemories)
		used = &m
		hint = fmt.Sprintf("IMPORTANT: Your chaotic event should incorporate this element from a past adventure:\n%s (from %s's adventure)", m.Text, m.Source())
	}

	text, err := e.generate(ctx, prompts.ChaoticEvent, prompts.Vars{
		"player_name":          s.PlayerName,
		"previous_events":      s.RecentEvents(recentEvents),
		"chaos_level":          s.ChaosLevel,
		"active_buffs":         e.modifiers.Describe(),
		"memory_chaotic_event": hint,
	})
	if err != nil {
		return "", nil, err
	}
	s.AppendEvent(models.StoryEvent{Kind: models.EventChaotic, Text: text, Memory: used})
	return text, used, nil
}

// regenerateChoices replaces the session's choice list and returns the past
// memory the choices were asked to reference, if any.
func (e *Engine) regenerateChoices(ctx context.Context) (*models.MemoryRecord, error) {
	s := e.session
	var used *models.MemoryRecord
	hint := ""
	if chance.Roll(e.rng, e.catalog.Odds.ChoiceMemory) && len(s.PastMemories) > 0 {
		m := chance.Pick(e.rng, s.PastMemories)
		used = &m
		hint = "IMPORTANT: Include one choice that references this memory from a past adventure:\n" + m.Text
	}

	text, err := e.generate(ctx, prompts.GenerateChoices, prompts.Vars{
		"player_name":        s.PlayerName,
		"previous_events":    s.RecentEvents(recentEvents),
		"chaos_level":        s.ChaosLevel,
		"active_buffs":       e.modifiers.Describe(),
		"memory_choice_hint": hint,
	})
	if err != nil {
		return nil, err
	}
	s.Choices = ParseChoices(text)
	return used, nil
}

var listMarker = regexp.MustCompile(`^(?:\d+[.):]|[-*•])\s*`)

// ParseChoices turns generated text into 2-4 choices: one per non-empty line
// with list markers removed. Fewer than two yields the default pair; extra
// lines are dropped.
func ParseChoices(text string) []string {
	var choices []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Choice") {
			continue
		}
		line = strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		choices = append(choices, line)
	}
	switch {
	case len(choices) < minChoices:
		return append([]string(nil), defaultChoices...)
	case len(choices) > maxChoices:
		return choices[:maxChoices]
	}
	return choices
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
