package engine

import (
	"context"
	"strings"

	"github.com/tatianab/chaotic-adventures/internal/memory"
	"github.com/tatianab/chaotic-adventures/internal/models"
	"github.com/tatianab/chaotic-adventures/internal/prompts"
)

// Summary is the result of Summarize.
type Summary struct {
	Text     string
	Memories []models.MemoryRecord
	// Persisted reports whether the memories reached the store. It is false
	// when there is no store.
	Persisted bool
}

// Summarize extracts and persists the session's memorable elements, once,
// then narrates a summary. gameOver selects the epitaph flavour; finalChoice
// defaults to the last choice played.
func (e *Engine) Summarize(ctx context.Context, gameOver bool, finalChoice string) (Summary, error) {
	if e.session == nil {
		return Summary{}, ErrNotStarted
	}
	s := e.session

	if !e.extracted {
		records, err := memory.Extract(ctx, s, e.gen, e.renderer, e.rng, e.tiers.Params())
		if err != nil {
			e.logger.Warn("memory extraction degraded", "session", s.ID, "error", err)
		}
		s.MemorableElements = records
		e.extracted = true
	}

	var out Summary
	out.Memories = s.MemorableElements
	if e.store != nil {
		out.Persisted = memory.Persist(ctx, e.store, s, e.logger)
	} else {
		s.EndTime = e.now().UTC()
	}

	vars := prompts.Vars{
		"player_name":       s.PlayerName,
		"story_events":      s.StoryEvents,
		"chaos_level":       s.ChaosLevel,
		"encountered_buffs": encounteredText(s.EncounteredModifiers()),
	}
	kind := prompts.AdventureSummary
	if gameOver {
		kind = prompts.GameOverSummary
		vars["final_choice"] = finalChoiceOf(s, finalChoice)
	}
	text, err := e.generate(ctx, kind, vars)
	if err != nil {
		return Summary{}, err
	}
	out.Text = text
	return out, nil
}

func encounteredText(names []string) string {
	if len(names) == 0 {
		return "No special narrative effects were encountered."
	}
	return "Narrative effects encountered: " + strings.Join(names, ", ")
}

func finalChoiceOf(s *models.Session, given string) string {
	if given != "" {
		return given
	}
	if choices := s.EventsOfKind(models.EventPlayerChoice); len(choices) > 0 {
		return choices[len(choices)-1].Choice
	}
	return "Unknown choice"
}
