// Package memory carries memorable elements across sessions: it extracts them
// from a finished session, persists them, and samples past ones into new
// sessions.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/tatianab/chaotic-adventures/internal/chance"
	"github.com/tatianab/chaotic-adventures/internal/models"
	"github.com/tatianab/chaotic-adventures/internal/prompts"
	"github.com/tatianab/chaotic-adventures/internal/provider"
)

// Sampling bounds.
const (
	MaxFiles      = 3
	MaxPerFile    = 2
	MaxSampled    = 5
	maxChoices    = 3
	maxChaotic    = 2
	unknownPlayer = "Unknown Adventurer"
)

// Record types.
const (
	TypeMemory   = "memory"
	TypeFallback = "fallback_memory"
)

// Generator produces text for a prompt. *provider.Chain satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string, params models.GenerationParams, shaper provider.Shaper) provider.Result
}

// SignificantEvents picks the events an extraction is based on: the
// introduction, at most three player choices (first, a random middle one and
// last when there are more than three) and up to two random chaotic events.
func SignificantEvents(s *models.Session, rng chance.Source) []models.StoryEvent {
	var out []models.StoryEvent
	if intro := s.EventsOfKind(models.EventIntro); len(intro) > 0 {
		out = append(out, intro[0])
	}

	choices := s.EventsOfKind(models.EventPlayerChoice)
	if len(choices) > maxChoices {
		choices = []models.StoryEvent{
			choices[0],
			chance.Pick(rng, choices[1:len(choices)-1]),
			choices[len(choices)-1],
		}
	}
	out = append(out, choices...)

	chaotic := s.EventsOfKind(models.EventChaotic)
	return append(out, chance.Sample(rng, chaotic, maxChaotic)...)
}

// Extract asks gen for the memorable elements of s and parses the numbered
// list it returns. When nothing parses it yields a single fallback record.
func Extract(ctx context.Context, s *models.Session, gen Generator, r *prompts.Renderer, rng chance.Source, params models.GenerationParams) ([]models.MemoryRecord, error) {
	prompt, err := r.Render(prompts.ExtractMemories, prompts.Vars{
		"player_name":        s.PlayerName,
		"chaos_level":        s.ChaosLevel,
		"significant_events": SignificantEvents(s, rng),
	})
	if err != nil {
		return []models.MemoryRecord{Fallback(s)}, fmt.Errorf("extract memories: %w", err)
	}

	res := gen.Generate(ctx, prompt, params, nil)
	records := ParseRecords(res.Text)
	if len(records) == 0 {
		records = []models.MemoryRecord{Fallback(s)}
	}
	return records, nil
}

// Fallback is the generic record used when extraction yields nothing.
func Fallback(s *models.Session) models.MemoryRecord {
	return models.MemoryRecord{
		Text: fmt.Sprintf("%s had an adventure with chaos level %d.", s.PlayerName, s.ChaosLevel),
		Type: TypeFallback,
	}
}

// ParseRecords splits a numbered list into records. A line opens a new record
// when it starts with a digit and has ". " within its first four bytes; any
// other line continues the open record. Text before the first item is
// dropped.
func ParseRecords(text string) []models.MemoryRecord {
	var (
		records []models.MemoryRecord
		current string
	)
	flush := func() {
		if current != "" {
			records = append(records, models.MemoryRecord{Text: current, Type: TypeMemory})
		}
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if unicode.IsDigit(rune(line[0])) && strings.Contains(line[:min(4, len(line))], ". ") {
			flush()
			current = line[strings.Index(line, ". ")+2:]
			continue
		}
		if current != "" {
			current += " " + line
		}
	}
	flush()
	return records
}

// Persist writes the memory file of s to store, stamping its end time. It
// reports whether the write succeeded.
func Persist(ctx context.Context, store Store, s *models.Session, logger *slog.Logger) bool {
	if logger == nil {
		logger = slog.Default()
	}
	s.EndTime = time.Now().UTC()
	f := models.MemoryFile{
		SessionID:         s.ID,
		PlayerName:        s.PlayerName,
		ChaosLevel:        s.ChaosLevel,
		MemorableElements: s.MemorableElements,
		StartTime:         s.StartTime,
		EndTime:           s.EndTime,
	}
	if err := store.Save(ctx, f); err != nil {
		logger.Warn("failed to persist memories", "session", s.ID, "error", err)
		return false
	}
	return true
}

// Sample draws attributed records from up to MaxFiles stored sessions, at
// most MaxPerFile from each, shuffled and capped at MaxSampled. Unreadable
// files are skipped.
func Sample(ctx context.Context, store Store, rng chance.Source, logger *slog.Logger) []models.MemoryRecord {
	if logger == nil {
		logger = slog.Default()
	}
	ids, err := store.List(ctx)
	if err != nil {
		logger.Warn("failed to list memories", "error", err)
		return nil
	}

	var out []models.MemoryRecord
	for _, id := range chance.Sample(rng, ids, MaxFiles) {
		f, err := store.Load(ctx, id)
		if err != nil {
			logger.Warn("skipping unreadable memory file", "session", id, "error", err)
			continue
		}
		attr := attribution(f)
		var usable []models.MemoryRecord
		for _, r := range f.MemorableElements {
			if r.Text != "" {
				usable = append(usable, r)
			}
		}
		for _, r := range chance.Sample(rng, usable, MaxPerFile) {
			a := attr
			r.Attribution = &a
			out = append(out, r)
		}
	}

	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if len(out) > MaxSampled {
		out = out[:MaxSampled]
	}
	return out
}

func attribution(f models.MemoryFile) models.Attribution {
	a := models.Attribution{PlayerName: f.PlayerName, SessionID: f.SessionID, Date: "unknown time"}
	if a.PlayerName == "" {
		a.PlayerName = unknownPlayer
	}
	if !f.EndTime.IsZero() {
		a.Date = f.EndTime.Format(time.RFC3339)
	}
	return a
}
