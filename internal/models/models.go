package models

import "time"

// EventKind identifies the kind of entry in a session's story log.
type EventKind string

const (
	EventIntro            EventKind = "intro"
	EventPlayerChoice     EventKind = "player_choice"
	EventChaotic          EventKind = "chaotic_event"
	EventModifierAdded    EventKind = "buff_added"
	EventModifierExpired  EventKind = "buff_expired"
	EventUpgradeAvailable EventKind = "upgrade_available"
	EventTierUpgraded     EventKind = "model_upgraded"
	EventGameOver         EventKind = "game_over"
)

// StoryEvent is a single entry in the append-only story log.
type StoryEvent struct {
	Kind        EventKind     `json:"type"`
	Text        string        `json:"text,omitempty"`
	Choice      string        `json:"choice,omitempty"`
	Response    string        `json:"response,omitempty"`
	GameOver    bool          `json:"game_over,omitempty"`
	Modifier    string        `json:"buff,omitempty"`
	Description string        `json:"description,omitempty"`
	Tier        string        `json:"tier,omitempty"`     // tier the event refers to, e.g. the tier an upgrade is available from
	NextTier    string        `json:"next_tier,omitempty"`
	OldTier     string        `json:"old_tier,omitempty"`
	NewTier     string        `json:"new_tier,omitempty"`
	Memory      *MemoryRecord `json:"memory_reference,omitempty"`
}

// Polarity tells whether a modifier is a buff or a debuff.
type Polarity string

const (
	Buff   Polarity = "buff"
	Debuff Polarity = "debuff"
)

// Modifier is an active narrative modifier instance owned by a session.
type Modifier struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Directive   string   `json:"prompt_modifier"`
	Polarity    Polarity `json:"polarity"`
	Duration    int      `json:"duration"`
	Remaining   int      `json:"turns_remaining"`
	Strength    float64  `json:"strength"`
}

func (m Modifier) IsBuff() bool { return m.Polarity == Buff }

// Attribution ties a sampled memory back to the adventure it came from.
type Attribution struct {
	PlayerName string `json:"player_name"`
	SessionID  string `json:"session_id"`
	Date       string `json:"date"`
}

// MemoryRecord is a memorable element extracted from a finished session.
type MemoryRecord struct {
	Text        string       `json:"text"`
	Type        string       `json:"type"`
	Attribution *Attribution `json:"attribution,omitempty"`
}

// Source returns the name of the player the memory is attributed to.
func (r MemoryRecord) Source() string {
	if r.Attribution == nil || r.Attribution.PlayerName == "" {
		return "someone"
	}
	return r.Attribution.PlayerName
}

// MemoryFile is the persisted form of one finished session's memories.
type MemoryFile struct {
	SessionID         string         `json:"session_id"`
	PlayerName        string         `json:"player_name"`
	ChaosLevel        int            `json:"chaos_level"`
	MemorableElements []MemoryRecord `json:"memorable_elements"`
	StartTime         time.Time      `json:"start_time"`
	EndTime           time.Time      `json:"end_time"`
}

// GenerationParams are the sampling settings sent to a provider.
type GenerationParams struct {
	Tier             string  `json:"tier"`
	MaxTokens        int     `json:"max_tokens"`
	Temperature      float64 `json:"temperature"`
	TopP             float64 `json:"top_p"`
	FrequencyPenalty float64 `json:"frequency_penalty"`
	PresencePenalty  float64 `json:"presence_penalty"`
}

// Session aggregates all state of one play-through.
type Session struct {
	ID                string         `json:"session_id"`
	PlayerName        string         `json:"player_name"`
	ChaosLevel        int            `json:"chaos_level"`
	StoryEvents       []StoryEvent   `json:"story_events"`
	ActiveModifiers   []Modifier     `json:"buffs"`
	MemorableElements []MemoryRecord `json:"memorable_elements"`
	PastMemories      []MemoryRecord `json:"past_memories"`
	StartTime         time.Time      `json:"start_time"`
	EndTime           time.Time      `json:"end_time,omitzero"`
	Tier              string         `json:"model_tier"`
	UpgradePoints     int            `json:"model_upgrade_points"`
	UpgradesAvailable int            `json:"upgrades_available"`
	Choices           []string       `json:"choices,omitempty"`
	GameOver          bool           `json:"game_over,omitempty"`
}

// AppendEvent adds an event to the end of the story log.
func (s *Session) AppendEvent(e StoryEvent) {
	s.StoryEvents = append(s.StoryEvents, e)
}

// EventsOfKind returns the events of the given kind in log order.
func (s *Session) EventsOfKind(kind EventKind) []StoryEvent {
	var out []StoryEvent
	for _, e := range s.StoryEvents {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// RecentEvents returns at most the last n events.
func (s *Session) RecentEvents(n int) []StoryEvent {
	if len(s.StoryEvents) <= n {
		return s.StoryEvents
	}
	return s.StoryEvents[len(s.StoryEvents)-n:]
}

// HasActiveModifier reports whether the catalog entry key is currently active.
func (s *Session) HasActiveModifier(key string) bool {
	for _, m := range s.ActiveModifiers {
		if m.Key == key {
			return true
		}
	}
	return false
}

// EncounteredModifiers lists distinct modifier names activated during the session.
func (s *Session) EncounteredModifiers() []string {
	seen := make(map[string]bool)
	var names []string
	for _, e := range s.StoryEvents {
		if e.Kind != EventModifierAdded || e.Modifier == "" || seen[e.Modifier] {
			continue
		}
		seen[e.Modifier] = true
		names = append(names, e.Modifier)
	}
	return names
}
