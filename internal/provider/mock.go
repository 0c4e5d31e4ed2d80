package provider

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/tatianab/chaotic-adventures/internal/models"
)

// Mock is a deterministic provider that never fails. Its responses depend
// only on the prompt's task header and the requested tier.
type Mock struct {
	requests atomic.Int64
}

func NewMock() *Mock { return &Mock{} }

func (m *Mock) Name() string { return "mock" }
func (m *Mock) Kind() Kind   { return KindMock }

func (m *Mock) Generate(_ context.Context, prompt string, params models.GenerationParams) (string, error) {
	m.requests.Add(1)
	task := taskOf(prompt)
	lines, ok := mockResponses[task]
	if !ok {
		return "The universe hiccups and something unexpected happens, leaving a faint taste of cinnamon in the air.", nil
	}
	text := lines[0]
	if params.Tier == "advanced" || params.Tier == "master" {
		text = lines[1]
	}
	return text, nil
}

func (m *Mock) Usage() UsageStats {
	n := int(m.requests.Load())
	return UsageStats{Provider: m.Name(), Requests: n, Tokens: n * 100}
}

// taskOf extracts the value of the "Task:" header a rendered prompt starts with.
func taskOf(prompt string) string {
	lower := strings.ToLower(prompt)
	i := strings.Index(lower, "task:")
	if i < 0 {
		return ""
	}
	fields := strings.Fields(lower[i+len("task:"):])
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// mockResponses maps a task to its plain and its elaborate response.
var mockResponses = map[string][2]string{
	"intro": {
		"Welcome to the Whimsical Woods! Strange things happen here, and your adventure is about to begin in the most unexpected ways.",
		"Welcome to the Whimsical Woods, where reality bends like a pretzel in a philosopher's hands! The ancient trees lean in to whisper secrets that sound suspiciously like backwards grocery lists, and a squirrel in tiny spectacles consults a map made of pressed petals.",
	},
	"generate_choices": {
		"1. Follow the glowing mushrooms deeper into the woods\n2. Climb the nearest tree to get a better view\n3. Strike up a conversation with a suspiciously articulate squirrel",
		"1. Follow the phosphorescent mushrooms performing a silent waltz\n2. Scale the oak whose branches rearrange themselves invitingly\n3. Ask the bespectacled squirrel about its botanical cartography\n4. Investigate the brook that flows uphill",
	},
	"choice_response": {
		"Your choice leads to unexpected consequences as the story takes another chaotic turn!",
		"Your decision ripples through the fabric of this peculiar reality like a pebble thrown into a pond of liquid starlight, and the forest applauds politely.",
	},
	"chaotic_event": {
		"Suddenly, a burst of colorful butterflies erupts from a nearby bush and spells out your name in the air.",
		"Without warning the sky turns violet and it rains walnut-sized rubber ducks, one of which whispers stock tips before dissolving into maple syrup.",
	},
	"adventure_summary": {
		"You explored the Whimsical Woods, met some strange phenomena, and made it back with quite a tale to tell.",
		"In what future anthropologists will call the most extraordinary Tuesday on record, you befriended dancing fungi, took investment advice from precipitation, and left with syrup in your hair.",
	},
	"game_over_summary": {
		"Your adventure ended abruptly, but the woods will remember your courage, and your questionable choices.",
		"Here lies a brave adventurer, undone by a single bold decision. The mushrooms hold a small, glowing vigil in your honour.",
	},
	"extract_memories": {
		"1. A squirrel wearing tiny spectacles who studies maps made of flower petals\n2. Glowing mushrooms that dance in formation when watched\n3. A rain of rubber ducks that whisper stock tips",
		"1. A bespectacled squirrel cartographer whose maps are pressed petals and morning dew\n2. A troupe of phosphorescent mushrooms performing mathematically precise waltzes\n3. Walnut-sized rubber ducks that rain from violet skies and dissolve into maple syrup\n4. A brook that flows uphill and ties itself into elegant knots",
	},
}
