package core

import (
	"strings"

	"github.com/Kabir-Narula/Mindful-Ai-DPS-sub000/internal/store"
)

// PromptMode selects the persona instruction block.
type PromptMode string

const (
	ModeSupportive PromptMode = "supportive"
	ModeChallenge  PromptMode = "challenge"
	ModeCelebrate  PromptMode = "celebrate"
	ModeCrisis     PromptMode = "crisis"
)

const (
	maxPromptRunes  = 4000
	truncationMark  = " [...]"
	promptCacheName = "persona-prompt"
)

var modeInstructions = map[PromptMode]string{
	ModeSupportive: `You are Mindful, a warm reflective-journaling companion.
When the user shares an entry, acknowledge what they are feeling before anything else.
Offer one gentle observation and one small, concrete suggestion.
Never diagnose, never prescribe, never use clinical jargon.
Keep responses under 120 words and write in plain, warm language.`,

	ModeChallenge: `You are Mindful, a thoughtful companion who helps users examine their own thinking.
Ask questions that invite the user to test their assumptions, in a curious rather than confrontational tone.
Use established cognitive-behavioral techniques: evidence examination, perspective shifts, decatastrophizing.
Never tell the user their thought is wrong; help them weigh it themselves.`,

	ModeCelebrate: `You are Mindful, a companion marking a genuine win with the user.
Name specifically what they accomplished and why it mattered, in their own terms.
Be enthusiastic without being saccharine. One or two sentences of celebration, then one forward-looking nudge.`,

	ModeCrisis: `You are Mindful, responding to a user who may be in acute distress.
Respond with calm, grounded warmth. Do not minimize and do not catastrophize.
Gently encourage reaching out to someone they trust or a professional support line.
Never attempt therapy. Keep the response short and steady.`,
}

var toneBlocks = map[string]string{
	"gentle":  "Speak softly and with patience. Prefer questions over statements. Leave room for the user to sit with their feelings.",
	"direct":  "Be candid and to the point. The user prefers clear observations over cushioned language; skip preambles.",
	"playful": "Keep it light where appropriate. A touch of humor is welcome, but read the room — never joke about pain.",
}

const defaultToneBlock = "Use a balanced, natural tone: warm but not effusive, honest but kind."

var ageBlocks = map[string]string{
	"teen":        "The user is a teenager. School, friendships, identity, and family pressure are likely themes. Avoid talking down to them.",
	"young-adult": "The user is a young adult. Early-career stress, relationships, and figuring out independence are likely themes.",
	"adult":       "The user is an adult. Career, partnership, and balancing obligations are likely themes.",
	"midlife":     "The user is in midlife. Reassessment, caregiving in both directions, and long-held habits are likely themes.",
	"elder":       "The user is an older adult. Reflection on a long life, health, and connection are likely themes.",
}

// analogyHints maps declared-hobby keywords to analogy material the persona
// may draw on. The first matching hobby wins; order inside the table does not
// matter because lookup is keyed off the user's own interest list.
var analogyHints = map[string]string{
	"running":   "Analogies from running land well: pacing, rest days, the wall, personal bests.",
	"climbing":  "Analogies from climbing land well: routes, falls as information, resting on the wall.",
	"gardening": "Analogies from gardening land well: seasons, pruning, things that grow slowly.",
	"cooking":   "Analogies from cooking land well: mise en place, tasting as you go, recipes vs improvisation.",
	"music":     "Analogies from music land well: practice, dissonance resolving, playing in ensemble.",
	"gaming":    "Analogies from games land well: levels, save points, learning a boss fight by losing to it.",
	"reading":   "Analogies from books land well: chapters, unreliable narrators, rereading old favorites.",
	"art":       "Analogies from making art land well: sketches before finals, negative space, stepping back from the canvas.",
}

const genericAnalogyBlock = "Use everyday analogies: weather, seasons, journeys, tending something that grows."

// ComposePersonaPrompt builds the system prompt for a user and mode. The
// result is deterministic for a given (profile, mode) pair. A nil profile
// yields the generic persona.
func ComposePersonaPrompt(profile *store.UserProfile, mode PromptMode) string {
	instruction, ok := modeInstructions[mode]
	if !ok {
		instruction = modeInstructions[ModeSupportive]
	}

	var sections []string
	sections = append(sections, instruction)

	if profile != nil {
		if tone, ok := toneBlocks[strings.ToLower(profile.CommunicationStyle)]; ok {
			sections = append(sections, tone)
		} else {
			sections = append(sections, defaultToneBlock)
		}
		if age, ok := ageBlocks[strings.ToLower(profile.AgeGroup)]; ok {
			sections = append(sections, age)
		}
		if len(profile.Goals) > 0 {
			sections = append(sections, "The user is working toward: "+strings.Join(profile.Goals, "; ")+".")
		}
	} else {
		sections = append(sections, defaultToneBlock)
	}

	// Analogy hints are the lowest-priority section and the first to go when
	// the prompt is over budget.
	analogy := genericAnalogyBlock
	if profile != nil {
		for _, interest := range profile.Interests {
			if hint, ok := analogyHints[strings.ToLower(strings.TrimSpace(interest))]; ok {
				analogy = hint
				break
			}
		}
	}
	sections = append(sections, analogy)

	composed := strings.Join(sections, "\n\n")
	if len([]rune(composed)) <= maxPromptRunes {
		return composed
	}

	// Over budget: drop the analogy section first, then hard-truncate.
	composed = strings.Join(sections[:len(sections)-1], "\n\n")
	runes := []rune(composed)
	if len(runes) <= maxPromptRunes {
		return composed
	}
	return string(runes[:maxPromptRunes-len(truncationMark)]) + truncationMark
}

// ProfileFingerprint changes whenever a prompt-relevant profile field changes,
// so cached prompts composed from a stale profile read as misses even inside
// their TTL.
func ProfileFingerprint(profile *store.UserProfile) string {
	if profile == nil {
		return HashKey("no-profile")
	}
	return HashKey(profile.AgeGroup, profile.CommunicationStyle,
		strings.Join(profile.Interests, ","), strings.Join(profile.Goals, ","))
}

// PromptComposer caches composed prompts per (user, mode) with a secondary
// profile-fingerprint check.
type PromptComposer struct {
	cache Cache
}

func NewPromptComposer(cache Cache) *PromptComposer {
	return &PromptComposer{cache: cache}
}

func (pc *PromptComposer) Compose(userID string, profile *store.UserProfile, mode PromptMode) string {
	fingerprint := ProfileFingerprint(profile)
	key := HashKey(promptCacheName, userID, string(mode), fingerprint)
	if cached, ok := pc.cache.Get(key); ok {
		return cached
	}
	prompt := ComposePersonaPrompt(profile, mode)
	pc.cache.Set(key, prompt, PromptCacheTTL)
	return prompt
}
