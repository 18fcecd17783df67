package core

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/Kabir-Narula/Mindful-Ai-DPS-sub000/internal/store"
)

func testProfile() *store.UserProfile {
	return &store.UserProfile{
		UserID:             "user-1",
		AgeGroup:           "teen",
		CommunicationStyle: "direct",
		Interests:          []string{"Running", "chess"},
		Goals:              []string{"sleep earlier"},
	}
}

func TestComposePersonaPromptDeterministic(t *testing.T) {
	profile := testProfile()
	assert.Equal(t,
		ComposePersonaPrompt(profile, ModeSupportive),
		ComposePersonaPrompt(profile, ModeSupportive))
}

func TestComposePersonaPromptSections(t *testing.T) {
	prompt := ComposePersonaPrompt(testProfile(), ModeSupportive)

	assert.Contains(t, prompt, toneBlocks["direct"])
	assert.Contains(t, prompt, ageBlocks["teen"])
	assert.Contains(t, prompt, analogyHints["running"]) // first matching interest wins
	assert.Contains(t, prompt, "sleep earlier")
}

func TestComposePersonaPromptNilProfile(t *testing.T) {
	prompt := ComposePersonaPrompt(nil, ModeSupportive)

	assert.Contains(t, prompt, defaultToneBlock)
	assert.Contains(t, prompt, genericAnalogyBlock)
}

func TestComposePersonaPromptUnknownModeAndStyle(t *testing.T) {
	profile := testProfile()
	profile.CommunicationStyle = "telepathic"

	prompt := ComposePersonaPrompt(profile, PromptMode("soothing"))
	assert.Contains(t, prompt, modeInstructions[ModeSupportive])
	assert.Contains(t, prompt, defaultToneBlock)
}

func TestComposePersonaPromptModes(t *testing.T) {
	for _, mode := range []PromptMode{ModeSupportive, ModeChallenge, ModeCelebrate, ModeCrisis} {
		prompt := ComposePersonaPrompt(nil, mode)
		assert.Contains(t, prompt, modeInstructions[mode])
	}
}

func TestComposePersonaPromptTruncation(t *testing.T) {
	profile := testProfile()
	profile.Goals = []string{strings.Repeat("a very long goal ", 400)}

	prompt := ComposePersonaPrompt(profile, ModeSupportive)

	assert.LessOrEqual(t, utf8.RuneCountInString(prompt), maxPromptRunes)
	// The analogy section is dropped before anything is cut mid-sentence.
	assert.NotContains(t, prompt, analogyHints["running"])
	assert.True(t, strings.HasSuffix(prompt, truncationMark))
}

func TestProfileFingerprint(t *testing.T) {
	a := testProfile()
	b := testProfile()
	assert.Equal(t, ProfileFingerprint(a), ProfileFingerprint(b))

	b.Interests = append(b.Interests, "gardening")
	assert.NotEqual(t, ProfileFingerprint(a), ProfileFingerprint(b))

	assert.NotEqual(t, ProfileFingerprint(a), ProfileFingerprint(nil))
	assert.Equal(t, ProfileFingerprint(nil), ProfileFingerprint(nil))
}

func TestPromptComposerCaching(t *testing.T) {
	cache := NewMemoryCache()
	composer := NewPromptComposer(cache)
	profile := testProfile()

	first := composer.Compose("user-1", profile, ModeSupportive)
	second := composer.Compose("user-1", profile, ModeSupportive)
	assert.Equal(t, first, second)

	// A profile edit changes the fingerprint, so the stale cached prompt is
	// not served even inside its TTL.
	profile.CommunicationStyle = "gentle"
	updated := composer.Compose("user-1", profile, ModeSupportive)
	assert.NotEqual(t, first, updated)
	assert.Contains(t, updated, toneBlocks["gentle"])
}
