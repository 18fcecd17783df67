package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kabir-Narula/Mindful-Ai-DPS-sub000/internal/store"
)

func newPatternServiceForTest(t *testing.T, dbStore *store.SQLiteStore, completer Completer) *PatternService {
	t.Helper()
	g := NewGateway(testLogger(), 3)
	g.sleep = func(time.Duration) {}
	cache := NewMemoryCache()
	tasks := NewTaskRunner(testLogger(), 8)
	t.Cleanup(tasks.Close)
	return NewPatternService(dbStore, g, completer, NewPromptComposer(cache), tasks, testLogger())
}

func seedEntries(t *testing.T, dbStore *store.SQLiteStore, userID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		entry := &store.JournalEntry{
			UserID:     userID,
			Title:      "Entry",
			Content:    "Another day of showing up.",
			MoodRating: 5 + i%3,
			Activities: []string{"walking"},
		}
		require.NoError(t, dbStore.CreateEntry(entry))
	}
}

func TestDetectPatternsBelowThreshold(t *testing.T) {
	dbStore := newTestStore(t)
	completer := &fakeCompleter{}
	svc := newPatternServiceForTest(t, dbStore, completer)

	seedEntries(t, dbStore, "user-1", 2)

	patterns, err := svc.DetectPatterns(context.Background(), "user-1", nil)
	require.NoError(t, err)
	assert.Nil(t, patterns)
	// No model call below the entry threshold.
	assert.Equal(t, 0, completer.callCount())
}

func TestDetectPatternsReturnsNormalizedBatch(t *testing.T) {
	dbStore := newTestStore(t)
	completer := &fakeCompleter{responses: []string{`[
		{"type": "activity", "name": "Walking lifts your mood", "description": "Days with walks rate higher.",
		 "confidence": 0.8, "evidence": {"activities": ["walking"]}, "insights": ["Movement helps"], "suggestions": ["Keep walking"]},
		{"type": "horoscope", "name": "Coerced type", "description": "", "confidence": 1.7},
		{"type": "theme", "name": "", "description": "nameless patterns are dropped", "confidence": 0.5}
	]`}}
	svc := newPatternServiceForTest(t, dbStore, completer)

	seedEntries(t, dbStore, "user-1", 4)

	patterns, err := svc.DetectPatterns(context.Background(), "user-1", nil)
	require.NoError(t, err)
	require.Len(t, patterns, 2)

	assert.Equal(t, "activity", patterns[0].Type)
	assert.Equal(t, "user-1", patterns[0].UserID)
	assert.Equal(t, 0.8, patterns[0].Confidence)

	// Unknown types coerce to theme, confidence clamps to [0, 1].
	assert.Equal(t, "theme", patterns[1].Type)
	assert.Equal(t, 1.0, patterns[1].Confidence)
}

func TestDetectPatternsGatewayFailureSurfaces(t *testing.T) {
	dbStore := newTestStore(t)
	completer := &fakeCompleter{err: errors.New("invalid api key")}
	svc := newPatternServiceForTest(t, dbStore, completer)

	seedEntries(t, dbStore, "user-1", 3)

	_, err := svc.DetectPatterns(context.Background(), "user-1", nil)
	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
}

func TestSavePatternsArchivesPreviousGeneration(t *testing.T) {
	dbStore := newTestStore(t)
	svc := newPatternServiceForTest(t, dbStore, &fakeCompleter{})

	first := []store.Pattern{{Type: "theme", Name: "First generation", Confidence: 0.5}}
	require.NoError(t, svc.SavePatterns(context.Background(), "user-1", first))

	second := []store.Pattern{
		{Type: "temporal", Name: "Sunday dips", Confidence: 0.9},
		{Type: "activity", Name: "Walking lifts your mood", Confidence: 0.7},
	}
	require.NoError(t, svc.SavePatterns(context.Background(), "user-1", second))

	active, err := svc.ListActivePatterns("user-1")
	require.NoError(t, err)
	require.Len(t, active, 2)
	// Highest confidence first.
	assert.Equal(t, "Sunday dips", active[0].Name)
	assert.Equal(t, "Walking lifts your mood", active[1].Name)
}

func TestDismissPattern(t *testing.T) {
	dbStore := newTestStore(t)
	svc := newPatternServiceForTest(t, dbStore, &fakeCompleter{})

	batch := []store.Pattern{{Type: "theme", Name: "Owned pattern", Confidence: 0.6}}
	require.NoError(t, svc.SavePatterns(context.Background(), "user-1", batch))
	patternID := batch[0].ID

	err := svc.DismissPattern(context.Background(), patternID, "someone-else")
	assert.ErrorIs(t, err, ErrOwnership)

	err = svc.DismissPattern(context.Background(), "no-such-pattern", "user-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, svc.DismissPattern(context.Background(), patternID, "user-1"))

	active, err := svc.ListActivePatterns("user-1")
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestBuildAggregation(t *testing.T) {
	monday := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	entries := []store.JournalEntry{
		{Title: "Call 5551234567 back", MoodRating: 8, Sentiment: 0.6, CreatedAt: monday, Activities: []string{"Running"}},
		{Title: "Slow tuesday", MoodRating: 4, Sentiment: -0.2, CreatedAt: monday.AddDate(0, 0, 1), Activities: []string{"running", "work"}},
		{Title: "", MoodRating: 6, Sentiment: 0.1, CreatedAt: monday.AddDate(0, 0, 7), Activities: []string{" "}},
	}
	moods := []store.MoodSnapshot{{MoodScore: 10}}

	agg := BuildAggregation(entries, moods, 4, 1)

	assert.Equal(t, 3, agg.EntryCount)
	assert.Equal(t, 1, agg.MoodSnapshots)
	assert.Equal(t, 4, agg.GoalsTotal)
	assert.Equal(t, 1, agg.GoalsCompleted)

	// (8 + 4 + 6 + 10) / 4 samples
	assert.InDelta(t, 7.0, agg.AvgMood, 0.001)
	assert.InDelta(t, (0.6-0.2+0.1)/3, agg.AvgSentiment, 0.001)

	// Two Mondays average together; activity names normalize to lower case.
	assert.InDelta(t, 7.0, agg.DayOfWeekMood["Monday"], 0.001)
	assert.InDelta(t, 4.0, agg.DayOfWeekMood["Tuesday"], 0.001)

	require.Len(t, agg.Activities, 2)
	assert.Equal(t, ActivityStat{Name: "running", Count: 2, AvgMood: 6}, agg.Activities[0])
	assert.Equal(t, ActivityStat{Name: "work", Count: 1, AvgMood: 4}, agg.Activities[1])

	// Titles are PII-scrubbed and empty ones skipped.
	require.Len(t, agg.RecentTitles, 2)
	assert.Equal(t, "Call [number] back", agg.RecentTitles[0])
}

func TestScrubPII(t *testing.T) {
	assert.Equal(t, "wrote to [email] today", ScrubPII("wrote to sam.doe@example.com today"))
	assert.Equal(t, "call me at [number]", ScrubPII("call me at +1 (555) 123-4567"))
	assert.Equal(t, "order [number] arrived", ScrubPII("order 9817263 arrived"))
	assert.Equal(t, "met 3 friends", ScrubPII("met 3 friends"))
}
