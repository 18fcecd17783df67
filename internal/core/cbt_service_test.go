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

func newCBTServiceForTest(t *testing.T, dbStore *store.SQLiteStore, completer Completer) *CBTService {
	t.Helper()
	g := NewGateway(testLogger(), 3)
	g.sleep = func(time.Duration) {}
	cache := NewMemoryCache()
	return NewCBTService(dbStore, g, completer, cache, NewPromptComposer(cache), testLogger())
}

func TestValidateThoughtEmptyInput(t *testing.T) {
	completer := &fakeCompleter{}
	svc := newCBTServiceForTest(t, nil, completer)

	verdict, err := svc.ValidateThought(context.Background(), "user-1", "   ")
	require.NoError(t, err)
	assert.False(t, verdict.Acceptable)
	assert.Equal(t, 0, completer.callCount())
}

func TestValidateThoughtCachesVerdict(t *testing.T) {
	completer := &fakeCompleter{responses: []string{`{"acceptable": true, "reason": "A clear negative thought."}`}}
	svc := newCBTServiceForTest(t, nil, completer)

	first, err := svc.ValidateThought(context.Background(), "user-1", "I always ruin everything")
	require.NoError(t, err)
	assert.True(t, first.Acceptable)

	second, err := svc.ValidateThought(context.Background(), "user-1", "I always ruin everything")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, completer.callCount())
}

func TestValidateThoughtAcceptsOnGatewayFailure(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("invalid api key")}
	svc := newCBTServiceForTest(t, nil, completer)

	verdict, err := svc.ValidateThought(context.Background(), "user-1", "I always ruin everything")
	require.NoError(t, err)
	assert.True(t, verdict.Acceptable)
}

func TestGenerateChallengeQuestionsSurfacesGatewayError(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("invalid api key")}
	svc := newCBTServiceForTest(t, nil, completer)

	_, err := svc.GenerateChallengeQuestions(context.Background(), "user-1", nil, "I always ruin everything")
	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
}

func TestGenerateChallengeQuestionsFallbackOnGarbage(t *testing.T) {
	completer := &fakeCompleter{responses: []string{"sorry, no questions today"}}
	svc := newCBTServiceForTest(t, nil, completer)

	questions, err := svc.GenerateChallengeQuestions(context.Background(), "user-1", nil, "I always ruin everything")
	require.NoError(t, err)
	require.Len(t, questions, 3)
	assert.Equal(t, "evidence examination", questions[0].Technique)
}

func TestGenerateReframe(t *testing.T) {
	completer := &fakeCompleter{responses: []string{
		`{"reframed_thought": "One mistake does not undo everything I have built.",
		  "technique": "evidence examination", "practice_reminder": "Count what went right too."}`,
	}}
	svc := newCBTServiceForTest(t, nil, completer)

	transcript := []store.ExerciseTurn{
		{Question: "What evidence supports this?", Answer: "I missed one deadline this quarter."},
	}
	result, err := svc.GenerateReframe(context.Background(), "user-1", nil, "I always ruin everything", transcript)
	require.NoError(t, err)
	assert.Equal(t, "One mistake does not undo everything I have built.", result.ReframedThought)
}

func TestGenerateReframeSurfacesGatewayError(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("invalid api key")}
	svc := newCBTServiceForTest(t, nil, completer)

	_, err := svc.GenerateReframe(context.Background(), "user-1", nil, "I always ruin everything", nil)
	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
}

func TestGenerateReframeFallbackOnEmptyResult(t *testing.T) {
	completer := &fakeCompleter{responses: []string{`{"reframed_thought": "   "}`}}
	svc := newCBTServiceForTest(t, nil, completer)

	result, err := svc.GenerateReframe(context.Background(), "user-1", nil, "I always ruin everything", nil)
	require.NoError(t, err)
	assert.Equal(t, defaultReframe(), result)
}

func TestSaveAndListExercises(t *testing.T) {
	dbStore := newTestStore(t)
	svc := newCBTServiceForTest(t, dbStore, &fakeCompleter{})

	_, err := svc.SaveExercise(context.Background(), "user-1", "  ", "reframe", nil)
	require.Error(t, err)

	conversation := []store.ExerciseTurn{{Question: "Q", Answer: "A"}}
	saved, err := svc.SaveExercise(context.Background(), "user-1", "I always ruin everything", "One mistake is not everything.", conversation)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "thought-challenging", saved.Type)

	exercises, err := svc.ListExercises("user-1")
	require.NoError(t, err)
	require.Len(t, exercises, 1)
	assert.Equal(t, "I always ruin everything", exercises[0].OriginalThought)
	assert.Equal(t, conversation, exercises[0].Conversation)

	other, err := svc.ListExercises("user-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}
