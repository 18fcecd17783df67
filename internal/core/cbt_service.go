package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Kabir-Narula/Mindful-Ai-DPS-sub000/internal/store"
)

// ThoughtValidation is the verdict on whether a submitted thought is workable
// material for a challenge exercise.
type ThoughtValidation struct {
	Acceptable bool   `json:"acceptable"`
	Reason     string `json:"reason"`
}

type ChallengeQuestion struct {
	Question   string `json:"question"`
	Technique  string `json:"technique"`
	Difficulty string `json:"difficulty"` // easy | medium | hard
}

type ReframeResult struct {
	ReframedThought  string `json:"reframed_thought"`
	Technique        string `json:"technique"`
	PracticeReminder string `json:"practice_reminder"`
}

// CBTService backs the three-step thought-challenging flow:
// validate -> questions -> reframe, plus the final save. The three model
// calls are stateless; the client carries the flow state between steps.
type CBTService struct {
	dbStore   *store.SQLiteStore
	gateway   *Gateway
	completer Completer
	cache     Cache
	composer  *PromptComposer
	logger    *zap.SugaredLogger
}

func NewCBTService(db *store.SQLiteStore, gateway *Gateway, completer Completer, cache Cache,
	composer *PromptComposer, logger *zap.SugaredLogger) *CBTService {
	return &CBTService{
		dbStore:   db,
		gateway:   gateway,
		completer: completer,
		cache:     cache,
		composer:  composer,
		logger:    logger,
	}
}

// ValidateThought checks whether the input is workable. It errs toward
// accepting borderline input, and a gateway failure accepts rather than
// blocking the user at the door. Verdicts are cached.
func (s *CBTService) ValidateThought(ctx context.Context, userID, thought string) (ThoughtValidation, error) {
	thought = strings.TrimSpace(thought)
	if thought == "" {
		return ThoughtValidation{Acceptable: false, Reason: "Please share the thought you'd like to work on."}, nil
	}

	cacheKey := HashKey("thought-validation", thought)
	if cached, ok := s.cache.Get(cacheKey); ok {
		var verdict ThoughtValidation
		if err := json.Unmarshal([]byte(cached), &verdict); err == nil {
			return verdict, nil
		}
	}

	userPrompt := "Decide whether the following text is a negative or distorted thought that a " +
		"cognitive-behavioral thought-challenging exercise could work with. When in doubt, accept it. " +
		`Respond with a JSON object with keys "acceptable" (boolean) and "reason" (one short sentence).` +
		"\n\nThought: " + SanitizeContent(thought)

	raw, err := s.gateway.Do(ctx, "thought-validation", func(ctx context.Context) (string, error) {
		return s.completer.Complete(ctx, "", userPrompt, GenOptions{Temperature: 0.2, MaxTokens: 256, JSONOutput: true})
	})
	if err != nil {
		s.logger.Warnw("thought validation fell back to accept", "error", err)
		return ThoughtValidation{Acceptable: true, Reason: "Let's work with this thought."}, nil
	}

	verdict := DecodeJSON(s.logger, raw, ThoughtValidation{Acceptable: true, Reason: "Let's work with this thought."})
	if encoded, err := json.Marshal(verdict); err == nil {
		s.cache.Set(cacheKey, string(encoded), ValidationCacheTTL)
	}
	return verdict, nil
}

// GenerateChallengeQuestions returns three structured questions probing the
// thought. Gateway failures are returned to the caller: the user is actively
// waiting in the flow and should see an explicit retry prompt.
func (s *CBTService) GenerateChallengeQuestions(ctx context.Context, userID string, profile *store.UserProfile, thought string) ([]ChallengeQuestion, error) {
	systemPrompt := s.composer.Compose(userID, profile, ModeChallenge)
	userPrompt := "The user wants to examine this thought:\n\n" + SanitizeContent(thought) + "\n\n" +
		"Generate exactly 3 challenge questions that help them test it. Respond with a JSON array of objects with keys " +
		`"question", "technique" (the CBT technique used, e.g. "evidence examination", "decatastrophizing", "perspective shift"), ` +
		`and "difficulty" ("easy", "medium" or "hard"). Order them easiest first.`

	raw, err := s.gateway.Do(ctx, "challenge-questions", func(ctx context.Context) (string, error) {
		return s.completer.Complete(ctx, systemPrompt, userPrompt, GenOptions{Temperature: 0.7, MaxTokens: 1024, JSONOutput: true})
	})
	if err != nil {
		return nil, err
	}

	questions := DecodeJSON(s.logger, raw, defaultChallengeQuestions())
	if len(questions) == 0 {
		questions = defaultChallengeQuestions()
	}
	return questions, nil
}

// GenerateReframe turns the question/answer transcript into a reframed
// thought. As with question generation, gateway failures surface to the
// caller.
func (s *CBTService) GenerateReframe(ctx context.Context, userID string, profile *store.UserProfile, thought string, transcript []store.ExerciseTurn) (ReframeResult, error) {
	var b strings.Builder
	b.WriteString("The user examined this thought:\n\n" + SanitizeContent(thought) + "\n\nThe exchange so far:\n")
	for _, turn := range transcript {
		b.WriteString("Q: " + turn.Question + "\n")
		b.WriteString("A: " + SanitizeContent(turn.Answer) + "\n")
	}
	b.WriteString("\nOffer a balanced reframe of the original thought in the user's own voice. Respond with a JSON object with keys ")
	b.WriteString(`"reframed_thought", "technique" (the technique that did the most work here), and "practice_reminder" (one sentence the user can return to).`)

	systemPrompt := s.composer.Compose(userID, profile, ModeChallenge)
	raw, err := s.gateway.Do(ctx, "thought-reframe", func(ctx context.Context) (string, error) {
		return s.completer.Complete(ctx, systemPrompt, b.String(), GenOptions{Temperature: 0.6, MaxTokens: 768, JSONOutput: true})
	})
	if err != nil {
		return ReframeResult{}, err
	}

	result := DecodeJSON(s.logger, raw, defaultReframe())
	if strings.TrimSpace(result.ReframedThought) == "" {
		result = defaultReframe()
	}
	return result, nil
}

// SaveExercise persists the completed flow once. Exercises are immutable
// after creation; there are no partial saves.
func (s *CBTService) SaveExercise(ctx context.Context, userID, originalThought, reframedThought string, conversation []store.ExerciseTurn) (*store.TherapyExercise, error) {
	if strings.TrimSpace(originalThought) == "" {
		return nil, fmt.Errorf("original thought is required")
	}
	exercise := &store.TherapyExercise{
		UserID:          userID,
		Type:            "thought-challenging",
		OriginalThought: originalThought,
		ReframedThought: reframedThought,
		Conversation:    conversation,
	}
	if err := s.dbStore.CreateExercise(exercise); err != nil {
		return nil, fmt.Errorf("failed to save exercise: %w", err)
	}
	return exercise, nil
}

func (s *CBTService) ListExercises(userID string) ([]store.TherapyExercise, error) {
	return s.dbStore.ListExercisesByUser(userID)
}

func defaultChallengeQuestions() []ChallengeQuestion {
	return []ChallengeQuestion{
		{Question: "What evidence do you have that this thought is completely true?", Technique: "evidence examination", Difficulty: "easy"},
		{Question: "If a close friend told you they had this thought, what would you say to them?", Technique: "perspective shift", Difficulty: "medium"},
		{Question: "What is the most realistic outcome here, rather than the worst one?", Technique: "decatastrophizing", Difficulty: "hard"},
	}
}

func defaultReframe() ReframeResult {
	return ReframeResult{
		ReframedThought:  "This thought is one interpretation, not a fact. There are other ways to read this situation.",
		Technique:        "cognitive restructuring",
		PracticeReminder: "When the thought returns, pause and ask what evidence actually supports it.",
	}
}
