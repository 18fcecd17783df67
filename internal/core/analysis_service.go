package core

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Kabir-Narula/Mindful-Ai-DPS-sub000/internal/store"
)

const (
	feedbackMaxLen = 2000
	insightMaxLen  = 500
	actionMaxLen   = 300

	// Every 5th entry (from the 5th on) triggers pattern detection.
	patternTriggerInterval = 5
	patternTriggerMinimum  = 5
)

// AnalysisResult is the normalized outcome of analyzing one journal entry.
type AnalysisResult struct {
	Sentiment      float64 `json:"sentiment"`
	SentimentLabel string  `json:"sentiment_label"`
	Feedback       string  `json:"feedback"`
	Insight        string  `json:"insight"`
	Action         string  `json:"action"`
	Confidence     float64 `json:"confidence"`
}

type AnalysisService struct {
	dbStore     *store.SQLiteStore
	gateway     *Gateway
	completer   Completer
	cache       Cache
	composer    *PromptComposer
	tasks       *TaskRunner
	patternsSvc *PatternService
	logger      *zap.SugaredLogger
	tokenBudget int
}

func NewAnalysisService(db *store.SQLiteStore, gateway *Gateway, completer Completer, cache Cache,
	composer *PromptComposer, tasks *TaskRunner, patterns *PatternService,
	logger *zap.SugaredLogger, tokenBudget int) *AnalysisService {
	if tokenBudget <= 0 {
		tokenBudget = 2000
	}
	return &AnalysisService{
		dbStore:     db,
		gateway:     gateway,
		completer:   completer,
		cache:       cache,
		composer:    composer,
		tasks:       tasks,
		patternsSvc: patterns,
		logger:      logger,
		tokenBudget: tokenBudget,
	}
}

// AnalyzeEntry runs the full pipeline for a stored entry: analyze, persist the
// derived fields, upsert the day log, and conditionally trigger pattern
// detection. Analysis failure degrades to a fallback result; only datastore
// problems surface as errors.
func (s *AnalysisService) AnalyzeEntry(ctx context.Context, entryID string) (*AnalysisResult, error) {
	entry, err := s.dbStore.GetEntryByID(entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entry for analysis: %w", err)
	}
	if entry == nil {
		return nil, store.ErrNotFound
	}

	profile, err := s.dbStore.GetProfile(entry.UserID)
	if err != nil {
		s.logger.Warnw("failed to load profile, analyzing with generic persona", "user_id", entry.UserID, "error", err)
		profile = nil
	}

	result := s.Analyze(ctx, entry, profile)

	if err := s.dbStore.UpdateEntryAnalysis(entry.ID, result.Sentiment, result.SentimentLabel, result.Feedback); err != nil {
		return nil, fmt.Errorf("failed to persist analysis: %w", err)
	}
	date := entry.CreatedAt.Format(store.DateFormat)
	if err := s.dbStore.UpsertDayLogAnalysis(entry.UserID, date, result.Insight, result.Action); err != nil {
		// Day-log enrichment is secondary to the entry update; log and move on.
		s.logger.Warnw("failed to upsert day log", "user_id", entry.UserID, "date", date, "error", err)
	}

	s.maybeTriggerPatternDetection(entry.UserID)
	return result, nil
}

// Analyze produces an AnalysisResult for an entry. It never fails: on total
// gateway failure it returns a fixed, warm fallback so analysis can never
// block or break entry creation.
func (s *AnalysisService) Analyze(ctx context.Context, entry *store.JournalEntry, profile *store.UserProfile) *AnalysisResult {
	content := SanitizeContent(entry.Content)
	content = TrimToTokenBudget(content, s.tokenBudget)

	cacheKey := HashKey("entry-analysis", content, fmt.Sprintf("%d", entry.MoodRating), strings.Join(entry.Activities, ","))
	if cached, ok := s.cache.Get(cacheKey); ok {
		var result AnalysisResult
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			return &result
		}
	}

	systemPrompt := s.composer.Compose(entry.UserID, profile, analysisMode(entry))
	userPrompt := buildAnalysisPrompt(entry, content)

	raw, err := s.gateway.Do(ctx, "entry-analysis", func(ctx context.Context) (string, error) {
		return s.completer.Complete(ctx, systemPrompt, userPrompt, GenOptions{
			Temperature: 0.6,
			MaxTokens:   1024,
			JSONOutput:  true,
		})
	})
	if err != nil {
		s.logger.Warnw("entry analysis fell back to default result", "entry_id", entry.ID, "error", err)
		return fallbackAnalysis()
	}

	result := DecodeJSON(s.logger, raw, *fallbackAnalysis())
	normalizeAnalysis(&result)

	if encoded, err := json.Marshal(result); err == nil {
		s.cache.Set(cacheKey, string(encoded), AnalysisCacheTTL)
	}
	return &result
}

func (s *AnalysisService) maybeTriggerPatternDetection(userID string) {
	count, err := s.dbStore.CountEntriesByUser(userID)
	if err != nil {
		s.logger.Warnw("failed to count entries for pattern trigger", "user_id", userID, "error", err)
		return
	}
	if count < patternTriggerMinimum || count%patternTriggerInterval != 0 {
		return
	}

	s.tasks.Submit("pattern-detection", func(ctx context.Context) error {
		profile, err := s.dbStore.GetProfile(userID)
		if err != nil {
			profile = nil
		}
		patterns, err := s.patternsSvc.DetectPatterns(ctx, userID, profile)
		if err != nil {
			return err
		}
		if len(patterns) == 0 {
			return nil
		}
		return s.patternsSvc.SavePatterns(ctx, userID, patterns)
	})
}

func analysisMode(entry *store.JournalEntry) PromptMode {
	if containsCrisisLanguage(entry.Content) {
		return ModeCrisis
	}
	if entry.MoodRating >= 8 {
		return ModeCelebrate
	}
	return ModeSupportive
}

var crisisMarkers = []string{
	"want to die", "kill myself", "end it all", "no reason to live", "hurt myself",
}

func containsCrisisLanguage(content string) bool {
	lowered := strings.ToLower(content)
	for _, marker := range crisisMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

func buildAnalysisPrompt(entry *store.JournalEntry, content string) string {
	var b strings.Builder
	b.WriteString("Analyze this journal entry and respond with a single JSON object with keys ")
	b.WriteString(`"sentiment" (number from -1 to 1), "sentiment_label" ("positive", "neutral" or "negative"), `)
	b.WriteString(`"feedback" (warm response to the user, max 120 words), "insight" (one observation about their day), `)
	b.WriteString(`"action" (one small suggested action), and "confidence" (number from 0 to 1).` + "\n\n")
	if entry.Title != "" {
		b.WriteString("Title: " + entry.Title + "\n")
	}
	b.WriteString(fmt.Sprintf("Mood rating (1-10): %d\n", entry.MoodRating))
	if len(entry.Activities) > 0 {
		b.WriteString("Activities: " + strings.Join(entry.Activities, ", ") + "\n")
	}
	b.WriteString("\nEntry:\n" + content)
	return b.String()
}

// fallbackAnalysis is the fixed, non-generic degraded result used when the
// completion service is unavailable. Neutral sentiment, warm feedback.
func fallbackAnalysis() *AnalysisResult {
	return &AnalysisResult{
		Sentiment:      0,
		SentimentLabel: "neutral",
		Feedback: "Thank you for taking the time to write today. Putting your thoughts into words " +
			"is its own kind of progress, and showing up for yourself like this matters.",
		Insight:    "You made space to reflect today.",
		Action:     "Take a moment to notice one thing that went well today.",
		Confidence: 0,
	}
}

func normalizeAnalysis(result *AnalysisResult) {
	result.Sentiment = clamp(result.Sentiment, -1, 1)
	result.Confidence = clamp(result.Confidence, 0, 1)

	switch strings.ToLower(strings.TrimSpace(result.SentimentLabel)) {
	case "positive":
		result.SentimentLabel = "positive"
	case "negative":
		result.SentimentLabel = "negative"
	default:
		result.SentimentLabel = "neutral"
	}

	result.Feedback = truncateRunes(strings.TrimSpace(result.Feedback), feedbackMaxLen)
	result.Insight = truncateRunes(strings.TrimSpace(result.Insight), insightMaxLen)
	result.Action = truncateRunes(strings.TrimSpace(result.Action), actionMaxLen)
	if result.Feedback == "" {
		result.Feedback = fallbackAnalysis().Feedback
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// Prompt-injection markers are stripped before entry content reaches a prompt.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+instructions?`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?(previous|prior|above)\s+instructions?`),
	regexp.MustCompile(`(?i)\bsystem\s*:`),
	regexp.MustCompile(`(?i)\bassistant\s*:`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+`),
	regexp.MustCompile("```"),
	regexp.MustCompile(`\[\[.*?\]\]`),
}

func SanitizeContent(content string) string {
	cleaned := content
	for _, pattern := range injectionPatterns {
		cleaned = pattern.ReplaceAllString(cleaned, "")
	}
	return strings.TrimSpace(cleaned)
}

// ApproxTokenCount estimates tokens as words × 1.3 + punctuation × 0.5.
func ApproxTokenCount(text string) int {
	words := len(strings.Fields(text))
	punct := 0
	for _, r := range text {
		switch r {
		case '.', ',', '!', '?', ';', ':', '-', '(', ')', '"', '\'':
			punct++
		}
	}
	return int(float64(words)*1.3 + float64(punct)*0.5)
}

// TrimToTokenBudget trims text proportionally to fit the budget, preferring a
// sentence boundary near the cut point.
func TrimToTokenBudget(text string, budget int) string {
	total := ApproxTokenCount(text)
	if total <= budget {
		return text
	}

	ratio := float64(budget) / float64(total)
	cut := int(float64(len(text)) * ratio)
	if cut >= len(text) {
		cut = len(text) - 1
	}
	// The proportional cut is a byte offset; back up off any multibyte rune.
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}

	trimmed := text[:cut]
	// Walk back to the nearest sentence end, unless that loses most of the text.
	if idx := strings.LastIndexAny(trimmed, ".!?"); idx > cut/2 {
		return strings.TrimSpace(trimmed[:idx+1])
	}
	if idx := strings.LastIndexByte(trimmed, ' '); idx > 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
