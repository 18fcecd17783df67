package core

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Kabir-Narula/Mindful-Ai-DPS-sub000/internal/store"
)

const (
	detectionWindow     = 28 * 24 * time.Hour
	detectionMinEntries = 3
	patternRetention    = 60 * 24 * time.Hour
	themeSampleSize     = 10
)

var patternTypes = map[string]bool{
	"temporal":    true,
	"activity":    true,
	"theme":       true,
	"correlation": true,
}

// ActivityStat is the tallied frequency and mood average for one activity.
type ActivityStat struct {
	Name    string
	Count   int
	AvgMood float64
}

// Aggregation is the pure statistical summary of a user's trailing window,
// computed without any model call.
type Aggregation struct {
	EntryCount     int
	AvgMood        float64
	AvgSentiment   float64
	DayOfWeekMood  map[string]float64
	Activities     []ActivityStat
	RecentTitles   []string
	MoodSnapshots  int
	GoalsTotal     int
	GoalsCompleted int
}

type PatternService struct {
	dbStore   *store.SQLiteStore
	gateway   *Gateway
	completer Completer
	composer  *PromptComposer
	tasks     *TaskRunner
	logger    *zap.SugaredLogger
}

func NewPatternService(db *store.SQLiteStore, gateway *Gateway, completer Completer,
	composer *PromptComposer, tasks *TaskRunner, logger *zap.SugaredLogger) *PatternService {
	return &PatternService{
		dbStore:   db,
		gateway:   gateway,
		completer: completer,
		composer:  composer,
		tasks:     tasks,
		logger:    logger,
	}
}

// DetectPatterns aggregates the trailing 28-day window and asks the model for
// behavioral patterns. Below the entry threshold it returns empty immediately,
// without a model call.
func (s *PatternService) DetectPatterns(ctx context.Context, userID string, profile *store.UserProfile) ([]store.Pattern, error) {
	since := time.Now().Add(-detectionWindow)

	entries, err := s.dbStore.ListEntriesSince(userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries for detection: %w", err)
	}
	if len(entries) < detectionMinEntries {
		s.logger.Debugw("too few entries for pattern detection", "user_id", userID, "entries", len(entries))
		return nil, nil
	}

	moods, err := s.dbStore.ListMoodSnapshotsSince(userID, since)
	if err != nil {
		s.logger.Warnw("failed to load mood snapshots, aggregating without them", "user_id", userID, "error", err)
		moods = nil
	}
	goalsTotal, goalsCompleted, err := s.dbStore.CountGoals(userID)
	if err != nil {
		s.logger.Warnw("failed to count goals, aggregating without them", "user_id", userID, "error", err)
	}

	agg := BuildAggregation(entries, moods, goalsTotal, goalsCompleted)

	systemPrompt := s.composer.Compose(userID, profile, ModeSupportive)
	userPrompt := buildDetectionPrompt(agg)

	raw, err := s.gateway.Do(ctx, "pattern-detection", func(ctx context.Context) (string, error) {
		return s.completer.Complete(ctx, systemPrompt, userPrompt, GenOptions{
			Temperature: 0.4,
			MaxTokens:   2048,
			JSONOutput:  true,
		})
	})
	if err != nil {
		return nil, err
	}

	payloads := DecodeJSON(s.logger, raw, []patternPayload{})
	patterns := make([]store.Pattern, 0, len(payloads))
	for _, p := range payloads {
		if pattern, ok := p.toPattern(userID); ok {
			patterns = append(patterns, pattern)
		}
	}
	return patterns, nil
}

// SavePatterns archives the user's previously active patterns and stores the
// new batch as the current generation, then schedules a retention purge.
func (s *PatternService) SavePatterns(ctx context.Context, userID string, batch []store.Pattern) error {
	if err := s.dbStore.SavePatternBatch(userID, batch); err != nil {
		return fmt.Errorf("failed to save pattern batch: %w", err)
	}

	// Storage hygiene is decoupled from the detection request's latency.
	s.tasks.Submit("pattern-purge", func(ctx context.Context) error {
		removed, err := s.dbStore.PurgeStalePatterns(time.Now().Add(-patternRetention))
		if err != nil {
			return err
		}
		if removed > 0 {
			s.logger.Infow("purged stale patterns", "removed", removed)
		}
		return nil
	})
	return nil
}

// DismissPattern sets dismissed on a pattern after verifying ownership.
func (s *PatternService) DismissPattern(ctx context.Context, patternID, userID string) error {
	pattern, err := s.dbStore.GetPatternByID(patternID)
	if err != nil {
		return fmt.Errorf("failed to load pattern: %w", err)
	}
	if pattern == nil {
		return store.ErrNotFound
	}
	if pattern.UserID != userID {
		return ErrOwnership
	}
	return s.dbStore.DismissPattern(patternID, userID)
}

func (s *PatternService) ListActivePatterns(userID string) ([]store.Pattern, error) {
	return s.dbStore.ListActivePatterns(userID)
}

// BuildAggregation computes the statistical summary the detection prompt is
// built from. Pure: no model call, no store access.
func BuildAggregation(entries []store.JournalEntry, moods []store.MoodSnapshot, goalsTotal, goalsCompleted int) Aggregation {
	agg := Aggregation{
		EntryCount:     len(entries),
		DayOfWeekMood:  make(map[string]float64),
		MoodSnapshots:  len(moods),
		GoalsTotal:     goalsTotal,
		GoalsCompleted: goalsCompleted,
	}

	daySums := make(map[string]float64)
	dayCounts := make(map[string]int)
	activitySums := make(map[string]float64)
	activityCounts := make(map[string]int)
	var moodSum, sentimentSum float64

	for _, entry := range entries {
		moodSum += float64(entry.MoodRating)
		sentimentSum += entry.Sentiment

		day := entry.CreatedAt.Weekday().String()
		daySums[day] += float64(entry.MoodRating)
		dayCounts[day]++

		for _, activity := range entry.Activities {
			name := strings.ToLower(strings.TrimSpace(activity))
			if name == "" {
				continue
			}
			activitySums[name] += float64(entry.MoodRating)
			activityCounts[name]++
		}
	}
	for _, snap := range moods {
		moodSum += float64(snap.MoodScore)
	}

	samples := len(entries) + len(moods)
	if samples > 0 {
		agg.AvgMood = moodSum / float64(samples)
	}
	if len(entries) > 0 {
		agg.AvgSentiment = sentimentSum / float64(len(entries))
	}
	for day, sum := range daySums {
		agg.DayOfWeekMood[day] = sum / float64(dayCounts[day])
	}

	for name, count := range activityCounts {
		agg.Activities = append(agg.Activities, ActivityStat{
			Name:    name,
			Count:   count,
			AvgMood: activitySums[name] / float64(count),
		})
	}
	sort.Slice(agg.Activities, func(i, j int) bool {
		if agg.Activities[i].Count != agg.Activities[j].Count {
			return agg.Activities[i].Count > agg.Activities[j].Count
		}
		return agg.Activities[i].Name < agg.Activities[j].Name
	})

	// Entries arrive newest first; sample titles for theme evidence.
	for _, entry := range entries {
		if len(agg.RecentTitles) >= themeSampleSize {
			break
		}
		title := ScrubPII(entry.Title)
		if title != "" {
			agg.RecentTitles = append(agg.RecentTitles, title)
		}
	}
	return agg
}

var (
	emailRe    = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phoneRe    = regexp.MustCompile(`\+?\d[\d\s().-]{7,}\d`)
	digitRunRe = regexp.MustCompile(`\d{5,}`)
)

// ScrubPII removes obvious identifiers before text leaves the process.
func ScrubPII(text string) string {
	cleaned := emailRe.ReplaceAllString(text, "[email]")
	cleaned = phoneRe.ReplaceAllString(cleaned, "[number]")
	cleaned = digitRunRe.ReplaceAllString(cleaned, "[number]")
	return strings.TrimSpace(cleaned)
}

func buildDetectionPrompt(agg Aggregation) string {
	var b strings.Builder
	b.WriteString("Here is a statistical summary of the user's last four weeks of journaling.\n\n")
	b.WriteString(fmt.Sprintf("Entries: %d, mood snapshots: %d\n", agg.EntryCount, agg.MoodSnapshots))
	b.WriteString(fmt.Sprintf("Average mood: %.1f/10, average sentiment: %.2f\n", agg.AvgMood, agg.AvgSentiment))

	if len(agg.DayOfWeekMood) > 0 {
		days := make([]string, 0, len(agg.DayOfWeekMood))
		for day := range agg.DayOfWeekMood {
			days = append(days, day)
		}
		sort.Strings(days)
		b.WriteString("Mood by day of week:\n")
		for _, day := range days {
			b.WriteString(fmt.Sprintf("- %s: %.1f\n", day, agg.DayOfWeekMood[day]))
		}
	}
	if len(agg.Activities) > 0 {
		b.WriteString("Activities (count, average mood):\n")
		for _, stat := range agg.Activities {
			b.WriteString(fmt.Sprintf("- %s: %d times, mood %.1f\n", stat.Name, stat.Count, stat.AvgMood))
		}
	}
	if len(agg.RecentTitles) > 0 {
		b.WriteString("Recent entry titles:\n")
		for _, title := range agg.RecentTitles {
			b.WriteString("- " + title + "\n")
		}
	}
	if agg.GoalsTotal > 0 {
		b.WriteString(fmt.Sprintf("Goals: %d completed of %d\n", agg.GoalsCompleted, agg.GoalsTotal))
	}

	b.WriteString("\nIdentify 2-5 behavioral patterns in this data. Respond with a JSON array of objects, each with keys ")
	b.WriteString(`"type" ("temporal", "activity", "theme" or "correlation"), "name", "description", `)
	b.WriteString(`"confidence" (0 to 1), "evidence" (object with optional "dates", "mood_scores", "activities", `)
	b.WriteString(`"day_of_week", "context"), "insights" (array of strings), and "suggestions" (array of strings). `)
	b.WriteString("Only report patterns this data actually supports; return an empty array if there are none.")
	return b.String()
}

// patternPayload is the wire shape the model is asked to produce.
type patternPayload struct {
	Type        string                `json:"type"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Confidence  float64               `json:"confidence"`
	Evidence    store.PatternEvidence `json:"evidence"`
	Insights    []string              `json:"insights"`
	Suggestions []string              `json:"suggestions"`
}

func (p patternPayload) toPattern(userID string) (store.Pattern, bool) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return store.Pattern{}, false
	}
	patternType := strings.ToLower(strings.TrimSpace(p.Type))
	if !patternTypes[patternType] {
		patternType = "theme"
	}
	return store.Pattern{
		UserID:      userID,
		Type:        patternType,
		Name:        name,
		Description: strings.TrimSpace(p.Description),
		Confidence:  clamp(p.Confidence, 0, 1),
		Evidence:    p.Evidence,
		Insights:    p.Insights,
		Suggestions: p.Suggestions,
	}, true
}
