package store

import "time"

type JournalEntry struct {
	ID             string    `json:"id"` // UUID
	UserID         string    `json:"user_id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	MoodRating     int       `json:"mood_rating"` // 1-10
	Activities     []string  `json:"activities"`
	Sentiment      float64   `json:"sentiment"`       // -1..1, placeholder 0 until analyzed
	SentimentLabel string    `json:"sentiment_label"` // positive | neutral | negative
	Feedback       string    `json:"feedback"`
	CreatedAt      time.Time `json:"created_at"`
}

type MoodSnapshot struct {
	ID        string    `json:"id"` // UUID
	UserID    string    `json:"user_id"`
	MoodScore int       `json:"mood_score"`
	Type      string    `json:"type"` // e.g. "pulse-check"
	Context   string    `json:"context"`
	CreatedAt time.Time `json:"created_at"`
}

// DayLog is the one-per-user-per-day record. Date is the calendar day in
// YYYY-MM-DD form; the (user_id, date) pair is unique.
type DayLog struct {
	ID                string    `json:"id"` // UUID
	UserID            string    `json:"user_id"`
	Date              string    `json:"date"`
	MorningIntention  string    `json:"morning_intention"`
	DailyInsight      string    `json:"daily_insight"`
	SuggestedAction   string    `json:"suggested_action"`
	EveningReflection string    `json:"evening_reflection"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// PatternEvidence is the structured supporting data behind a detected pattern.
// Stored as a JSON column.
type PatternEvidence struct {
	Dates      []string  `json:"dates,omitempty"`
	MoodScores []float64 `json:"mood_scores,omitempty"`
	Activities []string  `json:"activities,omitempty"`
	DayOfWeek  string    `json:"day_of_week,omitempty"`
	Context    string    `json:"context,omitempty"`
}

type Pattern struct {
	ID          string          `json:"id"` // UUID
	UserID      string          `json:"user_id"`
	Type        string          `json:"type"` // temporal | activity | theme | correlation
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Confidence  float64         `json:"confidence"` // 0..1
	Evidence    PatternEvidence `json:"evidence"`
	Insights    []string        `json:"insights"`
	Suggestions []string        `json:"suggestions"`
	IsActive    bool            `json:"is_active"`
	Dismissed   bool            `json:"dismissed"`
	CreatedAt   time.Time       `json:"created_at"`
	DismissedAt *time.Time      `json:"dismissed_at"` // Nullable
}

// ExerciseTurn is one question/answer exchange in a thought-challenging flow.
type ExerciseTurn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// TherapyExercise is immutable after creation.
type TherapyExercise struct {
	ID              string         `json:"id"` // UUID
	UserID          string         `json:"user_id"`
	Type            string         `json:"type"` // "thought-challenging"
	OriginalThought string         `json:"original_thought"`
	ReframedThought string         `json:"reframed_thought"`
	Conversation    []ExerciseTurn `json:"conversation"`
	CreatedAt       time.Time      `json:"created_at"`
}

type UserProfile struct {
	UserID             string    `json:"user_id"`
	AgeGroup           string    `json:"age_group"`           // teen | young-adult | adult | midlife | elder
	CommunicationStyle string    `json:"communication_style"` // gentle | direct | playful
	Interests          []string  `json:"interests"`
	Goals              []string  `json:"goals"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type Goal struct {
	ID          string     `json:"id"` // UUID
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"` // Nullable
	CreatedAt   time.Time  `json:"created_at"`
}
