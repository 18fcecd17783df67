package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// ErrNotFound is returned when a row does not exist or is not visible to the
// requesting user.
var ErrNotFound = errors.New("not found")

// DateFormat is the calendar-day key format used by day_logs.
const DateFormat = "2006-01-02"

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS journal_entries (
        id TEXT PRIMARY KEY, -- UUID
        user_id TEXT NOT NULL,
        title TEXT NOT NULL DEFAULT '',
        content TEXT NOT NULL,
        mood_rating INTEGER NOT NULL DEFAULT 5,
        activities_json TEXT NOT NULL DEFAULT '[]',
        sentiment REAL NOT NULL DEFAULT 0,
        sentiment_label TEXT NOT NULL DEFAULT 'neutral',
        feedback TEXT NOT NULL DEFAULT '',
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS idx_entries_user_created ON journal_entries (user_id, created_at);

    CREATE TABLE IF NOT EXISTS mood_snapshots (
        id TEXT PRIMARY KEY, -- UUID
        user_id TEXT NOT NULL,
        mood_score INTEGER NOT NULL,
        type TEXT NOT NULL DEFAULT 'pulse-check',
        context TEXT NOT NULL DEFAULT '',
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS idx_moods_user_created ON mood_snapshots (user_id, created_at);

    CREATE TABLE IF NOT EXISTS day_logs (
        id TEXT PRIMARY KEY, -- UUID
        user_id TEXT NOT NULL,
        date TEXT NOT NULL, -- YYYY-MM-DD
        morning_intention TEXT NOT NULL DEFAULT '',
        daily_insight TEXT NOT NULL DEFAULT '',
        suggested_action TEXT NOT NULL DEFAULT '',
        evening_reflection TEXT NOT NULL DEFAULT '',
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        UNIQUE (user_id, date)
    );

    CREATE TABLE IF NOT EXISTS patterns (
        id TEXT PRIMARY KEY, -- UUID
        user_id TEXT NOT NULL,
        type TEXT NOT NULL,
        name TEXT NOT NULL,
        description TEXT NOT NULL DEFAULT '',
        confidence REAL NOT NULL DEFAULT 0,
        evidence_json TEXT NOT NULL DEFAULT '{}',
        insights_json TEXT NOT NULL DEFAULT '[]',
        suggestions_json TEXT NOT NULL DEFAULT '[]',
        is_active BOOLEAN NOT NULL DEFAULT TRUE,
        dismissed BOOLEAN NOT NULL DEFAULT FALSE,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        dismissed_at DATETIME
    );
    CREATE INDEX IF NOT EXISTS idx_patterns_user_active ON patterns (user_id, is_active);

    CREATE TABLE IF NOT EXISTS therapy_exercises (
        id TEXT PRIMARY KEY, -- UUID
        user_id TEXT NOT NULL,
        type TEXT NOT NULL DEFAULT 'thought-challenging',
        original_thought TEXT NOT NULL,
        reframed_thought TEXT NOT NULL DEFAULT '',
        conversation_json TEXT NOT NULL DEFAULT '[]',
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS user_profiles (
        user_id TEXT PRIMARY KEY,
        age_group TEXT NOT NULL DEFAULT '',
        communication_style TEXT NOT NULL DEFAULT '',
        interests_json TEXT NOT NULL DEFAULT '[]',
        goals_json TEXT NOT NULL DEFAULT '[]',
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS goals (
        id TEXT PRIMARY KEY, -- UUID
        user_id TEXT NOT NULL,
        title TEXT NOT NULL,
        completed BOOLEAN NOT NULL DEFAULT FALSE,
        completed_at DATETIME,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS idx_goals_user ON goals (user_id);
    `
	_, err := s.db.Exec(schema)
	return err
}

// Journal entry methods

func (s *SQLiteStore) CreateEntry(entry *JournalEntry) error {
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now()
	if entry.SentimentLabel == "" {
		entry.SentimentLabel = "neutral"
	}
	activitiesJSON, err := json.Marshal(entry.Activities)
	if err != nil {
		return fmt.Errorf("failed to marshal activities: %w", err)
	}

	stmt, err := s.db.Prepare(`INSERT INTO journal_entries
        (id, user_id, title, content, mood_rating, activities_json, sentiment, sentiment_label, feedback, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare entry insert: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(entry.ID, entry.UserID, entry.Title, entry.Content, entry.MoodRating,
		string(activitiesJSON), entry.Sentiment, entry.SentimentLabel, entry.Feedback, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute entry insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetEntryByID(entryID string) (*JournalEntry, error) {
	row := s.db.QueryRow(`SELECT id, user_id, title, content, mood_rating, activities_json,
        sentiment, sentiment_label, feedback, created_at
        FROM journal_entries WHERE id = ?`, entryID)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return entry, nil
}

func (s *SQLiteStore) ListEntriesByUser(userID string, limit int) ([]JournalEntry, error) {
	rows, err := s.db.Query(`SELECT id, user_id, title, content, mood_rating, activities_json,
        sentiment, sentiment_label, feedback, created_at
        FROM journal_entries WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

// ListEntriesSince returns entries created at or after the cutoff, newest first.
func (s *SQLiteStore) ListEntriesSince(userID string, since time.Time) ([]JournalEntry, error) {
	rows, err := s.db.Query(`SELECT id, user_id, title, content, mood_rating, activities_json,
        sentiment, sentiment_label, feedback, created_at
        FROM journal_entries WHERE user_id = ? AND created_at >= ? ORDER BY created_at DESC`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

// UpdateEntryAnalysis is idempotent; re-analysis simply overwrites the derived fields.
func (s *SQLiteStore) UpdateEntryAnalysis(entryID string, sentiment float64, sentimentLabel, feedback string) error {
	stmt, err := s.db.Prepare(`UPDATE journal_entries
        SET sentiment = ?, sentiment_label = ?, feedback = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare analysis update: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(sentiment, sentimentLabel, feedback, entryID)
	if err != nil {
		return fmt.Errorf("failed to execute analysis update: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) CountEntriesByUser(userID string) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM journal_entries WHERE user_id = ?", userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

// ListEntryTimestamps returns all entry creation times for a user, newest first.
// Streak computation reduces these to unique calendar days.
func (s *SQLiteStore) ListEntryTimestamps(userID string) ([]time.Time, error) {
	rows, err := s.db.Query("SELECT created_at FROM journal_entries WHERE user_id = ? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entry timestamps: %w", err)
	}
	defer rows.Close()

	var stamps []time.Time
	for rows.Next() {
		var ts time.Time
		if err := rows.Scan(&ts); err != nil {
			return nil, fmt.Errorf("failed to scan entry timestamp: %w", err)
		}
		stamps = append(stamps, ts)
	}
	return stamps, rows.Err()
}

func scanEntry(row *sql.Row) (*JournalEntry, error) {
	var entry JournalEntry
	var activitiesJSON string
	err := row.Scan(&entry.ID, &entry.UserID, &entry.Title, &entry.Content, &entry.MoodRating,
		&activitiesJSON, &entry.Sentiment, &entry.SentimentLabel, &entry.Feedback, &entry.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(activitiesJSON), &entry.Activities); err != nil {
		entry.Activities = nil
	}
	return &entry, nil
}

func collectEntries(rows *sql.Rows) ([]JournalEntry, error) {
	var entries []JournalEntry
	for rows.Next() {
		var entry JournalEntry
		var activitiesJSON string
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Title, &entry.Content, &entry.MoodRating,
			&activitiesJSON, &entry.Sentiment, &entry.SentimentLabel, &entry.Feedback, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		if err := json.Unmarshal([]byte(activitiesJSON), &entry.Activities); err != nil {
			entry.Activities = nil
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Mood snapshot methods

func (s *SQLiteStore) CreateMoodSnapshot(snap *MoodSnapshot) error {
	snap.ID = uuid.NewString()
	snap.CreatedAt = time.Now()
	if snap.Type == "" {
		snap.Type = "pulse-check"
	}

	stmt, err := s.db.Prepare(`INSERT INTO mood_snapshots (id, user_id, mood_score, type, context, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare mood insert: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(snap.ID, snap.UserID, snap.MoodScore, snap.Type, snap.Context, snap.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute mood insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListMoodSnapshotsSince(userID string, since time.Time) ([]MoodSnapshot, error) {
	rows, err := s.db.Query(`SELECT id, user_id, mood_score, type, context, created_at
        FROM mood_snapshots WHERE user_id = ? AND created_at >= ? ORDER BY created_at DESC`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query mood snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []MoodSnapshot
	for rows.Next() {
		var snap MoodSnapshot
		if err := rows.Scan(&snap.ID, &snap.UserID, &snap.MoodScore, &snap.Type, &snap.Context, &snap.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan mood row: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// DayLog methods. All writes are (user_id, date)-keyed upserts so the
// one-row-per-user-per-day invariant holds regardless of write order.

func (s *SQLiteStore) UpsertDayLogAnalysis(userID, date, insight, action string) error {
	return s.upsertDayLog(userID, date,
		"daily_insight = excluded.daily_insight, suggested_action = excluded.suggested_action",
		"", insight, action, "")
}

func (s *SQLiteStore) UpsertDayLogIntention(userID, date, intention string) error {
	return s.upsertDayLog(userID, date,
		"morning_intention = excluded.morning_intention",
		intention, "", "", "")
}

func (s *SQLiteStore) UpsertDayLogReflection(userID, date, reflection string) error {
	return s.upsertDayLog(userID, date,
		"evening_reflection = excluded.evening_reflection",
		"", "", "", reflection)
}

func (s *SQLiteStore) upsertDayLog(userID, date, updateClause, intention, insight, action, reflection string) error {
	query := fmt.Sprintf(`INSERT INTO day_logs
        (id, user_id, date, morning_intention, daily_insight, suggested_action, evening_reflection, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (user_id, date) DO UPDATE SET %s, updated_at = excluded.updated_at`, updateClause)

	_, err := s.db.Exec(query, uuid.NewString(), userID, date, intention, insight, action, reflection, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert day log: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetDayLog(userID, date string) (*DayLog, error) {
	var dl DayLog
	err := s.db.QueryRow(`SELECT id, user_id, date, morning_intention, daily_insight,
        suggested_action, evening_reflection, updated_at
        FROM day_logs WHERE user_id = ? AND date = ?`, userID, date).
		Scan(&dl.ID, &dl.UserID, &dl.Date, &dl.MorningIntention, &dl.DailyInsight,
			&dl.SuggestedAction, &dl.EveningReflection, &dl.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get day log: %w", err)
	}
	return &dl, nil
}

// Pattern methods

// SavePatternBatch archives every currently active pattern for the user and
// inserts the new batch as active, inside one transaction.
func (s *SQLiteStore) SavePatternBatch(userID string, batch []Pattern) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin pattern transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("UPDATE patterns SET is_active = FALSE WHERE user_id = ? AND is_active = TRUE", userID); err != nil {
		return fmt.Errorf("failed to archive active patterns: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO patterns
        (id, user_id, type, name, description, confidence, evidence_json, insights_json, suggestions_json,
         is_active, dismissed, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, TRUE, FALSE, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare pattern insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for i := range batch {
		p := &batch[i]
		p.ID = uuid.NewString()
		p.UserID = userID
		p.IsActive = true
		p.Dismissed = false
		p.CreatedAt = now

		evidenceJSON, err := json.Marshal(p.Evidence)
		if err != nil {
			return fmt.Errorf("failed to marshal pattern evidence: %w", err)
		}
		insightsJSON, err := json.Marshal(p.Insights)
		if err != nil {
			return fmt.Errorf("failed to marshal pattern insights: %w", err)
		}
		suggestionsJSON, err := json.Marshal(p.Suggestions)
		if err != nil {
			return fmt.Errorf("failed to marshal pattern suggestions: %w", err)
		}

		if _, err := stmt.Exec(p.ID, p.UserID, p.Type, p.Name, p.Description, p.Confidence,
			string(evidenceJSON), string(insightsJSON), string(suggestionsJSON), now); err != nil {
			return fmt.Errorf("failed to insert pattern: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetPatternByID(patternID string) (*Pattern, error) {
	rows, err := s.db.Query(`SELECT id, user_id, type, name, description, confidence,
        evidence_json, insights_json, suggestions_json, is_active, dismissed, created_at, dismissed_at
        FROM patterns WHERE id = ?`, patternID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pattern: %w", err)
	}
	defer rows.Close()

	patterns, err := collectPatterns(rows)
	if err != nil {
		return nil, err
	}
	if len(patterns) == 0 {
		return nil, nil // Not found
	}
	return &patterns[0], nil
}

func (s *SQLiteStore) ListActivePatterns(userID string) ([]Pattern, error) {
	rows, err := s.db.Query(`SELECT id, user_id, type, name, description, confidence,
        evidence_json, insights_json, suggestions_json, is_active, dismissed, created_at, dismissed_at
        FROM patterns WHERE user_id = ? AND is_active = TRUE AND dismissed = FALSE
        ORDER BY confidence DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query active patterns: %w", err)
	}
	defer rows.Close()
	return collectPatterns(rows)
}

// DismissPattern is scoped by ownership; updating someone else's pattern
// affects zero rows and reports ErrNotFound.
func (s *SQLiteStore) DismissPattern(patternID, userID string) error {
	stmt, err := s.db.Prepare("UPDATE patterns SET dismissed = TRUE, dismissed_at = ? WHERE id = ? AND user_id = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare pattern dismissal: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(time.Now(), patternID, userID)
	if err != nil {
		return fmt.Errorf("failed to execute pattern dismissal: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeStalePatterns deletes inactive patterns created before the cutoff and
// returns the number of rows removed.
func (s *SQLiteStore) PurgeStalePatterns(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec("DELETE FROM patterns WHERE is_active = FALSE AND created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge stale patterns: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

func collectPatterns(rows *sql.Rows) ([]Pattern, error) {
	var patterns []Pattern
	for rows.Next() {
		var p Pattern
		var evidenceJSON, insightsJSON, suggestionsJSON string
		var dismissedAt sql.NullTime
		if err := rows.Scan(&p.ID, &p.UserID, &p.Type, &p.Name, &p.Description, &p.Confidence,
			&evidenceJSON, &insightsJSON, &suggestionsJSON, &p.IsActive, &p.Dismissed, &p.CreatedAt, &dismissedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pattern row: %w", err)
		}
		if dismissedAt.Valid {
			p.DismissedAt = &dismissedAt.Time
		}
		if err := json.Unmarshal([]byte(evidenceJSON), &p.Evidence); err != nil {
			p.Evidence = PatternEvidence{}
		}
		if err := json.Unmarshal([]byte(insightsJSON), &p.Insights); err != nil {
			p.Insights = nil
		}
		if err := json.Unmarshal([]byte(suggestionsJSON), &p.Suggestions); err != nil {
			p.Suggestions = nil
		}
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}

// Therapy exercise methods

func (s *SQLiteStore) CreateExercise(ex *TherapyExercise) error {
	ex.ID = uuid.NewString()
	ex.CreatedAt = time.Now()
	if ex.Type == "" {
		ex.Type = "thought-challenging"
	}
	conversationJSON, err := json.Marshal(ex.Conversation)
	if err != nil {
		return fmt.Errorf("failed to marshal exercise conversation: %w", err)
	}

	stmt, err := s.db.Prepare(`INSERT INTO therapy_exercises
        (id, user_id, type, original_thought, reframed_thought, conversation_json, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare exercise insert: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(ex.ID, ex.UserID, ex.Type, ex.OriginalThought, ex.ReframedThought,
		string(conversationJSON), ex.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute exercise insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListExercisesByUser(userID string) ([]TherapyExercise, error) {
	rows, err := s.db.Query(`SELECT id, user_id, type, original_thought, reframed_thought, conversation_json, created_at
        FROM therapy_exercises WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query exercises: %w", err)
	}
	defer rows.Close()

	var exercises []TherapyExercise
	for rows.Next() {
		var ex TherapyExercise
		var conversationJSON string
		if err := rows.Scan(&ex.ID, &ex.UserID, &ex.Type, &ex.OriginalThought, &ex.ReframedThought,
			&conversationJSON, &ex.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan exercise row: %w", err)
		}
		if err := json.Unmarshal([]byte(conversationJSON), &ex.Conversation); err != nil {
			ex.Conversation = nil
		}
		exercises = append(exercises, ex)
	}
	return exercises, rows.Err()
}

// User profile methods

func (s *SQLiteStore) UpsertProfile(profile *UserProfile) error {
	interestsJSON, err := json.Marshal(profile.Interests)
	if err != nil {
		return fmt.Errorf("failed to marshal interests: %w", err)
	}
	goalsJSON, err := json.Marshal(profile.Goals)
	if err != nil {
		return fmt.Errorf("failed to marshal profile goals: %w", err)
	}
	profile.UpdatedAt = time.Now()

	_, err = s.db.Exec(`INSERT INTO user_profiles (user_id, age_group, communication_style, interests_json, goals_json, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT (user_id) DO UPDATE SET
            age_group = excluded.age_group,
            communication_style = excluded.communication_style,
            interests_json = excluded.interests_json,
            goals_json = excluded.goals_json,
            updated_at = excluded.updated_at`,
		profile.UserID, profile.AgeGroup, profile.CommunicationStyle,
		string(interestsJSON), string(goalsJSON), profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetProfile(userID string) (*UserProfile, error) {
	var profile UserProfile
	var interestsJSON, goalsJSON string
	err := s.db.QueryRow(`SELECT user_id, age_group, communication_style, interests_json, goals_json, updated_at
        FROM user_profiles WHERE user_id = ?`, userID).
		Scan(&profile.UserID, &profile.AgeGroup, &profile.CommunicationStyle, &interestsJSON, &goalsJSON, &profile.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No profile yet; callers fall back to generic prompts
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if err := json.Unmarshal([]byte(interestsJSON), &profile.Interests); err != nil {
		profile.Interests = nil
	}
	if err := json.Unmarshal([]byte(goalsJSON), &profile.Goals); err != nil {
		profile.Goals = nil
	}
	return &profile, nil
}

// Goal methods

func (s *SQLiteStore) CreateGoal(goal *Goal) error {
	goal.ID = uuid.NewString()
	goal.CreatedAt = time.Now()

	stmt, err := s.db.Prepare("INSERT INTO goals (id, user_id, title, completed, created_at) VALUES (?, ?, ?, FALSE, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare goal insert: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(goal.ID, goal.UserID, goal.Title, goal.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute goal insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CompleteGoal(goalID, userID string) error {
	res, err := s.db.Exec("UPDATE goals SET completed = TRUE, completed_at = ? WHERE id = ? AND user_id = ?",
		time.Now(), goalID, userID)
	if err != nil {
		return fmt.Errorf("failed to complete goal: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountGoals returns total and completed goal counts for a user.
func (s *SQLiteStore) CountGoals(userID string) (total int, completed int, err error) {
	err = s.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(CASE WHEN completed THEN 1 ELSE 0 END), 0)
        FROM goals WHERE user_id = ?`, userID).Scan(&total, &completed)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count goals: %w", err)
	}
	return total, completed, nil
}
