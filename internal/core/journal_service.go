package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Kabir-Narula/Mindful-Ai-DPS-sub000/internal/store"
)

// JournalService owns the user-facing write paths: entries, mood snapshots,
// day-log fields, profiles, and goals. Entry creation is synchronous; the
// analysis pipeline runs afterwards and can never fail the write.
type JournalService struct {
	dbStore     *store.SQLiteStore
	analysisSvc *AnalysisService
	tasks       *TaskRunner
	logger      *zap.SugaredLogger
}

func NewJournalService(db *store.SQLiteStore, analysis *AnalysisService, tasks *TaskRunner, logger *zap.SugaredLogger) *JournalService {
	return &JournalService{
		dbStore:     db,
		analysisSvc: analysis,
		tasks:       tasks,
		logger:      logger,
	}
}

// CreateEntry stores the entry with placeholder analysis fields and enqueues
// analysis. The caller gets the entry back as soon as the datastore write
// succeeds, regardless of AI availability.
func (s *JournalService) CreateEntry(ctx context.Context, entry *store.JournalEntry) (*store.JournalEntry, error) {
	if strings.TrimSpace(entry.Content) == "" {
		return nil, fmt.Errorf("entry content is required")
	}
	if entry.MoodRating < 1 || entry.MoodRating > 10 {
		return nil, fmt.Errorf("mood rating must be between 1 and 10")
	}

	if err := s.dbStore.CreateEntry(entry); err != nil {
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}

	entryID := entry.ID
	s.tasks.Submit("entry-analysis", func(ctx context.Context) error {
		_, err := s.analysisSvc.AnalyzeEntry(ctx, entryID)
		return err
	})

	return entry, nil
}

func (s *JournalService) ListEntries(userID string, limit int) ([]store.JournalEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.dbStore.ListEntriesByUser(userID, limit)
}

func (s *JournalService) GetEntry(entryID, userID string) (*store.JournalEntry, error) {
	entry, err := s.dbStore.GetEntryByID(entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, store.ErrNotFound
	}
	if entry.UserID != userID {
		return nil, ErrOwnership
	}
	return entry, nil
}

// RecordMood appends a mood snapshot. Snapshots are never mutated.
func (s *JournalService) RecordMood(snap *store.MoodSnapshot) (*store.MoodSnapshot, error) {
	if snap.MoodScore < 1 || snap.MoodScore > 10 {
		return nil, fmt.Errorf("mood score must be between 1 and 10")
	}
	if err := s.dbStore.CreateMoodSnapshot(snap); err != nil {
		return nil, fmt.Errorf("failed to record mood: %w", err)
	}
	return snap, nil
}

func (s *JournalService) SetMorningIntention(userID, intention string) error {
	date := time.Now().Format(store.DateFormat)
	return s.dbStore.UpsertDayLogIntention(userID, date, intention)
}

func (s *JournalService) SetEveningReflection(userID, reflection string) error {
	date := time.Now().Format(store.DateFormat)
	return s.dbStore.UpsertDayLogReflection(userID, date, reflection)
}

func (s *JournalService) GetDayLog(userID, date string) (*store.DayLog, error) {
	if date == "" {
		date = time.Now().Format(store.DateFormat)
	}
	return s.dbStore.GetDayLog(userID, date)
}

func (s *JournalService) UpsertProfile(profile *store.UserProfile) error {
	return s.dbStore.UpsertProfile(profile)
}

func (s *JournalService) GetProfile(userID string) (*store.UserProfile, error) {
	return s.dbStore.GetProfile(userID)
}

func (s *JournalService) CreateGoal(goal *store.Goal) (*store.Goal, error) {
	if strings.TrimSpace(goal.Title) == "" {
		return nil, fmt.Errorf("goal title is required")
	}
	if err := s.dbStore.CreateGoal(goal); err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}
	return goal, nil
}

func (s *JournalService) CompleteGoal(goalID, userID string) error {
	return s.dbStore.CompleteGoal(goalID, userID)
}
