package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Kabir-Narula/Mindful-Ai-DPS-sub000/internal/core"
	"github.com/Kabir-Narula/Mindful-Ai-DPS-sub000/internal/store"
)

type APIHandler struct {
	journalSvc  *core.JournalService
	analysisSvc *core.AnalysisService
	patternSvc  *core.PatternService
	streakSvc   *core.StreakService
	cbtSvc      *core.CBTService
	logger      *zap.SugaredLogger
}

func NewAPIHandler(journal *core.JournalService, analysis *core.AnalysisService, patterns *core.PatternService,
	streaks *core.StreakService, cbt *core.CBTService, logger *zap.SugaredLogger) *APIHandler {
	return &APIHandler{
		journalSvc:  journal,
		analysisSvc: analysis,
		patternSvc:  patterns,
		streakSvc:   streaks,
		cbtSvc:      cbt,
		logger:      logger,
	}
}

// UserScopeMiddleware resolves the requesting user from the X-User-ID header.
// Authentication itself is handled upstream of this service.
func (h *APIHandler) UserScopeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
		if userID == "" {
			http.Error(w, "X-User-ID header is required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), userID)))
	})
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warnw("failed to encode response", "error", err)
	}
}

// writeError maps service errors onto HTTP statuses.
func (h *APIHandler) writeError(w http.ResponseWriter, r *http.Request, err error, context string) {
	var gwErr *core.GatewayError
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, core.ErrOwnership):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.As(err, &gwErr):
		// The user is waiting mid-flow; tell them to retry.
		http.Error(w, "the assistant is temporarily unavailable, please retry", http.StatusServiceUnavailable)
	default:
		h.logger.Errorw(context, "error", err, "path", r.URL.Path)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// Journal entries

type CreateEntryRequest struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	MoodRating int      `json:"mood_rating"`
	Activities []string `json:"activities"`
}

func (h *APIHandler) CreateEntryHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	entry := &store.JournalEntry{
		UserID:     userID,
		Title:      req.Title,
		Content:    req.Content,
		MoodRating: req.MoodRating,
		Activities: req.Activities,
	}
	created, err := h.journalSvc.CreateEntry(r.Context(), entry)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

func (h *APIHandler) ListEntriesHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.journalSvc.ListEntries(userID, limit)
	if err != nil {
		h.writeError(w, r, err, "failed to list entries")
		return
	}
	if entries == nil {
		entries = []store.JournalEntry{}
	}
	h.writeJSON(w, http.StatusOK, entries)
}

func (h *APIHandler) GetEntryHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	entryID := chi.URLParam(r, "entryID")

	entry, err := h.journalSvc.GetEntry(entryID, userID)
	if err != nil {
		h.writeError(w, r, err, "failed to get entry")
		return
	}
	h.writeJSON(w, http.StatusOK, entry)
}

// AnalyzeEntryHandler runs the analysis pipeline synchronously for one entry.
// The background path does the same work; this endpoint exists for explicit
// re-analysis.
func (h *APIHandler) AnalyzeEntryHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	entryID := chi.URLParam(r, "entryID")

	// Scope check before analyzing.
	if _, err := h.journalSvc.GetEntry(entryID, userID); err != nil {
		h.writeError(w, r, err, "failed to load entry")
		return
	}

	result, err := h.analysisSvc.AnalyzeEntry(r.Context(), entryID)
	if err != nil {
		h.writeError(w, r, err, "failed to analyze entry")
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// Moods

type RecordMoodRequest struct {
	MoodScore int    `json:"mood_score"`
	Type      string `json:"type"`
	Context   string `json:"context"`
}

func (h *APIHandler) RecordMoodHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	var req RecordMoodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	snap, err := h.journalSvc.RecordMood(&store.MoodSnapshot{
		UserID:    userID,
		MoodScore: req.MoodScore,
		Type:      req.Type,
		Context:   req.Context,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.writeJSON(w, http.StatusCreated, snap)
}

// Day log

type DayLogTextRequest struct {
	Text string `json:"text"`
}

func (h *APIHandler) SetIntentionHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	var req DayLogTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.journalSvc.SetMorningIntention(userID, req.Text); err != nil {
		h.writeError(w, r, err, "failed to set intention")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) SetReflectionHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	var req DayLogTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.journalSvc.SetEveningReflection(userID, req.Text); err != nil {
		h.writeError(w, r, err, "failed to set reflection")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) GetDayLogHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	date := r.URL.Query().Get("date")

	dayLog, err := h.journalSvc.GetDayLog(userID, date)
	if err != nil {
		h.writeError(w, r, err, "failed to get day log")
		return
	}
	if dayLog == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, dayLog)
}

// Streaks

func (h *APIHandler) GetStreakHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	streak, err := h.streakSvc.GetStreak(userID)
	if err != nil {
		h.writeError(w, r, err, "failed to compute streak")
		return
	}
	h.writeJSON(w, http.StatusOK, streak)
}

// Patterns

func (h *APIHandler) DetectPatternsHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	profile, err := h.journalSvc.GetProfile(userID)
	if err != nil {
		h.writeError(w, r, err, "failed to load profile")
		return
	}

	patterns, err := h.patternSvc.DetectPatterns(r.Context(), userID, profile)
	if err != nil {
		h.writeError(w, r, err, "failed to detect patterns")
		return
	}
	if len(patterns) > 0 {
		if err := h.patternSvc.SavePatterns(r.Context(), userID, patterns); err != nil {
			h.writeError(w, r, err, "failed to save patterns")
			return
		}
	}
	if patterns == nil {
		patterns = []store.Pattern{}
	}
	h.writeJSON(w, http.StatusOK, patterns)
}

func (h *APIHandler) ListPatternsHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	patterns, err := h.patternSvc.ListActivePatterns(userID)
	if err != nil {
		h.writeError(w, r, err, "failed to list patterns")
		return
	}
	if patterns == nil {
		patterns = []store.Pattern{}
	}
	h.writeJSON(w, http.StatusOK, patterns)
}

func (h *APIHandler) DismissPatternHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	patternID := chi.URLParam(r, "patternID")

	if err := h.patternSvc.DismissPattern(r.Context(), patternID, userID); err != nil {
		h.writeError(w, r, err, "failed to dismiss pattern")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CBT flow

type ThoughtRequest struct {
	Thought string `json:"thought"`
}

func (h *APIHandler) ValidateThoughtHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	var req ThoughtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	verdict, err := h.cbtSvc.ValidateThought(r.Context(), userID, req.Thought)
	if err != nil {
		h.writeError(w, r, err, "failed to validate thought")
		return
	}
	h.writeJSON(w, http.StatusOK, verdict)
}

func (h *APIHandler) ChallengeQuestionsHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	var req ThoughtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	profile, err := h.journalSvc.GetProfile(userID)
	if err != nil {
		h.writeError(w, r, err, "failed to load profile")
		return
	}

	questions, err := h.cbtSvc.GenerateChallengeQuestions(r.Context(), userID, profile, req.Thought)
	if err != nil {
		h.writeError(w, r, err, "failed to generate questions")
		return
	}
	h.writeJSON(w, http.StatusOK, questions)
}

type ReframeRequest struct {
	Thought      string               `json:"thought"`
	Conversation []store.ExerciseTurn `json:"conversation"`
}

func (h *APIHandler) ReframeHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	var req ReframeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	profile, err := h.journalSvc.GetProfile(userID)
	if err != nil {
		h.writeError(w, r, err, "failed to load profile")
		return
	}

	reframe, err := h.cbtSvc.GenerateReframe(r.Context(), userID, profile, req.Thought, req.Conversation)
	if err != nil {
		h.writeError(w, r, err, "failed to generate reframe")
		return
	}
	h.writeJSON(w, http.StatusOK, reframe)
}

type SaveExerciseRequest struct {
	OriginalThought string               `json:"original_thought"`
	ReframedThought string               `json:"reframed_thought"`
	Conversation    []store.ExerciseTurn `json:"conversation"`
}

func (h *APIHandler) SaveExerciseHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	var req SaveExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	exercise, err := h.cbtSvc.SaveExercise(r.Context(), userID, req.OriginalThought, req.ReframedThought, req.Conversation)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.writeJSON(w, http.StatusCreated, exercise)
}

func (h *APIHandler) ListExercisesHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	exercises, err := h.cbtSvc.ListExercises(userID)
	if err != nil {
		h.writeError(w, r, err, "failed to list exercises")
		return
	}
	if exercises == nil {
		exercises = []store.TherapyExercise{}
	}
	h.writeJSON(w, http.StatusOK, exercises)
}

// Profile

type ProfileRequest struct {
	AgeGroup           string   `json:"age_group"`
	CommunicationStyle string   `json:"communication_style"`
	Interests          []string `json:"interests"`
	Goals              []string `json:"goals"`
}

func (h *APIHandler) UpsertProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	var req ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	profile := &store.UserProfile{
		UserID:             userID,
		AgeGroup:           req.AgeGroup,
		CommunicationStyle: req.CommunicationStyle,
		Interests:          req.Interests,
		Goals:              req.Goals,
	}
	if err := h.journalSvc.UpsertProfile(profile); err != nil {
		h.writeError(w, r, err, "failed to upsert profile")
		return
	}
	h.writeJSON(w, http.StatusOK, profile)
}

func (h *APIHandler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	profile, err := h.journalSvc.GetProfile(userID)
	if err != nil {
		h.writeError(w, r, err, "failed to get profile")
		return
	}
	if profile == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, profile)
}

// Goals

type CreateGoalRequest struct {
	Title string `json:"title"`
}

func (h *APIHandler) CreateGoalHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	var req CreateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	goal, err := h.journalSvc.CreateGoal(&store.Goal{UserID: userID, Title: req.Title})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.writeJSON(w, http.StatusCreated, goal)
}

func (h *APIHandler) CompleteGoalHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	goalID := chi.URLParam(r, "goalID")

	if err := h.journalSvc.CompleteGoal(goalID, userID); err != nil {
		h.writeError(w, r, err, "failed to complete goal")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
