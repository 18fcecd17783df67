package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	// All API routes will be under /api
	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		// User-scoped routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.UserScopeMiddleware)

			// Journal routes
			r.Post("/entries", apiHandler.CreateEntryHandler)
			r.Get("/entries", apiHandler.ListEntriesHandler)
			r.Get("/entries/{entryID}", apiHandler.GetEntryHandler)
			r.Post("/entries/{entryID}/analyze", apiHandler.AnalyzeEntryHandler)

			// Mood routes
			r.Post("/moods", apiHandler.RecordMoodHandler)

			// Day log routes
			r.Put("/day-log/intention", apiHandler.SetIntentionHandler)
			r.Put("/day-log/reflection", apiHandler.SetReflectionHandler)
			r.Get("/day-log", apiHandler.GetDayLogHandler)

			// Streak route
			r.Get("/streak", apiHandler.GetStreakHandler)

			// Pattern routes
			r.Post("/patterns/detect", apiHandler.DetectPatternsHandler)
			r.Get("/patterns", apiHandler.ListPatternsHandler)
			r.Post("/patterns/{patternID}/dismiss", apiHandler.DismissPatternHandler)

			// Thought challenge routes
			r.Post("/cbt/validate", apiHandler.ValidateThoughtHandler)
			r.Post("/cbt/questions", apiHandler.ChallengeQuestionsHandler)
			r.Post("/cbt/reframe", apiHandler.ReframeHandler)
			r.Post("/cbt/exercises", apiHandler.SaveExerciseHandler)
			r.Get("/cbt/exercises", apiHandler.ListExercisesHandler)

			// Profile routes
			r.Put("/profile", apiHandler.UpsertProfileHandler)
			r.Get("/profile", apiHandler.GetProfileHandler)

			// Goal routes
			r.Post("/goals", apiHandler.CreateGoalHandler)
			r.Post("/goals/{goalID}/complete", apiHandler.CompleteGoalHandler)
		})
	})

	return r
}
