package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kabir-Narula/Mindful-Ai-DPS-sub000/internal/api"
	"github.com/Kabir-Narula/Mindful-Ai-DPS-sub000/internal/config"
	"github.com/Kabir-Narula/Mindful-Ai-DPS-sub000/internal/core"
	"github.com/Kabir-Narula/Mindful-Ai-DPS-sub000/internal/logging"
	"github.com/Kabir-Narula/Mindful-Ai-DPS-sub000/internal/store"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Setup logging
	logger, err := logging.New(config.AppConfig.AppEnv)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	// Initialize database store
	dbStore, err := store.NewSQLiteStore(config.AppConfig.DatabaseURL)
	if err != nil {
		logger.Fatalw("Failed to initialize database", "error", err)
	}
	defer dbStore.Close()

	// Initialize LLM service
	llmService, err := core.NewLLMService(context.Background())
	if err != nil {
		logger.Fatalw("Failed to initialize LLM service", "error", err)
	}
	defer llmService.Close()

	// Shared infrastructure: completion gateway, response cache, persona
	// prompt composer, and the background task runner.
	gateway := core.NewGateway(logger, config.AppConfig.GatewayMaxRetries)
	cache := core.NewMemoryCache()
	composer := core.NewPromptComposer(cache)
	tasks := core.NewTaskRunner(logger, 64)
	defer tasks.Close()

	// Domain services. The pattern service is built first so the analysis
	// service can trigger detection after every fifth entry.
	patternService := core.NewPatternService(dbStore, gateway, llmService, composer, tasks, logger)
	analysisService := core.NewAnalysisService(dbStore, gateway, llmService, cache, composer, tasks,
		patternService, logger, config.AppConfig.EntryTokenBudget)
	journalService := core.NewJournalService(dbStore, analysisService, tasks, logger)
	streakService := core.NewStreakService(dbStore)
	cbtService := core.NewCBTService(dbStore, gateway, llmService, cache, composer, logger)

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(journalService, analysisService, patternService, streakService, cbtService, logger)
	router := api.NewRouter(apiHandler)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // LLM calls can take time
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		logger.Infow("Starting server", "addr", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("Could not listen", "addr", serverAddr, "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received
	logger.Info("Shutting down server...")

	// Create a context with a timeout for the shutdown.
	// This gives active connections time to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalw("Server forced to shutdown", "error", err)
	}

	// tasks.Close() drains queued analysis work before llmService and
	// dbStore are closed by their defers.
	logger.Info("Server exiting gracefully")
}
