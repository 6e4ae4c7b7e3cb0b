package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lifepath/lifepath-backend/internal/config"
	"github.com/lifepath/lifepath-backend/internal/database"
	"github.com/lifepath/lifepath-backend/internal/handler"
	"github.com/lifepath/lifepath-backend/internal/logger"
	"github.com/lifepath/lifepath-backend/internal/repository"
	"github.com/lifepath/lifepath-backend/internal/router"
	"github.com/lifepath/lifepath-backend/internal/service"
	"github.com/lifepath/lifepath-backend/internal/validator"
	"github.com/lifepath/lifepath-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting LifePath Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	scenarioRepo := repository.NewScenarioRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	runRepo := repository.NewRunRepository(pool)
	reflectionRepo := repository.NewReflectionRepository(pool)
	teacherRepo := repository.NewTeacherRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg)
	accountService := service.NewAccountService(teacherRepo, studentRepo, authService)
	catalogService := service.NewCatalogService(scenarioRepo, log)
	playService := service.NewPlayService(catalogService, runRepo, reflectionRepo, rdb, cfg, log)
	classroomService := service.NewClassroomService(sessionRepo, catalogService, rdb, cfg, log)

	// ─── Load Scenario Catalog ─────────────────────────────────────────
	// All scenarios are validated and held in RAM BEFORE accepting
	// traffic: a scene graph with dangling references never goes live.
	if err := catalogService.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Scenario catalog load failed")
	}

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:      handler.NewAuthHandler(accountService),
		Scenario:  handler.NewScenarioHandler(catalogService),
		Play:      handler.NewPlayHandler(playService),
		Classroom: handler.NewClassroomHandler(classroomService),
		WS:        handler.NewWSHandler(classroomService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	historyWorker := worker.NewHistoryWorker(pool, rdb, log)
	reflectionWorker := worker.NewReflectionWorker(pool, rdb, log)

	go historyWorker.Start(workerCtx)
	go reflectionWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
