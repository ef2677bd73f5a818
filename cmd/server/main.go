package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/biletnik/biletnik-backend/internal/config"
	"github.com/biletnik/biletnik-backend/internal/database"
	"github.com/biletnik/biletnik-backend/internal/handler"
	"github.com/biletnik/biletnik-backend/internal/logger"
	"github.com/biletnik/biletnik-backend/internal/repository"
	"github.com/biletnik/biletnik-backend/internal/router"
	"github.com/biletnik/biletnik-backend/internal/service"
	"github.com/biletnik/biletnik-backend/internal/session"
	"github.com/biletnik/biletnik-backend/internal/store"
	"github.com/biletnik/biletnik-backend/internal/validator"
	"github.com/biletnik/biletnik-backend/internal/worker"
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
		Msg("Starting Biletnik Backend")

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

	// ─── Initialize Store Layer ────────────────────────────────────────
	docs := store.NewDocumentStore(rdb, log)
	attempts := store.NewAttemptStorage(rdb, cfg.ExamDuration, log)
	manager := session.NewManager(docs, attempts, cfg.ExamDuration, cfg.QuestionsPerExam, log)

	// ─── Initialize Repositories and Services ──────────────────────────
	archiveRepo := repository.NewWorkArchiveRepository(pool)
	subjectService := service.NewSubjectService(docs, log)
	workService := service.NewWorkService(docs, log)
	reportService := service.NewReportService(docs, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Student: handler.NewStudentHandler(manager),
		Subject: handler.NewSubjectHandler(subjectService),
		Work:    handler.NewWorkHandler(workService, reportService, archiveRepo, log),
		Review:  handler.NewReviewHandler(workService),
		WS:      handler.NewWSHandler(manager, docs, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	archiveWorker := worker.NewArchiveWorker(archiveRepo, rdb, log)
	go archiveWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg)

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

	// 2. Stop the archive worker and wait for the queue to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow the worker to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
