package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dlms/dlms-backend/internal/config"
	"github.com/dlms/dlms-backend/internal/database"
	"github.com/dlms/dlms-backend/internal/handler"
	"github.com/dlms/dlms-backend/internal/logger"
	"github.com/dlms/dlms-backend/internal/middleware"
	"github.com/dlms/dlms-backend/internal/repository"
	"github.com/dlms/dlms-backend/internal/router"
	"github.com/dlms/dlms-backend/internal/service"
	"github.com/dlms/dlms-backend/internal/validator"
	"github.com/dlms/dlms-backend/internal/worker"
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
		Msg("Starting DLMS Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	catalog, err := config.LoadViolationCatalog(cfg.ViolationCatalogPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.ViolationCatalogPath).Msg("Failed to load violation catalog")
	}

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
	userRepo := repository.NewUserRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	scheduleRepo := repository.NewExamScheduleRepository(pool)
	resultRepo := repository.NewExamResultRepository(pool)
	licenseRepo := repository.NewLicenseRepository(pool)
	draftRepo := repository.NewAnswerDraftRepository(pool)
	examCache := service.NewRedisExamCache(rdb)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, userRepo)
	deliveryService := service.NewExamDeliveryService(cfg, scheduleRepo, questionRepo, draftRepo, examCache, log)
	scoringService := service.NewExamScoringService(cfg, scheduleRepo, questionRepo, resultRepo, draftRepo, examCache, log)
	scheduleService := service.NewScheduleService(cfg, scheduleRepo, nil, log)
	questionService := service.NewQuestionService(questionRepo, examCache, log)
	licenseService := service.NewLicenseService(cfg, catalog, licenseRepo, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"postgres": pool.Ping,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}),
		Auth:      handler.NewAuthHandler(authService, log),
		Exam:      handler.NewExamHandler(deliveryService, scoringService, scheduleService, log),
		AdminExam: handler.NewAdminExamHandler(scheduleService, log),
		Question:  handler.NewQuestionHandler(questionService, log),
		License:   handler.NewLicenseHandler(licenseService, log),
		WS:        handler.NewWSHandler(deliveryService, scoringService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	autosaveWorker := worker.NewAutosaveWorker(draftRepo, rdb, log)
	expiryWorker := worker.NewExpiryWorker(scheduleService, cfg.ExpirySweepInterval, log)

	workers.Add(2)
	go func() { defer workers.Done(); autosaveWorker.Start(workerCtx) }()
	go func() { defer workers.Done(); expiryWorker.Start(workerCtx) }()

	// ─── Setup Router ──────────────────────────────────────────────────
	// 10 login attempts per minute per IP.
	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	defer loginLimiter.Close()

	r := router.SetupRouter(authService, handlers, loginLimiter, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	// 2. Stop background workers and wait for the autosave queue to drain.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
