package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/websurvey-backend/internal/config"
	"github.com/stemsi/websurvey-backend/internal/database"
	"github.com/stemsi/websurvey-backend/internal/handler"
	"github.com/stemsi/websurvey-backend/internal/lock"
	"github.com/stemsi/websurvey-backend/internal/logger"
	"github.com/stemsi/websurvey-backend/internal/repository"
	"github.com/stemsi/websurvey-backend/internal/router"
	"github.com/stemsi/websurvey-backend/internal/service"
	"github.com/stemsi/websurvey-backend/internal/validator"
	"github.com/stemsi/websurvey-backend/internal/worker"
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
		Msg("Starting WebSurvey Backend")

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
	userRepo := repository.NewUserRepository(pool)
	sessionRepo := repository.NewSurveySessionRepository(pool)
	evaluationRepo := repository.NewSurveyEvaluationRepository(pool)
	codeRepo := repository.NewUniqueCodeRepository(pool)

	// One lock per entity id, shared by every API instance through Redis.
	locker := lock.NewRedisLocker(rdb, cfg.LockTTL, cfg.LockWait, log)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb, userRepo)
	sessionService := service.NewSurveySessionService(sessionRepo, userRepo, locker, log)
	evaluationService := service.NewSurveyEvaluationService(evaluationRepo, sessionRepo, userRepo, locker, log)
	codeService := service.NewUniqueCodeService(codeRepo, cfg.CodeCacheTTL, log)
	combinedService := service.NewCombinedDataService(userRepo, sessionRepo, evaluationRepo, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth: handler.NewAuthHandler(authService),
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"postgres": pool.Ping,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}, log),
		Session:      handler.NewSurveySessionHandler(sessionService),
		Evaluation:   handler.NewSurveyEvaluationHandler(evaluationService),
		UniqueCode:   handler.NewUniqueCodeHandler(codeService),
		CombinedData: handler.NewCombinedDataHandler(combinedService, log),
		WS:           handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	reconcileWorker := worker.NewReconcileWorker(userRepo, cfg.ReconcileInterval, log)
	workerDone := make(chan struct{})
	go func() {
		reconcileWorker.Start(workerCtx)
		close(workerDone)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
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

	// 2. Stop the reconcile worker; a pass in flight is cancelled.
	workerCancel()
	select {
	case <-workerDone:
	case <-time.After(2 * time.Second):
		log.Warn().Msg("Reconcile worker did not stop in time")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
