package main

import (
	"context"
	"fmt"
	"time"

	"github.com/stemsi/websurvey-backend/internal/config"
	"github.com/stemsi/websurvey-backend/internal/database"
	"github.com/stemsi/websurvey-backend/internal/logger"
	"github.com/stemsi/websurvey-backend/internal/repository"
	"github.com/stemsi/websurvey-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	fmt.Println("=== Reconcile Active References ===")
	fmt.Println("Recomputes users.active_survey_session_id and users.active_evaluation_id.")

	changed := worker.NewReconcileWorker(repository.NewUserRepository(pool), 0, log).RunOnce(ctx)
	fmt.Printf("Done. %d user rows updated.\n", changed)
}
