package main

import (
	"context"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/stemsi/websurvey-backend/internal/config"
	"github.com/stemsi/websurvey-backend/internal/database"
	"github.com/stemsi/websurvey-backend/internal/logger"
	"github.com/stemsi/websurvey-backend/internal/model"
	"github.com/stemsi/websurvey-backend/internal/repository"
	"github.com/stemsi/websurvey-backend/internal/service"
)

func main() {
	var (
		file      string
		batchSize int
		dryRun    bool
	)
	flag.StringVarP(&file, "file", "f", "", "CSV file with nama_responden,kode_unik rows (required)")
	flag.IntVarP(&batchSize, "batch", "b", 500, "Codes per insert batch")
	flag.BoolVar(&dryRun, "dry-run", false, "Parse and report without writing")
	flag.Parse()

	if file == "" {
		fmt.Fprintln(os.Stderr, "Usage: seed-codes --file codes.csv [--batch 500] [--dry-run]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	f, err := os.Open(file)
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("Failed to open CSV")
	}
	defer f.Close()

	reqs, err := parseCodes(f)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse CSV")
	}
	fmt.Printf("=== Seeding %d unique codes ===\n", len(reqs))
	if dryRun || len(reqs) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	codeService := service.NewUniqueCodeService(repository.NewUniqueCodeRepository(pool), cfg.CodeCacheTTL, log)

	var inserted, duplicates int
	for _, batch := range chunk(reqs, batchSize) {
		res := codeService.CreateMany(ctx, batch)
		if !res.Success {
			log.Fatal().Str("message", res.Message).Str("error", res.Error).Msg("Batch failed")
		}
		result := res.Data.(*model.BulkInsertResult)
		inserted += len(result.Inserted)
		duplicates += len(result.Duplicates)
		for _, code := range result.Duplicates {
			fmt.Printf("  skipped existing code %s\n", code)
		}
	}

	fmt.Printf("Done. Inserted: %d, skipped: %d\n", inserted, duplicates)
}
