package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/lifepath/lifepath-backend/internal/config"
	"github.com/lifepath/lifepath-backend/internal/database"
	"github.com/lifepath/lifepath-backend/internal/logger"
	"github.com/lifepath/lifepath-backend/internal/model"
	"github.com/lifepath/lifepath-backend/internal/repository"
)

func main() {
	var dir string
	flag.StringVar(&dir, "path", "scenarios", "Path to scenario JSON files")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	scenarioRepo := repository.NewScenarioRepository(pool)

	entries, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list scenario files")
	}
	if len(entries) == 0 {
		log.Fatal().Str("path", dir).Msg("No scenario files found")
	}
	// File order determines catalog position.
	sort.Strings(entries)

	fmt.Printf("=== Seeding %d Scenarios ===\n", len(entries))

	for i, path := range entries {
		raw, err := os.ReadFile(path)
		if err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("Failed to read scenario file")
		}

		var scenario model.Scenario
		if err := json.Unmarshal(raw, &scenario); err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("Invalid scenario JSON")
		}

		// Reject broken scene graphs before they touch the database.
		if err := scenario.Validate(); err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("Scenario validation failed")
		}

		if err := scenarioRepo.Upsert(ctx, i, &scenario); err != nil {
			log.Fatal().Err(err).Str("scenario_id", scenario.ID).Msg("Upsert failed")
		}

		fmt.Printf("  [%d/%d] %s (%s): %d scenes\n", i+1, len(entries), scenario.Title, scenario.ID, len(scenario.Scenes))
	}

	fmt.Println("Done.")
}
