// ironlog-seed loads a YAML exercise catalog into the shared system catalog.
// Idempotent: re-running with the same file updates muscle groups in place.
//
// Catalog format:
//
//	exercises:
//	  - name: Barbell Bench Press
//	    muscle_group: chest
//	  - name: Deadlift
//	    muscle_group: back
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/ironlog/internal/config"
	"github.com/claude/ironlog/internal/storage"
	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Exercises []struct {
		Name        string `yaml:"name"`
		MuscleGroup string `yaml:"muscle_group"`
	} `yaml:"exercises"`
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	catalogPath := flag.String("catalog", "exercises.yaml", "path to exercise catalog file")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := run(*configPath, *catalogPath, log); err != nil {
		log.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, catalogPath string, log *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	data, err := os.ReadFile(catalogPath)
	if err != nil {
		return fmt.Errorf("reading catalog: %w", err)
	}
	var catalog catalogFile
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return fmt.Errorf("parsing catalog: %w", err)
	}
	if len(catalog.Exercises) == 0 {
		return fmt.Errorf("catalog %s contains no exercises", catalogPath)
	}

	ctx := context.Background()
	db, err := storage.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting database: %w", err)
	}
	defer db.Close()

	for _, ex := range catalog.Exercises {
		if ex.Name == "" {
			return fmt.Errorf("catalog entry with empty name")
		}
		id, err := db.UpsertSystemExercise(ctx, ex.Name, ex.MuscleGroup)
		if err != nil {
			return fmt.Errorf("seeding %q: %w", ex.Name, err)
		}
		log.Info("seeded", "exercise", ex.Name, "id", id)
	}

	log.Info("catalog seeded", "count", len(catalog.Exercises))
	return nil
}
