package main

import (
	"context"
	_ "embed"
	"errors"
	"flag"
	"time"

	"fitconnect/internal/config"
	"fitconnect/internal/db"
	"fitconnect/internal/logger"
)

//go:embed fixtures.json
var fixturesJSON []byte

func main() {
	wipe := flag.Bool("clear", false, "wipe studios, instructors, classes, bookings and favorites first")
	from := flag.String("from", "", "first class date (YYYY-MM-DD); defaults to today, \"keep\" leaves fixture dates alone")
	flag.Parse()

	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	fixtures, err := ParseFixtures(fixturesJSON)
	if err != nil {
		logger.Fatalf("Failed to read fixtures: %v", err)
	}

	if *from != "keep" {
		start := time.Now()
		if *from != "" {
			if start, err = time.Parse(dateLayout, *from); err != nil {
				logger.Fatalf("Invalid -from date: %v", err)
			}
		}
		if err := fixtures.RebaseDates(start); err != nil {
			logger.Fatalf("Failed to rebase class dates: %v", err)
		}
	}

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	summary, err := Seed(context.Background(), database, fixtures, *wipe)
	if errors.Is(err, ErrAlreadySeeded) {
		logger.Warn("Skipping seed", "reason", err.Error())
		return
	}
	if err != nil {
		logger.Fatalf("Seed failed: %v", err)
	}

	logger.Info("Seed completed",
		"studios", summary.Studios,
		"instructors", summary.Instructors,
		"classes", summary.Classes,
	)
}
