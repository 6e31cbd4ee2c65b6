package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ProbeTimeout bounds the diagnostic count query.
const ProbeTimeout = 5 * time.Second

var ErrProbeTimeout = errors.New("database probe timed out")

func Connect(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func RunMigrations(db *sqlx.DB, migrationsPath string) error {
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres driver: %w", err)
	}

	absPath, err := filepath.Abs(migrationsPath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", absPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func Exists(ctx context.Context, db *sqlx.DB, query string, args ...any) (bool, error) {
	var exists bool
	err := db.GetContext(ctx, &exists, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return exists, err
}

// ProbeResult is what the connectivity diagnostic reports.
type ProbeResult struct {
	Connected  bool  `json:"connected"`
	ClassCount int   `json:"class_count"`
	LatencyMS  int64 `json:"latency_ms"`
}

// Probe pings the database and counts the classes table, giving up after ProbeTimeout.
func Probe(ctx context.Context, db *sqlx.DB) (*ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	start := time.Now()
	res := &ProbeResult{}

	if err := db.PingContext(ctx); err != nil {
		return res, probeErr(ctx, err)
	}
	res.Connected = true

	if err := db.GetContext(ctx, &res.ClassCount, `SELECT COUNT(*) FROM classes`); err != nil {
		return res, probeErr(ctx, err)
	}

	res.LatencyMS = time.Since(start).Milliseconds()
	return res, nil
}

func probeErr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrProbeTimeout
	}
	return err
}
