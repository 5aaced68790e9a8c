// Package store persists source files, metric rows, insights, reports
// and pipeline jobs in SQLite.
package store

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Store bundles the database handle with its repositories.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	Files    *FileRepository
	Metrics  *MetricRepository
	Insights *InsightRepository
	Reports  *ReportRepository
	Subjects *SubjectRepository
	Jobs     *JobRepository
}

// Open connects to the SQLite database at path, applies pragmas and runs
// embedded migrations.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := applyPragmas(db, logger); err != nil {
		db.Close()
		return nil, err
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("database ready", slog.String("path", path))

	return &Store{
		db:       db,
		logger:   logger,
		Files:    &FileRepository{db: db},
		Metrics:  &MetricRepository{db: db},
		Insights: &InsightRepository{db: db},
		Reports:  &ReportRepository{db: db},
		Subjects: &SubjectRepository{db: db},
		Jobs:     &JobRepository{db: db},
	}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the handle for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

func applyPragmas(db *sql.DB, logger *slog.Logger) error {
	pragmas := []struct {
		name  string
		value string
	}{
		{"journal_mode", "WAL"},
		{"synchronous", "NORMAL"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "ON"},
		{"temp_store", "MEMORY"},
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA %s = %s", pragma.name, pragma.value)); err != nil {
			logger.Warn("failed to apply pragma",
				slog.String("pragma", pragma.name),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
