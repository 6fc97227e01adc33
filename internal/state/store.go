// Package state is the session journal.
//
// The journal is a small SQLite database that records every dataset
// registration and every executed command. It lets a new session restore
// the datasets of the previous one and lets the user review what ran.
package state

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// Dataset is a journaled registration.
type Dataset struct {
	ID           string
	Name         string
	Source       string
	RegisteredAt time.Time
}

// CommandRecord is a journaled command execution.
type CommandRecord struct {
	ID         string
	Name       string
	OK         bool
	Error      string
	Duration   time.Duration
	ExecutedAt time.Time
}

// SQLiteStore is the journal backed by SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens (creating if needed) the journal at path and migrates it.
// Use ":memory:" for a throwaway journal.
func Open(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	dsn := ":memory:"
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s := &SQLiteStore{db: db, path: path, logger: logger}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Debug("opened journal", slog.String("path", path))
	return s, nil
}

// Path returns the journal location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}

// RecordDataset journals a successful registration. Registering a name again
// replaces its source.
func (s *SQLiteStore) RecordDataset(ctx context.Context, name, source string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO datasets (id, name, source, registered_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			source = excluded.source,
			registered_at = excluded.registered_at`,
		generateID(), name, source, time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record dataset: %w", err)
	}

	s.logger.Debug("journaled dataset", slog.String("name", name), slog.String("source", source))
	return nil
}

// Datasets returns all journaled registrations, oldest first.
func (s *SQLiteStore) Datasets(ctx context.Context) ([]Dataset, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, source, registered_at
		FROM datasets
		ORDER BY registered_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query datasets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var datasets []Dataset
	for rows.Next() {
		var d Dataset
		var registeredAt int64
		if err := rows.Scan(&d.ID, &d.Name, &d.Source, &registeredAt); err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		d.RegisteredAt = time.UnixMilli(registeredAt).UTC()
		datasets = append(datasets, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating datasets: %w", err)
	}
	return datasets, nil
}

// RecordCommand journals one command execution.
func (s *SQLiteStore) RecordCommand(ctx context.Context, rec CommandRecord) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if rec.ID == "" {
		rec.ID = generateID()
	}
	if rec.ExecutedAt.IsZero() {
		rec.ExecutedAt = time.Now()
	}

	ok := 0
	if rec.OK {
		ok = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO commands (id, name, ok, error, duration_ms, executed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, ok, rec.Error, rec.Duration.Milliseconds(), rec.ExecutedAt.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record command: %w", err)
	}
	return nil
}

// Commands returns the most recent command executions, newest first.
// A limit of zero or less returns all of them.
func (s *SQLiteStore) Commands(ctx context.Context, limit int) ([]CommandRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, ok, error, duration_ms, executed_at
		FROM commands
		ORDER BY executed_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query commands: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []CommandRecord
	for rows.Next() {
		var rec CommandRecord
		var ok int
		var durationMS, executedAt int64
		if err := rows.Scan(&rec.ID, &rec.Name, &ok, &rec.Error, &durationMS, &executedAt); err != nil {
			return nil, fmt.Errorf("failed to scan command: %w", err)
		}
		rec.OK = ok == 1
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		rec.ExecutedAt = time.UnixMilli(executedAt).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating commands: %w", err)
	}
	return records, nil
}
