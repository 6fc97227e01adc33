package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"sort"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// DuckDB is an open engine connection.
type DuckDB struct {
	DB     *sql.DB
	Cfg    Config
	Logger *slog.Logger
}

// Open establishes a connection to DuckDB.
// Use ":memory:" as the path for an in-memory database.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DuckDB, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	db, err := sql.Open("duckdb", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}

	logger.Debug("opened duckdb", slog.String("path", cfg.Path))
	return &DuckDB{DB: db, Cfg: cfg, Logger: logger}, nil
}

func dsn(cfg Config) string {
	path := cfg.Path
	if path == MemoryPath {
		path = ""
	}
	if len(cfg.Options) == 0 {
		return path
	}

	keys := make([]string, 0, len(cfg.Options))
	for k := range cfg.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	q := url.Values{}
	for _, k := range keys {
		q.Set(k, cfg.Options[k])
	}
	return path + "?" + q.Encode()
}

// InMemory reports whether the database lives only in this process.
func (a *DuckDB) InMemory() bool {
	return a.Cfg.Path == "" || a.Cfg.Path == MemoryPath
}

// Close closes the database connection.
func (a *DuckDB) Close() error {
	if a.DB != nil {
		a.Logger.Debug("closing database connection")
		return a.DB.Close()
	}
	return nil
}

// Exec executes a SQL statement that doesn't return rows.
func (a *DuckDB) Exec(ctx context.Context, sqlStr string, args ...any) error {
	if a.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	if _, err := a.DB.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// QueryContext executes a SQL statement that returns rows.
func (a *DuckDB) QueryContext(ctx context.Context, sqlStr string, args ...any) (*sql.Rows, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration completes
	return a.DB.QueryContext(ctx, sqlStr, args...)
}

// TableExists reports whether a table or view is registered under name.
// Names match case-insensitively, as engine identifiers do.
func (a *DuckDB) TableExists(ctx context.Context, name string) (bool, error) {
	if a.DB == nil {
		return false, fmt.Errorf("database connection not established")
	}

	var n int
	err := a.DB.QueryRowContext(ctx,
		`SELECT count(*) FROM information_schema.tables WHERE lower(table_name) = lower(?)`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query catalog: %w", err)
	}
	return n > 0, nil
}
