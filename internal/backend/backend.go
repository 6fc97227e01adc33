// Package backend is the tabular engine facade.
//
// A Backend registers named datasets from file sources and answers questions
// about them. Every read operation returns a lazy frame.Frame; nothing is
// materialized until the caller collects or displays it. A Backend is not
// safe for concurrent use and is meant to be owned by a single goroutine.
package backend

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/leapframe/internal/frame"
	"github.com/leapstack-labs/leapframe/internal/source"
)

// ConnectOptions describes a dataset registration.
type ConnectOptions struct {
	// Source is the parsed data source.
	Source source.Descriptor

	// Table is the remote table name for relational sources.
	Table string

	// Name is the catalog name the dataset is registered under.
	Name string
}

// Backend is the capability set of a tabular engine.
type Backend interface {
	// Connect registers opts.Name bound to opts.Source.
	Connect(ctx context.Context, opts ConnectOptions) error

	// List returns the registered datasets as (name, kind).
	List(ctx context.Context) (frame.Frame, error)

	// Schema returns the columns of a dataset.
	Schema(ctx context.Context, name string) (frame.Frame, error)

	// Head returns the first n rows of a dataset.
	Head(ctx context.Context, name string, n int) (frame.Frame, error)

	// Describe returns the statistical summary of a dataset.
	Describe(ctx context.Context, name string) (frame.Frame, error)

	// SQL runs an arbitrary query against the catalog.
	SQL(ctx context.Context, query string) (frame.Frame, error)

	// Close releases the engine.
	Close() error
}

// Config selects and configures an engine.
type Config struct {
	// Engine is the registered engine name, e.g. "duckdb".
	Engine string

	// Database is the engine database path. ":memory:" keeps everything in process.
	Database string

	// Settings are engine configuration options applied when the database is
	// opened, e.g. "threads" or "memory_limit".
	Settings map[string]string

	// Logger receives engine diagnostics. Nil discards them.
	Logger *slog.Logger
}
