// Package adapter wraps the embedded DuckDB engine behind database/sql.
package adapter

// MemoryPath opens a private, in-memory database.
const MemoryPath = ":memory:"

// Config holds the configuration for opening the engine.
type Config struct {
	// Path is the database file. Use ":memory:" (or "") for an in-memory database.
	Path string

	// Options are appended to the DSN as query parameters, e.g. "threads": "4".
	Options map[string]string
}
