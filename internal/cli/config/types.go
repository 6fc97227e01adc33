// Package config provides configuration management for the leapframe CLI.
//
// Values come from built-in defaults, a leapframe.yaml file, LEAPFRAME_*
// environment variables and explicitly set flags, in increasing precedence.
package config

import (
	"github.com/leapstack-labs/leapframe/internal/actor"
	"github.com/leapstack-labs/leapframe/internal/adapter"
	"github.com/leapstack-labs/leapframe/internal/backend"
)

// Defaults for configuration values.
const (
	DefaultEngine      = backend.EngineDuckDB
	DefaultDatabase    = adapter.MemoryPath
	DefaultStateFile   = ".leapframe/state.db"
	DefaultHistoryFile = ".leapframe/history"
	DefaultHeadRows    = 5
	DefaultInboxSize   = actor.DefaultInboxSize
	DefaultPrompt      = "leapframe> "
)

// Config holds all CLI configuration options.
type Config struct {
	Engine      string `koanf:"engine"`
	Database    string `koanf:"database"`
	StatePath   string `koanf:"state_path"` // empty disables the journal
	HistoryFile string `koanf:"history_file"`
	HeadRows    int    `koanf:"head_rows"`
	InboxSize   int    `koanf:"inbox_size"`
	Restore     bool   `koanf:"restore"`
	Prompt      string `koanf:"prompt"`
	Verbose     bool   `koanf:"verbose"`

	// Settings are passed to the engine when it opens, e.g. threads: 4.
	Settings map[string]string `koanf:"settings"`
}

// Default returns the configuration used when nothing is loaded.
func Default() *Config {
	return &Config{
		Engine:      DefaultEngine,
		Database:    DefaultDatabase,
		StatePath:   DefaultStateFile,
		HistoryFile: DefaultHistoryFile,
		HeadRows:    DefaultHeadRows,
		InboxSize:   DefaultInboxSize,
		Prompt:      DefaultPrompt,
	}
}

// InMemory reports whether the engine database lives only for the session.
func (c *Config) InMemory() bool {
	return c.Database == "" || c.Database == adapter.MemoryPath
}

// JournalEnabled reports whether commands are journaled.
func (c *Config) JournalEnabled() bool {
	return c.StatePath != ""
}

// ShouldRestore reports whether journaled datasets are re-registered at
// startup. A persistent database keeps its own views, so only an in-memory
// database is restored.
func (c *Config) ShouldRestore() bool {
	return c.Restore && c.JournalEnabled() && c.InMemory()
}
