package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapframe/internal/backend"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Engine == "" {
		return fmt.Errorf("engine is required")
	}
	if !backend.IsRegistered(c.Engine) {
		return fmt.Errorf("unknown engine %q (available: %s)\nHint: set 'engine' in leapframe.yaml or use --engine",
			c.Engine, strings.Join(backend.Engines(), ", "))
	}
	if c.HeadRows < 0 {
		return fmt.Errorf("head_rows must not be negative, got %d", c.HeadRows)
	}
	if c.InboxSize < 1 {
		return fmt.Errorf("inbox_size must be at least 1, got %d", c.InboxSize)
	}
	return nil
}
