package backend

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Factory opens a backend.
type Factory func(ctx context.Context, cfg Config) (Backend, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds an engine factory to the registry.
// Called by engine implementations in their init() functions.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Get retrieves an engine factory by name.
func Get(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// Open creates a backend for cfg.Engine.
func Open(ctx context.Context, cfg Config) (Backend, error) {
	if cfg.Engine == "" {
		return nil, fmt.Errorf("engine not specified")
	}

	factory, ok := Get(cfg.Engine)
	if !ok {
		return nil, &UnknownEngineError{
			Engine:    cfg.Engine,
			Available: Engines(),
		}
	}
	return factory(ctx, cfg)
}

// Engines returns all registered engine names (sorted).
func Engines() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if an engine is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}
