// Package plugin defines the collector plugin interface for stocktake.
package plugin

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/yairfalse/stocktake/pkg/resource"
)

// Plugin is the interface all cloud provider plugins must implement.
type Plugin interface {
	// Name returns the plugin identifier (e.g., "aws")
	Name() string

	// AccountID resolves the account the plugin credentials belong to.
	AccountID(ctx context.Context) (string, error)

	// Collect returns the normalized records of one resource type.
	// An error means the primary listing failed; sub-attribute failures
	// are absorbed into record defaults.
	Collect(ctx context.Context, t resource.Type) ([]resource.Record, error)
}

// Config holds the settings a plugin factory needs.
type Config struct {
	Region  string
	Profile string
}

// Factory builds a plugin from configuration.
type Factory func(ctx context.Context, cfg Config) (Plugin, error)

// Registry holds registered plugin factories.
var (
	registry = make(map[string]Factory)
	mu       sync.RWMutex
)

// Register adds a plugin factory to the registry.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = f
}

// Open builds the named plugin.
func Open(ctx context.Context, name string, cfg Config) (Plugin, error) {
	mu.RLock()
	f, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown plugin %q", name)
	}
	return f(ctx, cfg)
}

// Names returns all registered plugin names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear removes all factories from the registry. Used for testing.
func Clear() {
	mu.Lock()
	defer mu.Unlock()
	registry = make(map[string]Factory)
}
