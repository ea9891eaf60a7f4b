package adapter

import (
	"fmt"
	"sync"

	"github.com/dbweave/dbweave/pkg/dbcapabilities"
)

// Registry manages the registration and retrieval of engine drivers.
// The zero value is not usable; call NewRegistry.
type Registry struct {
	mu      sync.RWMutex
	drivers map[dbcapabilities.EngineType]Driver
}

// NewRegistry creates a new driver registry.
func NewRegistry() *Registry {
	return &Registry{drivers: make(map[dbcapabilities.EngineType]Driver)}
}

// Register registers a driver. A driver already registered for the same
// engine type is replaced.
func (r *Registry) Register(d Driver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drivers[d.Type()] = d
}

// Get retrieves a registered driver by engine type.
// Returns ErrDriverNotFound when the engine has no driver.
func (r *Registry) Get(engine dbcapabilities.EngineType) (Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.drivers[engine]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDriverNotFound, engine)
	}
	return d, nil
}

// IsRegistered checks if a driver is registered for the given engine type.
func (r *Registry) IsRegistered(engine dbcapabilities.EngineType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.drivers[engine]
	return ok
}

// ListRegistered returns all engine types with a registered driver.
func (r *Registry) ListRegistered() []dbcapabilities.EngineType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]dbcapabilities.EngineType, 0, len(r.drivers))
	for engine := range r.drivers {
		out = append(out, engine)
	}
	return out
}

// New builds an unconnected Adapter for the configuration, resolving the
// engine from the connection string when the config leaves it empty.
func (r *Registry) New(cfg ConnectionConfig) (Adapter, error) {
	cfg = cfg.WithDefaults()
	d, err := r.Get(cfg.Engine)
	if err != nil {
		return nil, err
	}
	return d.New(cfg), nil
}

// defaultRegistry backs the package-level functions. Engine packages
// register into it from init, activated by blank imports.
var defaultRegistry = NewRegistry()

// Register adds a driver to the default registry.
func Register(d Driver) { defaultRegistry.Register(d) }

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry { return defaultRegistry }

// New builds an unconnected Adapter from the default registry.
func New(cfg ConnectionConfig) (Adapter, error) { return defaultRegistry.New(cfg) }
