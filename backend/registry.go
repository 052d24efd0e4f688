package backend

import (
	"sort"
	"sync"

	"github.com/gogpu/draw"
)

// BackendFactory creates a new backend instance.
type BackendFactory func() RenderBackend

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]BackendFactory)
	// Priority order for backend selection (first available wins).
	backendPriority = []string{BackendNative, BackendSoftware}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory BackendFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the sorted names of the registered backends.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Get returns a backend instance by name.
// Returns nil if the backend is not registered.
func Get(name string) RenderBackend {
	registryMu.RLock()
	defer registryMu.RUnlock()

	factory, ok := backends[name]
	if !ok {
		return nil
	}
	return factory()
}

// candidates returns one instance of every registered backend, in
// priority order followed by the rest sorted by name.
func candidates() []RenderBackend {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var out []RenderBackend
	seen := make(map[string]bool)
	for _, name := range backendPriority {
		if factory, ok := backends[name]; ok {
			seen[name] = true
			if b := factory(); b != nil {
				out = append(out, b)
			}
		}
	}
	rest := make([]string, 0, len(backends))
	for name := range backends {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		if b := backends[name](); b != nil {
			out = append(out, b)
		}
	}
	return out
}

// Default returns the best available backend based on priority.
// Priority order: native > software
// Returns nil if no backends are registered.
func Default() RenderBackend {
	if c := candidates(); len(c) > 0 {
		return c[0]
	}
	return nil
}

// MustDefault returns the default backend or panics.
func MustDefault() RenderBackend {
	b := Default()
	if b == nil {
		panic("backend: no backend available")
	}
	return b
}

// InitDefault initializes the first backend, in priority order, whose Init
// succeeds.
func InitDefault() (RenderBackend, error) {
	for _, b := range candidates() {
		if err := b.Init(); err != nil {
			draw.Logger().Warn("backend: init failed", "backend", b.Name(), "err", err)
			continue
		}
		draw.Logger().Info("backend: selected", "backend", b.Name())
		return b, nil
	}
	return nil, ErrBackendNotAvailable
}
