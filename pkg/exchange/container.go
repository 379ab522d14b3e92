package exchange

import (
	"fmt"
	"sync"
)

// Container is a thread-safe registry of adapter instances keyed by
// exchange name. It lets an application hold one adapter per live
// connection and look them up uniformly.
type Container struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewContainer creates an empty adapter container.
func NewContainer() *Container {
	return &Container{
		adapters: make(map[string]Adapter),
	}
}

// Register adds an adapter under the given name, replacing any previous one.
func (c *Container) Register(name string, a Adapter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.adapters[name] = a
}

// Get retrieves an adapter by name.
func (c *Container) Get(name string) (Adapter, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	a, ok := c.adapters[name]
	if !ok {
		return nil, fmt.Errorf("adapter %q not found", name)
	}
	return a, nil
}

// Names returns all registered adapter names.
func (c *Container) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.adapters))
	for name := range c.adapters {
		names = append(names, name)
	}
	return names
}

// Unregister removes an adapter by name.
func (c *Container) Unregister(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.adapters, name)
}

// Exists reports whether an adapter is registered under the given name.
func (c *Container) Exists(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.adapters[name]
	return ok
}
