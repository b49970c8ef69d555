package pattern

import "sync"

// Cache compiles each distinct pattern once. Compiled graphs are read-only,
// so a Cache can be shared by concurrent parses.
type Cache struct {
	mu     sync.RWMutex
	graphs map[string]*Graph
	errs   map[string]error
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		graphs: make(map[string]*Graph),
		errs:   make(map[string]error),
	}
}

// Get returns the compiled graph for pattern, compiling it on first use.
// Compile failures are cached as well.
func (c *Cache) Get(pattern string) (*Graph, error) {
	c.mu.RLock()
	g, ok := c.graphs[pattern]
	err := c.errs[pattern]
	c.mu.RUnlock()
	if ok || err != nil {
		return g, err
	}

	g, err = Compile(pattern)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.errs[pattern] = err
		return nil, err
	}
	if existing, ok := c.graphs[pattern]; ok {
		return existing, nil
	}
	c.graphs[pattern] = g
	return g, nil
}

// Len returns the number of successfully compiled patterns.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.graphs)
}
