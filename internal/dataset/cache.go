package dataset

import (
	"sync"

	"bikeshare-platform/internal/models"
)

// LoadFunc produces an enriched table for a dataset path.
type LoadFunc func(path string) ([]models.EnrichedRental, error)

// Cache memoizes enriched tables by file path for the process lifetime.
// There is no invalidation: the dataset is a static input and a table,
// once built, is immutable and safely shared across readers. The cache is
// an explicit dependency so tests can inject their own LoadFunc.
type Cache struct {
	mu     sync.Mutex
	load   LoadFunc
	tables map[string][]models.EnrichedRental
}

// NewCache creates a cache backed by the given loader. Pass LoadAndEnrich
// for the production CSV path.
func NewCache(load LoadFunc) *Cache {
	return &Cache{
		load:   load,
		tables: make(map[string][]models.EnrichedRental),
	}
}

// Get returns the enriched table for path, loading it on first use.
// A failed load is not cached; the next Get retries.
func (c *Cache) Get(path string) ([]models.EnrichedRental, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if table, ok := c.tables[path]; ok {
		return table, nil
	}

	table, err := c.load(path)
	if err != nil {
		return nil, err
	}

	c.tables[path] = table
	return table, nil
}

// Len returns the number of cached tables, for observability.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tables)
}
