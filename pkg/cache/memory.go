package cache

import (
	"sync"
)

// MemoryCache implements a thread-safe in-memory Store.
type MemoryCache[K comparable, V any] struct {
	mu sync.RWMutex

	data map[K]V

	extractors map[string]func(V) any

	// indexName -> indexValue -> set of keys
	indices map[string]map[any]map[K]struct{}
}

// NewMemoryCache creates a new instance of MemoryCache
func NewMemoryCache[K comparable, V any]() *MemoryCache[K, V] {
	return &MemoryCache[K, V]{
		data:       make(map[K]V),
		extractors: make(map[string]func(V) any),
		indices:    make(map[string]map[any]map[K]struct{}),
	}
}

// Set adds or replaces an item, keeping indexes in sync.
func (c *MemoryCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, exists := c.data[key]; exists {
		c.unindex(key, old)
	}
	c.data[key] = value
	c.index(key, value)
}

// Get retrieves an item from the cache
func (c *MemoryCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.data[key]
	return val, ok
}

// Del removes an item from the cache
func (c *MemoryCache[K, V]) Del(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, exists := c.data[key]; exists {
		c.unindex(key, old)
		delete(c.data, key)
	}
}

// Len returns the number of items in the cache
func (c *MemoryCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Values returns all values in unspecified order.
func (c *MemoryCache[K, V]) Values() []V {
	c.mu.RLock()
	defer c.mu.RUnlock()

	values := make([]V, 0, len(c.data))
	for _, v := range c.data {
		values = append(values, v)
	}
	return values
}

// Clear removes all items; registered indexes stay registered.
func (c *MemoryCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[K]V)
	c.indices = make(map[string]map[any]map[K]struct{}, len(c.extractors))
	for name := range c.extractors {
		c.indices[name] = make(map[any]map[K]struct{})
	}
}

// AddIndex registers a secondary index and indexes existing items.
func (c *MemoryCache[K, V]) AddIndex(name string, extractor func(V) any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.extractors[name] = extractor
	c.indices[name] = make(map[any]map[K]struct{})
	for k, v := range c.data {
		c.addIndexEntry(name, extractor(v), k)
	}
}

// Find retrieves items matching the index criteria
func (c *MemoryCache[K, V]) Find(indexName string, indexValue any) ([]V, error) {
	return c.FindAll(map[string]any{indexName: indexValue})
}

// FindAll intersects the key sets of every constraint, starting from the smallest.
func (c *MemoryCache[K, V]) FindAll(constraints map[string]any) ([]V, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(constraints) == 0 {
		values := make([]V, 0, len(c.data))
		for _, v := range c.data {
			values = append(values, v)
		}
		return values, nil
	}

	sets := make([]map[K]struct{}, 0, len(constraints))
	for name, value := range constraints {
		if _, ok := c.extractors[name]; !ok {
			return nil, ErrIndexNotFound
		}
		keySet := c.indices[name][value]
		if len(keySet) == 0 {
			return []V{}, nil
		}
		sets = append(sets, keySet)
	}

	smallest := 0
	for i, s := range sets {
		if len(s) < len(sets[smallest]) {
			smallest = i
		}
	}

	results := make([]V, 0, len(sets[smallest]))
next:
	for k := range sets[smallest] {
		for i, s := range sets {
			if i == smallest {
				continue
			}
			if _, ok := s[k]; !ok {
				continue next
			}
		}
		if v, ok := c.data[k]; ok {
			results = append(results, v)
		}
	}
	return results, nil
}

// Filter scans the cache and returns items matching the predicate
func (c *MemoryCache[K, V]) Filter(predicate func(V) bool) []V {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var results []V
	for _, v := range c.data {
		if predicate(v) {
			results = append(results, v)
		}
	}
	return results
}

// lock held

func (c *MemoryCache[K, V]) index(key K, value V) {
	for name, extractor := range c.extractors {
		c.addIndexEntry(name, extractor(value), key)
	}
}

func (c *MemoryCache[K, V]) unindex(key K, value V) {
	for name, extractor := range c.extractors {
		c.removeIndexEntry(name, extractor(value), key)
	}
}

func (c *MemoryCache[K, V]) addIndexEntry(indexName string, indexValue any, key K) {
	index, ok := c.indices[indexName]
	if !ok {
		index = make(map[any]map[K]struct{})
		c.indices[indexName] = index
	}

	keySet, ok := index[indexValue]
	if !ok {
		keySet = make(map[K]struct{})
		index[indexValue] = keySet
	}
	keySet[key] = struct{}{}
}

func (c *MemoryCache[K, V]) removeIndexEntry(indexName string, indexValue any, key K) {
	if index, ok := c.indices[indexName]; ok {
		if keySet, ok := index[indexValue]; ok {
			delete(keySet, key)
			if len(keySet) == 0 {
				delete(index, indexValue)
			}
		}
	}
}
