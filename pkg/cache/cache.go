// Package cache provides a generic in-memory keyed store with secondary indexes.
package cache

import "errors"

// ErrIndexNotFound is returned when querying a non-existent index.
var ErrIndexNotFound = errors.New("index not found")

// Store is a keyed collection that can be queried by secondary index.
type Store[K comparable, V any] interface {
	Set(key K, value V)
	Get(key K) (V, bool)
	Del(key K)
	Len() int
	Values() []V
	Clear()

	// AddIndex registers a secondary index computed by extractor.
	AddIndex(name string, extractor func(V) any)
	// Find returns the items whose index value equals indexValue.
	Find(indexName string, indexValue any) ([]V, error)
	// FindAll returns the items matching every index constraint.
	// An empty constraint set returns all items.
	FindAll(constraints map[string]any) ([]V, error)
	// Filter scans the store and returns items matching the predicate.
	Filter(predicate func(V) bool) []V
}

var _ Store[string, int] = (*MemoryCache[string, int])(nil)
