// Package loader provides a request-scoped memoizing cache with batched
// lookups. A Loader lives as long as one unit of work (a service call or a
// transaction) and must never be shared between requests.
package loader

import (
	"context"
	"sync"
)

// BatchFunc fetches the values for keys in one round trip. Keys absent from
// the returned map are treated as missing.
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) (map[K]V, error)

type entry[V any] struct {
	value V
	found bool
}

// Loader memoizes the results of a BatchFunc, including misses.
type Loader[K comparable, V any] struct {
	batch BatchFunc[K, V]

	mu    sync.Mutex
	cache map[K]entry[V]
}

func New[K comparable, V any](batch BatchFunc[K, V]) *Loader[K, V] {
	return &Loader[K, V]{batch: batch, cache: make(map[K]entry[V])}
}

// Load returns the value for key. found is false when the batch function
// did not return it.
func (l *Loader[K, V]) Load(ctx context.Context, key K) (value V, found bool, err error) {
	res, err := l.LoadMany(ctx, []K{key})
	if err != nil {
		return value, false, err
	}
	value, found = res[key]
	return value, found, nil
}

// LoadMany returns the found values for keys. Uncached keys are
// deduplicated and fetched with a single batch call. Errors are not cached.
func (l *Loader[K, V]) LoadMany(ctx context.Context, keys []K) (map[K]V, error) {
	out := make(map[K]V, len(keys))
	var misses []K
	seen := make(map[K]struct{}, len(keys))

	l.mu.Lock()
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if e, ok := l.cache[k]; ok {
			if e.found {
				out[k] = e.value
			}
			continue
		}
		misses = append(misses, k)
	}
	l.mu.Unlock()

	if len(misses) == 0 {
		return out, nil
	}

	fetched, err := l.batch(ctx, misses)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, k := range misses {
		v, ok := fetched[k]
		l.cache[k] = entry[V]{value: v, found: ok}
		if ok {
			out[k] = v
		}
	}
	return out, nil
}

// Prime stores value for key, replacing any cached entry.
func (l *Loader[K, V]) Prime(key K, value V) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache[key] = entry[V]{value: value, found: true}
}

// Clear drops key from the cache.
func (l *Loader[K, V]) Clear(key K) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.cache, key)
}

// ClearAll empties the cache. Used after bulk writes whose affected keys are
// unknown.
func (l *Loader[K, V]) ClearAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	clear(l.cache)
}
