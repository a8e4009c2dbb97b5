package cache

import "time"

// Cache is the read-through store for token display metadata. Implementations
// are best-effort: a rejected Set or missed Get only costs a registry lookup.
type Cache interface {
	// Get returns (value, true) if the key is present.
	Get(key string) (interface{}, bool)

	// Set stores a value with a TTL. It reports whether the entry was
	// admitted.
	Set(key string, value interface{}, ttl time.Duration) bool

	// Delete removes a value from the cache.
	Delete(key string)

	// Clear removes all values from the cache.
	Clear()

	// Close releases cache resources.
	Close()
}
