// Package session keeps per-browser-profile state in memory and forgets it
// after a period of inactivity.
package session

import (
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Registry maps keys to lazily created values. Every Get extends the entry's
// TTL; idle entries are dropped by the cache's expiry loop.
type Registry[T any] struct {
	mu     sync.Mutex
	cache  *ttlcache.Cache[string, T]
	create func(key string) T

	stopOnce sync.Once
	done     chan struct{}
}

func NewRegistry[T any](ttl time.Duration, create func(key string) T) *Registry[T] {
	r := &Registry[T]{
		cache: ttlcache.New[string, T](
			ttlcache.WithTTL[string, T](ttl),
		),
		create: create,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(r.done)
		r.cache.Start()
	}()

	return r
}

// Get returns the value for key, creating it on first use, and marks it used.
func (r *Registry[T]) Get(key string) T {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item := r.cache.Get(key); item != nil {
		return item.Value()
	}
	value := r.create(key)
	r.cache.Set(key, value, ttlcache.DefaultTTL)
	return value
}

// Close stops the expiry loop. The registry stays usable.
func (r *Registry[T]) Close() {
	r.stopOnce.Do(func() {
		r.cache.Stop()
		<-r.done
	})
}
