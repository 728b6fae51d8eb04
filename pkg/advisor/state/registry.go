package state

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Registry hands out one Store per session key. Idle sessions expire; the
// persisted conversations remain and are hydrated again on demand.
type Registry struct {
	mu     sync.Mutex
	stores *cache.Cache
	ttl    time.Duration
}

func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		stores: cache.New(ttl, ttl/6+time.Minute),
		ttl:    ttl,
	}
}

// For returns the session's store, creating it on first use and extending its lifetime.
func (r *Registry) For(sessionKey string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.stores.Get(sessionKey); ok {
		store := v.(*Store)
		r.stores.SetDefault(sessionKey, store)
		return store
	}
	store := NewStore()
	r.stores.SetDefault(sessionKey, store)
	return store
}
