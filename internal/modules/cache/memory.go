package cache

import (
	"context"
	"errors"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/eko/gocache/store/go_cache/v4"
	gocache "github.com/patrickmn/go-cache"
)

const opTimeout = time.Second

// Manager is a typed, process local cache with per-key expiration.
type Manager[T any] struct {
	cache *cache.Cache[T]
}

func NewManager[T any](defaultExpiration, cleanupInterval time.Duration) *Manager[T] {
	client := gocache.New(defaultExpiration, cleanupInterval)
	return &Manager[T]{
		cache: cache.New[T](go_cache.NewGoCache(client)),
	}
}

func (m *Manager[T]) SetWithExpiration(key string, value T, expir time.Duration) error {
	timeout, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return m.cache.Set(timeout, key, value, store.WithExpiration(expir))
}

// Lookup reports a missing or expired key as ok == false with a nil error.
func (m *Manager[T]) Lookup(key string) (value T, ok bool, err error) {
	timeout, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	value, err = m.cache.Get(timeout, key)
	if err != nil {
		if errors.Is(err, store.NotFound{}) {
			return value, false, nil
		}
		return value, false, err
	}
	return value, true, nil
}
