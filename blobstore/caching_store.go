package blobstore

import (
	"context"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CachingStore wraps a Store and keeps recently read blobs in memory.
//
// Reads are served from the cache until the entry expires. Put and Delete
// through the wrapper invalidate the entry; writes that bypass the wrapper
// are only observed after expiry.
type CachingStore struct {
	inner Store
	cache *gocache.Cache

	hits   atomic.Int64
	misses atomic.Int64
}

// DefaultCacheTTL is used when NewCachingStore is given a ttl <= 0.
const DefaultCacheTTL = 5 * time.Minute

// NewCachingStore creates a new CachingStore.
// ttl defaults to DefaultCacheTTL if <= 0.
func NewCachingStore(inner Store, ttl time.Duration) *CachingStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachingStore{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Get returns a blob from the cache, reading through on a miss.
func (s *CachingStore) Get(ctx context.Context, name string) ([]byte, error) {
	if v, ok := s.cache.Get(name); ok {
		s.hits.Add(1)
		return clone(v.([]byte)), nil
	}
	s.misses.Add(1)

	data, err := s.inner.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	s.cache.SetDefault(name, clone(data))
	return data, nil
}

// Put invalidates the cached entry and writes through.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.cache.Delete(name)
	return s.inner.Put(ctx, name, data)
}

// Delete invalidates the cached entry and deletes through.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.cache.Delete(name)
	return s.inner.Delete(ctx, name)
}

// List is never cached.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Flush drops every cached entry.
func (s *CachingStore) Flush() {
	s.cache.Flush()
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// Stats returns the current cache statistics.
func (s *CachingStore) Stats() CacheStats {
	return CacheStats{
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
		Entries: s.cache.ItemCount(),
	}
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}

var _ Store = (*CachingStore)(nil)
