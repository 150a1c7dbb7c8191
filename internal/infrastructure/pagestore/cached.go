package pagestore

import (
	"context"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ersonp/provpack/internal/domain/ports"
)

// CachedStore keeps recently read page images in memory.
type CachedStore struct {
	next  ports.PageSource
	cache *gocache.Cache
}

// NewCachedStore wraps next with a cache whose entries expire after ttl.
func NewCachedStore(next ports.PageSource, ttl time.Duration) *CachedStore {
	return &CachedStore{
		next:  next,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// PageBytes returns the cached image or reads it through. Failures are not cached.
func (s *CachedStore) PageBytes(ctx context.Context, packetID string, page int) ([]byte, error) {
	key := pageKey(packetID, page)
	if val, found := s.cache.Get(key); found {
		return val.([]byte), nil
	}
	data, err := s.next.PageBytes(ctx, packetID, page)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(key, data)
	return data, nil
}

// ListPages is not cached; it reflects pages added since the last read.
func (s *CachedStore) ListPages(ctx context.Context, packetID string) ([]int, error) {
	return s.next.ListPages(ctx, packetID)
}

// Len returns the number of cached pages.
func (s *CachedStore) Len() int {
	return s.cache.ItemCount()
}

// Flush drops every cached page.
func (s *CachedStore) Flush() {
	s.cache.Flush()
}

func pageKey(packetID string, page int) string {
	return packetID + "#" + strconv.Itoa(page)
}
