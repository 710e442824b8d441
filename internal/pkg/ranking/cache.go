package ranking

import (
	"context"
	"fmt"
	"time"

	"rankstream/api/rankpb"

	"github.com/patrickmn/go-cache"
)

// CachingEngine memoises another Engine's result sets for a fixed TTL.
// Callers always receive their own copy.
type CachingEngine struct {
	next  Engine
	cache *cache.Cache
}

// NewCachingEngine wraps next with a cache whose entries expire after ttl.
func NewCachingEngine(next Engine, ttl time.Duration) *CachingEngine {
	return &CachingEngine{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func cacheKey(req Request, version uint32) string {
	return fmt.Sprintf("%q|%q|%q|%d", req.Query, req.ItemID, req.Understanding, version)
}

// Generate implements Engine.
func (e *CachingEngine) Generate(ctx context.Context, req Request, version uint32) (*rankpb.ResultSet, error) {
	key := cacheKey(req, version)
	if v, ok := e.cache.Get(key); ok {
		return v.(*rankpb.ResultSet).Clone(), nil
	}
	rs, err := e.next.Generate(ctx, req, version)
	if err != nil {
		return nil, err
	}
	e.cache.SetDefault(key, rs.Clone())
	return rs, nil
}

// Len returns the number of cached result sets, including expired ones not
// yet evicted.
func (e *CachingEngine) Len() int {
	return e.cache.ItemCount()
}
