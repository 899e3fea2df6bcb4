package availability

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const defaultCacheTTL = 30 * time.Second

// CachedSource wraps a FlagSource with a TTL cache so per-resolve flag
// lookups do not hammer a slow source (typically the database-backed
// module-state repository). Module state changes rarely; callers that
// flip a flag should call Invalidate or Flush to see the change before
// the TTL expires.
type CachedSource struct {
	source FlagSource
	cache  *gocache.Cache
}

// NewCachedSource creates a CachedSource with the given TTL. A zero or
// negative TTL uses the default of 30 seconds.
func NewCachedSource(source FlagSource, ttl time.Duration) *CachedSource {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedSource{
		source: source,
		cache:  gocache.New(ttl, 2*ttl),
	}
}

// Enabled implements FlagSource. Errors from the underlying source are
// not cached, so a transient failure does not pin an origin unavailable
// for a full TTL.
func (s *CachedSource) Enabled(origin string) (bool, error) {
	if v, ok := s.cache.Get(origin); ok {
		return v.(bool), nil
	}
	enabled, err := s.source.Enabled(origin)
	if err != nil {
		return false, err
	}
	s.cache.SetDefault(origin, enabled)
	return enabled, nil
}

// Invalidate drops the cached flag for a single origin.
func (s *CachedSource) Invalidate(origin string) {
	s.cache.Delete(origin)
}

// Flush drops all cached flags.
func (s *CachedSource) Flush() {
	s.cache.Flush()
}
