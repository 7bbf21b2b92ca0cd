// Package statecache puts a Redis read-through cache in front of the
// external domain state lookup. The cache is strictly best-effort: any
// Redis failure falls through to the source of record, and a source
// failure is never masked by a stale cache entry.
package statecache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/registrar-ops/triage/pkg/lifecycle"
)

// Source is the system of record for domain state.
type Source interface {
	DomainState(ctx context.Context, domainID string) (lifecycle.DomainState, error)
}

// CachedLookup caches Source answers in Redis with a short TTL.
type CachedLookup struct {
	client *redis.Client
	src    Source
	ttl    time.Duration
}

// New creates a CachedLookup. A zero ttl defaults to 30 seconds; domain
// state changes rarely, but suspensions must become visible quickly.
func New(client *redis.Client, src Source, ttl time.Duration) *CachedLookup {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedLookup{client: client, src: src, ttl: ttl}
}

func cacheKey(domainID string) string { return "triage:state:" + domainID }

// DomainState returns the cached state when present, otherwise asks the
// source and caches the answer.
func (c *CachedLookup) DomainState(ctx context.Context, domainID string) (lifecycle.DomainState, error) {
	if cached, err := c.client.Get(ctx, cacheKey(domainID)).Result(); err == nil {
		if state := lifecycle.Parse(cached); state != lifecycle.StateUnknown {
			return state, nil
		}
	}

	state, err := c.src.DomainState(ctx, domainID)
	if err != nil {
		return lifecycle.StateUnknown, err
	}

	// Best-effort write; a failed SET only costs the next reader a
	// source round trip.
	_ = c.client.Set(ctx, cacheKey(domainID), string(state), c.ttl).Err()
	return state, nil
}

// Invalidate drops the cached state for one domain.
func (c *CachedLookup) Invalidate(ctx context.Context, domainID string) error {
	return c.client.Del(ctx, cacheKey(domainID)).Err()
}
