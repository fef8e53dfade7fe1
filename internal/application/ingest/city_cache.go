package ingest

import (
	"context"
	"strings"
	"sync"
)

// cityCache memoizes city/state lookups for the lifetime of one job run, so
// one ingestion batch does not re-query the same city hundreds of times.
// Misses are cached too and come back as (nil, nil): no canonical city, not
// an error. The mutex covers the refresh processor's concurrent batches; the
// cache itself never outlives its job.
type cityCache struct {
	lookup cityLookup

	mu      sync.Mutex
	entries map[string]*int64
}

func newCityCache(lookup cityLookup) *cityCache {
	return &cityCache{
		lookup:  lookup,
		entries: make(map[string]*int64),
	}
}

func (c *cityCache) LookupCityID(ctx context.Context, city, state string) (*int64, error) {
	key := cacheKey(city, state)

	c.mu.Lock()
	if id, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	id, err := c.lookup.LookupCityID(ctx, city, state)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = id
	c.mu.Unlock()
	return id, nil
}

func cacheKey(city, state string) string {
	return strings.ToLower(strings.TrimSpace(city)) + "|" + strings.ToLower(strings.TrimSpace(state))
}
