package secrets

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultLoadTimeout bounds a shared fetch once it no longer follows any caller's context.
const DefaultLoadTimeout = 30 * time.Second

// Cache keeps credentials for a short TTL. Concurrent misses for the same key
// share one load; each caller still stops waiting when its own context ends.
type Cache struct {
	TTL         time.Duration
	LoadTimeout time.Duration
	Clock       func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

type cacheEntry struct {
	cred    *Credential
	expires time.Time
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{TTL: ttl, LoadTimeout: DefaultLoadTimeout, Clock: time.Now, entries: map[string]cacheEntry{}}
}

// Get returns the cached credential for key or runs load. The load runs on a
// context detached from ctx, so one caller giving up does not fail the others.
func (c *Cache) Get(ctx context.Context, key string, load func(context.Context) (*Credential, error)) (*Credential, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.now().Before(e.expires) {
		c.mu.Unlock()
		return e.cred, nil
	}
	c.mu.Unlock()

	ch := c.group.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout())
		defer cancel()
		cred, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.entries == nil {
			c.entries = map[string]cacheEntry{}
		}
		c.entries[key] = cacheEntry{cred: cred, expires: c.now().Add(c.TTL)}
		c.mu.Unlock()
		return cred, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for credential: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Credential), nil
	}
}

func (c *Cache) Purge() {
	c.mu.Lock()
	c.entries = map[string]cacheEntry{}
	c.mu.Unlock()
}

func (c *Cache) now() time.Time {
	if c.Clock == nil {
		return time.Now()
	}
	return c.Clock()
}

func (c *Cache) loadTimeout() time.Duration {
	if c.LoadTimeout <= 0 {
		return DefaultLoadTimeout
	}
	return c.LoadTimeout
}
