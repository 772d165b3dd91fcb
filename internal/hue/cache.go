package hue

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// CachedLight holds a fetched light with the time it was fetched.
type CachedLight struct {
	Light     Light
	FetchedAt time.Time
}

// LightCache is a TTL cache of light details. It does not fetch anything
// itself; the Client fills it on reads and invalidates it on writes.
type LightCache struct {
	mu     sync.RWMutex
	lights map[string]*CachedLight
	ttl    time.Duration
	now    func() time.Time
}

// NewLightCache creates a light cache. A zero ttl means 5 minutes.
func NewLightCache(ttl time.Duration) *LightCache {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}

	log.Debug().Dur("ttl", ttl).Msg("Light cache initialized")

	return &LightCache{
		lights: make(map[string]*CachedLight),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Get returns a copy of the cached light, or nil if missing or stale.
func (c *LightCache) Get(id string) *Light {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cached, ok := c.lights[id]
	if !ok || c.now().Sub(cached.FetchedAt) > c.ttl {
		return nil
	}

	light := cached.Light
	light.State = cached.Light.State.Clone()
	return &light
}

// Set stores a light under its ID.
func (c *LightCache) Set(light *Light) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := *light
	stored.client = nil
	stored.State = light.State.Clone()
	c.lights[light.ID] = &CachedLight{
		Light:     stored,
		FetchedAt: c.now(),
	}
}

// Invalidate removes an entry from the cache.
func (c *LightCache) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.lights, id)
}

// Clear removes all entries from the cache.
func (c *LightCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lights = make(map[string]*CachedLight)
}

// Len returns the number of entries, stale ones included.
func (c *LightCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.lights)
}
