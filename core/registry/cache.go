package registry

import (
	"sync"

	"github.com/openbeheer/bff/core/upstream"
)

// clientCache memoizes one upstream client per service slug. Every slug
// carries a generation that eviction bumps; a client built from a
// configuration read before the last eviction is never cached.
type clientCache struct {
	mu          sync.RWMutex
	clients     map[string]*upstream.Client
	generations map[string]uint64
}

func newClientCache() clientCache {
	return clientCache{
		clients:     map[string]*upstream.Client{},
		generations: map[string]uint64{},
	}
}

// get returns the cached client for a slug, building one on a miss.
// The build callback must read the service configuration itself: it
// runs after the generation is captured, so an eviction racing with
// the build is detected and the build repeats on a fresh snapshot.
func (c *clientCache) get(slug string, build func() (*upstream.Client, error)) (*upstream.Client, error) {
	for {
		c.mu.RLock()
		cached, ok := c.clients[slug]
		generation := c.generations[slug]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}

		built, err := build()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if cached, ok := c.clients[slug]; ok {
			c.mu.Unlock()
			return cached, nil
		}
		if c.generations[slug] == generation {
			c.clients[slug] = built
			c.mu.Unlock()
			return built, nil
		}
		c.mu.Unlock()
		// evicted while building, the configuration may have changed
	}
}

func (c *clientCache) evict(slug string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.clients, slug)
	c.generations[slug]++
}
