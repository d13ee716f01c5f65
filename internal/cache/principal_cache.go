package cache

import (
	"sync"
	"time"

	"lab-service/internal/domain/principal"

	"github.com/google/uuid"
)

// principalEntry is a cached principal lookup
type principalEntry struct {
	principal principal.Principal
	expiresAt time.Time
}

// PrincipalCache keeps recently resolved principals for a short TTL so that
// authenticated requests do not hit the store every time.
type PrincipalCache struct {
	entries map[uuid.UUID]principalEntry
	mutex   sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
}

func NewPrincipalCache(ttl time.Duration) *PrincipalCache {
	return &PrincipalCache{
		entries: make(map[uuid.UUID]principalEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a copy of the cached principal if present and not expired
func (c *PrincipalCache) Get(id uuid.UUID) (*principal.Principal, bool) {
	if c.ttl <= 0 {
		return nil, false
	}

	c.mutex.RLock()
	entry, found := c.entries[id]
	c.mutex.RUnlock()

	if !found || !c.now().Before(entry.expiresAt) {
		return nil, false
	}
	p := entry.principal
	return &p, true
}

func (c *PrincipalCache) Set(p *principal.Principal) {
	if c.ttl <= 0 || p == nil {
		return
	}

	c.mutex.Lock()
	c.entries[p.ID] = principalEntry{principal: *p, expiresAt: c.now().Add(c.ttl)}
	c.mutex.Unlock()
}

// Invalidate drops the entry so the next lookup reads the store.
func (c *PrincipalCache) Invalidate(id uuid.UUID) {
	c.mutex.Lock()
	delete(c.entries, id)
	c.mutex.Unlock()
}

// Prune removes expired entries and returns how many were dropped
func (c *PrincipalCache) Prune() int {
	now := c.now()
	removed := 0

	c.mutex.Lock()
	for id, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, id)
			removed++
		}
	}
	c.mutex.Unlock()

	return removed
}

func (c *PrincipalCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}
