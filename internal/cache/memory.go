package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// purgeEvery is how many writes pass between sweeps of expired entries.
const purgeEvery = 256

type entry struct {
	value      []byte
	expiration time.Time
}

// Memory is an in-process cache. An entry expires ttl after it was written; reads
// never push the expiry forward, so no value is served older than its TTL.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*entry
	writes  int
	now     func() time.Time
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Get implements Cache.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		log.Debug().Str("key", key).Msg("Cache miss")
		return nil, false
	}

	if !m.now().Before(e.expiration) {
		delete(m.entries, key)
		log.Debug().Str("key", key).Msg("Cache expired")
		return nil, false
	}
	log.Debug().Str("key", key).Msg("Cache hit")
	return e.value, true
}

// Set implements Cache.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = &entry{
		value:      value,
		expiration: m.now().Add(ttl),
	}
	log.Debug().Str("key", key).Dur("ttl", ttl).Msg("Added to cache")

	m.writes++
	if m.writes%purgeEvery == 0 {
		if removed := m.purgeLocked(); removed > 0 {
			log.Debug().Int("removed", removed).Msg("Purged expired cache entries")
		}
	}
}

// Len returns the number of entries, expired ones included until they are next read.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Purge drops expired entries.
func (m *Memory) Purge() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.purgeLocked()
}

func (m *Memory) purgeLocked() int {
	now := m.now()
	removed := 0
	for k, e := range m.entries {
		if !now.Before(e.expiration) {
			delete(m.entries, k)
			removed++
		}
	}
	return removed
}
