package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"backoffice-mcp/internal/cache"

	"github.com/rs/zerolog/log"
)

// DefaultCacheTTL is how long ledger reads are reused.
const DefaultCacheTTL = 45 * time.Second

// CachedSource is a read-through cache in front of a Store, keyed by the query parameters.
// Writes go straight to the wrapped store and do not invalidate cached reads, so callers
// may observe data up to one TTL old.
type CachedSource struct {
	Store
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedSource wraps inner with c. A non-positive ttl uses DefaultCacheTTL.
func NewCachedSource(inner Store, c cache.Cache, ttl time.Duration) *CachedSource {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedSource{Store: inner, cache: c, ttl: ttl}
}

// TradingDay implements Source.
func (s *CachedSource) TradingDay(ctx context.Context, branchID string, date Day) (*Observation, error) {
	key := fmt.Sprintf("day:%s:%s", branchID, date)
	var obs *Observation
	if s.lookup(ctx, key, &obs) {
		return obs, nil
	}
	obs, err := s.Store.TradingDay(ctx, branchID, date)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, obs)
	return obs, nil
}

// TradingDays implements Source.
func (s *CachedSource) TradingDays(ctx context.Context, branchID string, from, to Day) ([]Observation, error) {
	key := fmt.Sprintf("days:%s:%s:%s", branchID, from, to)
	var days []Observation
	if s.lookup(ctx, key, &days) {
		return days, nil
	}
	days, err := s.Store.TradingDays(ctx, branchID, from, to)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, days)
	return days, nil
}

// Events implements Source.
func (s *CachedSource) Events(ctx context.Context, branchID string, from, to Day) ([]Event, error) {
	key := fmt.Sprintf("events:%s:%s:%s", branchID, from, to)
	var events []Event
	if s.lookup(ctx, key, &events) {
		return events, nil
	}
	events, err := s.Store.Events(ctx, branchID, from, to)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, events)
	return events, nil
}

// Event implements Source. Misses (ErrNotFound) are not cached.
func (s *CachedSource) Event(ctx context.Context, id string) (*Event, error) {
	key := "event:" + id
	var e *Event
	if s.lookup(ctx, key, &e) && e != nil {
		return e, nil
	}
	e, err := s.Store.Event(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, e)
	return e, nil
}

func (s *CachedSource) lookup(ctx context.Context, key string, out interface{}) bool {
	raw, ok := s.cache.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Discarding undecodable cache entry")
		return false
	}
	return true
}

func (s *CachedSource) store(ctx context.Context, key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Could not encode value for cache")
		return
	}
	s.cache.Set(ctx, key, raw, s.ttl)
}
