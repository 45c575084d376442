package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// Nothing listens on port 1, so every call fails fast with connection refused.
const deadAddr = "127.0.0.1:1"

func TestNewRedis_Unreachable(t *testing.T) {
	if _, err := NewRedis(RedisConfig{Addr: deadAddr}); err == nil {
		t.Error("Expected an error for an unreachable Redis")
	}
}

func TestRedis_FailuresDegradeToMisses(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: deadAddr, DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	r := NewRedisWithClient(client, "")
	defer r.Close()

	if r.prefix != "backoffice:" {
		t.Errorf("prefix = %q, want backoffice:", r.prefix)
	}

	ctx := context.Background()
	r.Set(ctx, "k", []byte("v"), time.Minute)
	if _, ok := r.Get(ctx, "k"); ok {
		t.Error("Expected a miss when Redis is down")
	}
}
