package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// CooldownGate is a named, self-expiring lock. Acquire succeeds only when the
// key is not held, and then holds it for ttl.
type CooldownGate interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (ok bool, remaining time.Duration, err error)
}

// MemoryGate keeps gate expiries in process.
type MemoryGate struct {
	clock Clock

	mu      sync.Mutex
	expires map[string]time.Time
}

func NewMemoryGate(clock Clock) *MemoryGate {
	if clock == nil {
		clock = RealClock()
	}
	return &MemoryGate{clock: clock, expires: make(map[string]time.Time)}
}

func (g *MemoryGate) Acquire(_ context.Context, key string, ttl time.Duration) (bool, time.Duration, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	if until, ok := g.expires[key]; ok && now.Before(until) {
		return false, until.Sub(now), nil
	}
	g.expires[key] = now.Add(ttl)
	return true, 0, nil
}

// RedisGate shares the gate between instances with SET NX PX.
type RedisGate struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisGate(client redis.UniversalClient, prefix string) *RedisGate {
	return &RedisGate{client: client, prefix: prefix}
}

func (g *RedisGate) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, time.Duration, error) {
	k := g.prefix + key
	ok, err := g.client.SetNX(ctx, k, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis setnx %s: %w", k, err)
	}
	if ok {
		return true, 0, nil
	}
	left, err := g.client.PTTL(ctx, k).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis pttl %s: %w", k, err)
	}
	if left < 0 {
		left = 0
	}
	return false, left, nil
}
