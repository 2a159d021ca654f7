package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

func TestMemoryGate_HoldsForTTL(t *testing.T) {
	clock := newFakeClock()
	g := NewMemoryGate(clock)
	ctx := context.Background()

	ok, _, err := g.Acquire(ctx, "k", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}

	clock.Advance(20 * time.Second)
	ok, remaining, err := g.Acquire(ctx, "k", time.Minute)
	if err != nil || ok {
		t.Fatalf("second acquire should be refused: ok=%v err=%v", ok, err)
	}
	if remaining != 40*time.Second {
		t.Fatalf("remaining = %v, want 40s", remaining)
	}

	if ok, _, _ := g.Acquire(ctx, "other", time.Minute); !ok {
		t.Fatalf("independent key should be free")
	}

	clock.Advance(40 * time.Second)
	if ok, _, _ := g.Acquire(ctx, "k", time.Minute); !ok {
		t.Fatalf("expected gate to reopen after ttl")
	}
}

func TestRedisGate_ReportsConnectionErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	g := NewRedisGate(client, "core:cooldown:")
	ok, _, err := g.Acquire(context.Background(), "outbound", time.Minute)
	if err == nil {
		t.Fatalf("expected an error from an unreachable redis")
	}
	if ok {
		t.Fatalf("gate must not open on error")
	}
}
