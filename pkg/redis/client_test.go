package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/redis/go-redis/v9"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	now := time.Date(2026, 10, 17, 12, 0, 10, 0, time.UTC)
	client := &Client{store: mock, now: func() time.Time { return now }}

	for i, want := range []bool{true, true, false} {
		allowed, count, err := client.FixedWindowAllow(ctx, "api:ip:10.0.0.1", 2, time.Minute)
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if allowed != want || count != int64(i+1) {
			t.Fatalf("call %d: allowed=%v count=%d", i, allowed, count)
		}
	}
	if len(mock.expireCalls) != 1 || mock.expireCalls[0].ttl != time.Minute {
		t.Fatalf("expected a single expire for the window, got %v", mock.expireCalls)
	}

	now = now.Add(time.Minute)
	allowed, count, err := client.FixedWindowAllow(ctx, "api:ip:10.0.0.1", 2, time.Minute)
	if err != nil || !allowed || count != 1 {
		t.Fatalf("next window should start fresh, allowed=%v count=%d err=%v", allowed, count, err)
	}
	if mock.expireCalls[0].key == mock.expireCalls[1].key {
		t.Fatalf("windows must use distinct keys")
	}
}

func TestIdempotencyReservation(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	key := client.IdempotencyKey("checkout", "user-1:abc")
	ok, err := client.SetNX(ctx, key, "pending", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first reservation to win, ok=%v err=%v", ok, err)
	}
	ok, err = client.SetNX(ctx, key, "pending", time.Minute)
	if err != nil || ok {
		t.Fatalf("expected second reservation to lose, ok=%v err=%v", ok, err)
	}

	if err := client.Set(ctx, key, `{"status":201}`, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := client.Get(ctx, key)
	if err != nil || got != `{"status":201}` {
		t.Fatalf("unexpected stored value %q err=%v", got, err)
	}

	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, key); err != redis.Nil {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatalf("expected error from uninitialized client")
	}
	if _, _, err := client.FixedWindowAllow(context.Background(), "s", 1, time.Second); err == nil {
		t.Fatalf("expected error from uninitialized rate limiter")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close without raw client should be a no-op: %v", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatalf("expected error without url or address")
	}
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.DB != 2 || opts.PoolSize != 7 {
		t.Fatalf("unexpected options db=%d pool=%d", opts.DB, opts.PoolSize)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.IdempotencyKey("scope", "id"); got != "sf:idempotency:scope:id" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := client.RateLimitKey("scope", 42); got != "sf:rate_limit:scope:42" {
		t.Fatalf("unexpected rate limit key %s", got)
	}
	if got := client.IdempotencyKey("scope", ""); got != "sf:idempotency:scope" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
}

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		incr: make(map[string]int64),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
