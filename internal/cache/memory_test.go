// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestMemory(maxItems int) (*MemoryCache, *testClock) {
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL: time.Minute,
		MaxItems:   maxItems,
		Now:        clock.Now,
	}), clock
}

func TestMemoryCache_BasicOperations(t *testing.T) {
	c, _ := newTestMemory(0)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	if err := c.Set(ctx, "course:active", []byte("v1"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := c.Get(ctx, "course:active")
	if err != nil || string(got) != "v1" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	got[0] = 'X'
	again, _ := c.Get(ctx, "course:active")
	if string(again) != "v1" {
		t.Errorf("cached value was mutated through a returned slice: %q", again)
	}

	if has, _ := c.Has(ctx, "course:active"); !has {
		t.Error("Has = false after Set")
	}

	if err := c.Delete(ctx, "course:active"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "course:active"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get after Delete: %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c, clock := newTestMemory(0)
	ctx := context.Background()

	_ = c.Set(ctx, "short", []byte("a"), 10*time.Second)
	_ = c.Set(ctx, "default", []byte("b"), 0)

	clock.Advance(10 * time.Second)
	if _, err := c.Get(ctx, "short"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("short: %v, want miss at exact expiry", err)
	}
	if _, err := c.Get(ctx, "default"); err != nil {
		t.Errorf("default: %v", err)
	}

	clock.Advance(time.Minute)
	if has, _ := c.Has(ctx, "default"); has {
		t.Error("default should have expired")
	}

	c.removeExpired()
	if n := c.Stats().Items; n != 0 {
		t.Errorf("Items after cleanup = %d", n)
	}
}

func TestMemoryCache_Eviction(t *testing.T) {
	c, clock := newTestMemory(2)
	ctx := context.Background()

	_ = c.Set(ctx, "a", []byte("1"), time.Minute)
	clock.Advance(time.Second)
	_ = c.Set(ctx, "b", []byte("2"), time.Minute)

	// Overwriting an existing key never evicts.
	_ = c.Set(ctx, "b", []byte("2b"), time.Minute)
	if c.Stats().Items != 2 {
		t.Fatalf("Items = %d, want 2", c.Stats().Items)
	}

	_ = c.Set(ctx, "c", []byte("3"), time.Minute)
	if _, err := c.Get(ctx, "a"); !errors.Is(err, ErrCacheMiss) {
		t.Error("the entry closest to expiry should be evicted")
	}
	for _, k := range []string{"b", "c"} {
		if _, err := c.Get(ctx, k); err != nil {
			t.Errorf("%s: %v", k, err)
		}
	}
}

func TestMemoryCache_DeleteByPrefixAndClear(t *testing.T) {
	c, _ := newTestMemory(0)
	ctx := context.Background()

	for _, k := range []string{"course:active", "course:all", "other"} {
		_ = c.Set(ctx, k, []byte(k), 0)
	}

	if err := c.DeleteByPrefix(ctx, "course:"); err != nil {
		t.Fatal(err)
	}
	if c.Stats().Items != 1 {
		t.Errorf("Items = %d, want 1", c.Stats().Items)
	}

	_ = c.Clear(ctx)
	if c.Stats().Items != 0 {
		t.Errorf("Items after Clear = %d", c.Stats().Items)
	}
}

func TestMemoryCache_Stats(t *testing.T) {
	c, _ := newTestMemory(0)
	ctx := context.Background()

	_ = c.Set(ctx, "k", []byte("abcd"), 0)
	_, _ = c.Get(ctx, "k")
	_, _ = c.Get(ctx, "missing")

	s := c.Stats()
	if s.Backend != BackendMemory || s.Hits != 1 || s.Misses != 1 || s.Sets != 1 || s.Size != 4 {
		t.Errorf("Stats = %+v", s)
	}
	if s.HitRate != 50 {
		t.Errorf("HitRate = %v, want 50", s.HitRate)
	}

	c.ResetStats()
	if s := c.Stats(); s.Hits != 0 || s.Misses != 0 || s.Sets != 0 {
		t.Errorf("after reset: %+v", s)
	}
}

func TestMemoryCache_Closed(t *testing.T) {
	c, _ := newTestMemory(0)
	_ = c.Close()
	_ = c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "k", nil, 0); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Set: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Get: %v", err)
	}
	if _, err := c.Has(ctx, "k"); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Has: %v", err)
	}
}

func TestMemoryCache_Concurrent(t *testing.T) {
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute, MaxItems: 10})
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Go(func() {
			key := string(rune('a' + i))
			for range 100 {
				_ = c.Set(ctx, key, []byte(key), 0)
				_, _ = c.Get(ctx, key)
				_ = c.DeleteByPrefix(ctx, "z")
			}
		})
	}
	wg.Wait()

	if n := c.Stats().Items; n > 10 {
		t.Errorf("Items = %d exceeds cap", n)
	}
}
