// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type course struct {
	Title   string   `json:"title"`
	Lessons []string `json:"lessons"`
}

func TestTypedCache_GetOrLoad(t *testing.T) {
	backend, _ := newTestMemory(0)
	tc := NewTypedCache[[]course](backend, time.Minute)
	ctx := context.Background()

	loads := 0
	load := func(context.Context) ([]course, error) {
		loads++
		return []course{{Title: "Basics", Lessons: []string{"Intro"}}}, nil
	}

	for range 3 {
		got, err := tc.GetOrLoad(ctx, "course:active", load)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].Lessons[0] != "Intro" {
			t.Fatalf("got %+v", got)
		}
	}
	if loads != 1 {
		t.Errorf("loads = %d, want 1", loads)
	}

	_ = tc.Delete(ctx, "course:active")
	_, _ = tc.GetOrLoad(ctx, "course:active", load)
	if loads != 2 {
		t.Errorf("loads after Delete = %d, want 2", loads)
	}
}

func TestTypedCache_LoadError(t *testing.T) {
	backend, _ := newTestMemory(0)
	tc := NewTypedCache[course](backend, 0)
	boom := errors.New("db down")

	_, err := tc.GetOrLoad(context.Background(), "k", func(context.Context) (course, error) {
		return course{}, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
	if has, _ := backend.Has(context.Background(), "k"); has {
		t.Error("failed load must not be cached")
	}
}

func TestTypedCache_UndecodableEntry(t *testing.T) {
	backend, _ := newTestMemory(0)
	ctx := context.Background()
	_ = backend.Set(ctx, "k", []byte("{not json"), 0)

	tc := NewTypedCache[course](backend, 0)
	if _, ok := tc.Get(ctx, "k"); ok {
		t.Error("expected miss for corrupt entry")
	}
	if has, _ := backend.Has(ctx, "k"); has {
		t.Error("corrupt entry should be dropped")
	}
}

func TestNew_FallsBackToMemory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RedisURL = "redis://127.0.0.1:1/0"
	cfg.CleanupInterval = 0

	c := New(cfg)
	defer func() { _ = c.Close() }()

	if got := StatsOf(c).Backend; got != BackendMemory {
		t.Errorf("backend = %q, want memory", got)
	}
}

func TestNew_BadRedisURL(t *testing.T) {
	c := New(Config{RedisURL: "not a url"})
	defer func() { _ = c.Close() }()

	if _, ok := c.(*MemoryCache); !ok {
		t.Errorf("got %T, want *MemoryCache", c)
	}
}
