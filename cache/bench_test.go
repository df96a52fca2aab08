package cache

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func benchCache(b *testing.B, cfg MemoryConfig) *MemoryCache {
	b.Helper()
	cfg.SweepInterval = -1
	c := NewMemoryCache(cfg)
	b.Cleanup(c.Close)
	return c
}

func BenchmarkMemoryCache_Get(b *testing.B) {
	ctx := context.Background()

	b.Run("hit", func(b *testing.B) {
		c := benchCache(b, MemoryConfig{})
		_ = c.Set(ctx, "resp:cached", []byte("memoized body"), time.Hour)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = c.Get(ctx, "resp:cached")
		}
	})

	b.Run("miss", func(b *testing.B) {
		c := benchCache(b, MemoryConfig{})
		for i := 0; i < b.N; i++ {
			_, _ = c.Get(ctx, "resp:missing")
		}
	})
}

func BenchmarkMemoryCache_Set(b *testing.B) {
	ctx := context.Background()
	body := []byte("memoized body")

	b.Run("unbounded", func(b *testing.B) {
		c := benchCache(b, MemoryConfig{})
		for i := 0; i < b.N; i++ {
			_ = c.Set(ctx, fmt.Sprintf("resp:%d", i), body, time.Hour)
		}
	})

	b.Run("lru eviction under pressure", func(b *testing.B) {
		c := benchCache(b, MemoryConfig{MaxSize: 1024})
		for i := 0; i < b.N; i++ {
			_ = c.Set(ctx, fmt.Sprintf("resp:%d", i), body, time.Hour)
		}
	})

	b.Run("tag indexed", func(b *testing.B) {
		c := benchCache(b, MemoryConfig{})
		for i := 0; i < b.N; i++ {
			_ = c.Set(ctx, fmt.Sprintf("resp:%d", i), body, time.Hour, "subject:acct-1", "endpoint:completions")
		}
	})
}

func BenchmarkDefaultKeyer_Key(b *testing.B) {
	keyer := NewDefaultKeyer()
	payload := map[string]any{
		"model":  "large",
		"prompt": "summarize the following document",
		"params": map[string]any{
			"temperature": 0.2,
			"max_tokens":  512,
		},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = keyer.Key(payload)
	}
}
