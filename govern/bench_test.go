package govern

import (
	"context"
	"testing"
	"time"

	"github.com/jonwraymond/providergate/admission"
	"github.com/jonwraymond/providergate/cache"
	"github.com/jonwraymond/providergate/observe"
)

func benchProvider(ctx context.Context, request any) ([]byte, error) {
	return []byte("response"), nil
}

func BenchmarkGovernor_Execute_CacheHit(b *testing.B) {
	g := NewGovernor(Config{
		Cache: cache.NewMemoryCache(cache.MemoryConfig{}),
	})
	defer g.Shutdown()

	ctx := context.Background()
	m := observe.CallMeta{Subject: "user-1", Endpoint: "chat"}
	payload := map[string]any{"prompt": "hi"}
	if _, err := g.Execute(ctx, m, payload, benchProvider); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := g.Execute(ctx, m, payload, benchProvider); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkGovernor_Execute_CacheMiss(b *testing.B) {
	g := NewGovernor(Config{
		Cache: cache.NewMemoryCache(cache.MemoryConfig{}),
	})
	defer g.Shutdown()

	ctx := context.Background()
	m := observe.CallMeta{Subject: "user-1", Endpoint: "chat"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// A fresh payload each iteration keeps every lookup a miss.
		if _, err := g.Execute(ctx, m, i, benchProvider); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkGovernor_Execute_FullPipeline(b *testing.B) {
	g := NewGovernor(Config{
		Cache:   cache.NewMemoryCache(cache.MemoryConfig{}),
		Limiter: admission.NewLimiter(admission.LimiterConfig{}),
		Quota:   admission.Config{Window: time.Minute, MaxRequests: 1 << 30},
	})
	defer g.Shutdown()

	ctx := context.Background()
	m := observe.CallMeta{Subject: "user-1", Endpoint: "chat"}
	payload := map[string]any{"prompt": "hi"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := g.Execute(ctx, m, payload, benchProvider); err != nil {
			b.Fatal(err)
		}
	}
}
