package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonwraymond/providergate/cache"
)

// gatewayAggregator builds an aggregator with the probes a deployed
// gateway registers: the memoization store, the admission limiter, and
// a provider reachability ping.
func gatewayAggregator(t *testing.T, providerUp bool) *Aggregator {
	t.Helper()

	store := cache.NewMemoryCache(cache.MemoryConfig{MaxSize: 100})
	t.Cleanup(store.Close)

	agg := NewAggregator()
	agg.Register("cache", NewCacheChecker(store, CacheCheckerConfig{MaxSize: 100}))
	agg.Register("admission", quietLimiterProbe(t))
	agg.Register("provider", providerProbe(providerUp))
	return agg
}

func TestLivenessHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "OK" {
		t.Errorf("body = %q, want OK", rec.Body.String())
	}
}

func TestReadinessHandler(t *testing.T) {
	t.Run("all components up", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ReadinessHandler(gatewayAggregator(t, true))(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		if rec.Body.String() != "OK" {
			t.Errorf("body = %q, want OK", rec.Body.String())
		}
	})

	t.Run("cache under pressure still ready", func(t *testing.T) {
		agg := NewAggregator()
		agg.Register("cache", nearCapacityCache(t))

		rec := httptest.NewRecorder()
		ReadinessHandler(agg)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		// Degraded keeps serving; orchestrators should not pull the pod.
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200 for degraded", rec.Code)
		}
		if rec.Body.String() != "DEGRADED" {
			t.Errorf("body = %q, want DEGRADED", rec.Body.String())
		}
	})

	t.Run("provider down", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ReadinessHandler(gatewayAggregator(t, false))(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
		if rec.Body.String() != "UNHEALTHY" {
			t.Errorf("body = %q, want UNHEALTHY", rec.Body.String())
		}
	})
}

func TestDetailedHandler(t *testing.T) {
	t.Run("reports per-component results", func(t *testing.T) {
		rec := httptest.NewRecorder()
		DetailedHandler(gatewayAggregator(t, true))(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}

		var resp HealthResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Status != "healthy" {
			t.Errorf("Status = %q, want healthy", resp.Status)
		}
		for _, name := range []string{"cache", "admission", "provider"} {
			if _, ok := resp.Checks[name]; !ok {
				t.Errorf("Checks missing %q", name)
			}
		}
		// The cache probe carries its occupancy metrics.
		if resp.Checks["cache"].Details["occupancy_percent"] == nil {
			t.Error("cache details missing occupancy_percent")
		}
	})

	t.Run("unhealthy component surfaces error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		DetailedHandler(gatewayAggregator(t, false))(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}

		var resp HealthResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Status != "unhealthy" {
			t.Errorf("Status = %q, want unhealthy", resp.Status)
		}
		if resp.Checks["provider"].Error == "" {
			t.Error("provider check should carry its error message")
		}
	})
}

func TestSingleCheckHandler(t *testing.T) {
	agg := gatewayAggregator(t, true)

	t.Run("registered component", func(t *testing.T) {
		rec := httptest.NewRecorder()
		SingleCheckHandler(agg, "admission")(rec, httptest.NewRequest(http.MethodGet, "/health/admission", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var resp CheckResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Status != "healthy" {
			t.Errorf("Status = %q, want healthy", resp.Status)
		}
	})

	t.Run("unknown component", func(t *testing.T) {
		rec := httptest.NewRecorder()
		SingleCheckHandler(agg, "billing")(rec, httptest.NewRequest(http.MethodGet, "/health/billing", nil))

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestRegisterHandlers(t *testing.T) {
	mux := http.NewServeMux()
	RegisterHandlers(mux, gatewayAggregator(t, true))

	for _, path := range []string{"/healthz", "/readyz", "/health"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}

func TestReadinessHandler_HonorsRequestContext(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{Timeout: time.Minute, Parallel: true})
	agg.Register("provider", NewCheckerFunc("provider", func(ctx context.Context) Result {
		<-ctx.Done()
		return Healthy("too late")
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil).WithContext(ctx)
	ReadinessHandler(agg)(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 when the request context is gone", rec.Code)
	}
}
