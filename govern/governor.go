package govern

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/providergate/admission"
	"github.com/jonwraymond/providergate/cache"
	"github.com/jonwraymond/providergate/observe"
	"github.com/jonwraymond/providergate/resilience"
)

// ProviderFunc performs the actual provider call. It is supplied by the
// caller and is opaque to the pipeline: transport, authentication, and
// response decoding all live behind it. The returned bytes are what gets
// memoized.
type ProviderFunc func(ctx context.Context, request any) ([]byte, error)

// Result is the outcome of one governed call.
type Result struct {
	// Value is the provider response, possibly served from the memoizer.
	Value []byte

	// Cached reports whether Value came from the memoizer without a
	// provider call.
	Cached bool

	// Remaining is the number of admission slots left in the current
	// window. Only meaningful when a call was admitted.
	Remaining int

	// RetryAfter is how long the caller should wait before retrying.
	// Non-zero only when the call was denied.
	RetryAfter time.Duration
}

// Config configures a Governor. Zero-value fields get defaults where a
// default makes sense; a nil Cache disables memoization and a nil Limiter
// disables admission control.
type Config struct {
	// Cache memoizes provider responses. nil disables memoization.
	Cache cache.Cache

	// Keyer derives canonical cache keys from request payloads.
	// Default: cache.NewDefaultKeyer().
	Keyer cache.Keyer

	// Policy controls memoization TTLs. nil means cache.DefaultPolicy().
	// A pointer so that an explicit cache.NoCachePolicy() (the zero
	// Policy) can switch memoization off while keeping the Cache around
	// for invalidation.
	Policy *cache.Policy

	// Limiter enforces per-(subject, endpoint) quotas. nil disables
	// admission control.
	Limiter *admission.Limiter

	// Quota is the admission config applied to every endpoint not listed
	// in QuotaByEndpoint. When Limiter is set and Quota is the zero value,
	// the default is 60 requests per minute.
	Quota admission.Config

	// QuotaByEndpoint overrides Quota for specific endpoint categories.
	QuotaByEndpoint map[string]admission.Config

	// Executor wraps the provider call with resilience patterns (retry,
	// timeout, circuit breaker, bulkhead). nil invokes the provider
	// directly.
	Executor *resilience.Executor

	// Middleware adds tracing, metrics, and logging around the provider
	// call. nil disables call observability.
	Middleware *observe.Middleware

	// Logger receives pipeline-level diagnostics (denials, memoization
	// failures). Default: a noop logger.
	Logger observe.Logger
}

// Governor runs the governance pipeline for provider calls.
//
// Contract:
//   - Concurrency: all methods are safe for concurrent use.
//   - Coalescing: concurrent Executes with the same canonical key share one
//     provider call and one admission slot.
//   - Errors: admission denials are ErrDenied; provider failures surface as
//     classified errors with generic user-facing messages. Errors are never
//     memoized.
//   - Ownership: the Governor owns nothing passed to ProviderFunc; cached
//     response bytes must not be mutated by callers.
type Governor struct {
	cache           cache.Cache
	keyer           cache.Keyer
	policy          cache.Policy
	limiter         *admission.Limiter
	quota           admission.Config
	quotaByEndpoint map[string]admission.Config
	executor        *resilience.Executor
	middleware      *observe.Middleware
	logger          observe.Logger
	flight          singleflight.Group
}

// NewGovernor creates a Governor with defaults applied.
func NewGovernor(cfg Config) *Governor {
	if cfg.Keyer == nil {
		cfg.Keyer = cache.NewDefaultKeyer()
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NewNoopLogger()
	}
	policy := cache.DefaultPolicy()
	if cfg.Policy != nil {
		policy = *cfg.Policy
	}
	if cfg.Limiter != nil && cfg.Quota == (admission.Config{}) {
		cfg.Quota = admission.Config{Window: time.Minute, MaxRequests: 60}
	}
	return &Governor{
		cache:           cfg.Cache,
		keyer:           cfg.Keyer,
		policy:          policy,
		limiter:         cfg.Limiter,
		quota:           cfg.Quota,
		quotaByEndpoint: cfg.QuotaByEndpoint,
		executor:        cfg.Executor,
		middleware:      cfg.Middleware,
		logger:          cfg.Logger,
	}
}

// Execute runs one logical request through the pipeline: memoizer lookup,
// admission check, resilient provider call, memoizer store.
//
// A memoizer hit returns immediately without consuming an admission slot.
// On a miss, concurrent calls with the same canonical key are coalesced:
// one provider call runs, every waiter gets its result.
func (g *Governor) Execute(ctx context.Context, meta observe.CallMeta, request any, call ProviderFunc) (Result, error) {
	if call == nil {
		return Result{}, ErrNilProvider
	}
	if err := meta.Validate(); err != nil {
		return Result{}, err
	}
	if meta.Subject == "" {
		return Result{}, ErrMissingSubject
	}

	key := g.cacheKey(ctx, meta, request)
	if key != "" {
		if value, ok := g.cache.Get(ctx, key); ok {
			return Result{Value: value, Cached: true}, nil
		}
	}

	if key == "" {
		// No canonical key, nothing to coalesce on.
		return g.invoke(ctx, meta, request, key, call)
	}

	v, err, _ := g.flight.Do(key, func() (any, error) {
		return g.invoke(ctx, meta, request, key, call)
	})
	result, _ := v.(Result)
	return result, err
}

// InvalidateSubject removes every memoized response stored for the given
// subject. Returns the number of entries removed.
func (g *Governor) InvalidateSubject(ctx context.Context, subject string) int {
	if g.cache == nil {
		return 0
	}
	return g.cache.DeleteByTag(ctx, subjectTag(subject))
}

// InvalidateEndpoint removes every memoized response stored for the given
// endpoint category. Returns the number of entries removed.
func (g *Governor) InvalidateEndpoint(ctx context.Context, endpoint string) int {
	if g.cache == nil {
		return 0
	}
	return g.cache.DeleteByTag(ctx, endpointTag(endpoint))
}

// Shutdown stops the limiter's background sweep and, when the cache owns
// one, the cache's too. The Governor must not be used after Shutdown.
func (g *Governor) Shutdown() {
	if g.limiter != nil {
		g.limiter.Close()
	}
	if closer, ok := g.cache.(interface{ Close() }); ok {
		closer.Close()
	}
}

// invoke runs the admitted portion of the pipeline: admission check,
// provider call, memoizer store.
func (g *Governor) invoke(ctx context.Context, meta observe.CallMeta, request any, key string, call ProviderFunc) (Result, error) {
	remaining := 0
	if g.limiter != nil {
		decision, err := g.limiter.Check(meta.Subject, meta.Endpoint, g.quotaFor(meta.Endpoint))
		if err != nil {
			return Result{}, err
		}
		if !decision.Allowed {
			g.logger.WithCall(meta).Warn(ctx, "admission denied",
				observe.Field{Key: "retry_after", Value: decision.RetryAfter.String()},
			)
			return Result{RetryAfter: decision.RetryAfter},
				fmt.Errorf("%w: retry after %s", ErrDenied, decision.RetryAfter)
		}
		remaining = decision.Remaining
	}

	value, err := g.callProvider(ctx, meta, request, call)
	if err != nil {
		return Result{Remaining: remaining}, err
	}

	if key != "" {
		ttl := g.policy.EffectiveTTL(0)
		tags := []string{subjectTag(meta.Subject), endpointTag(meta.Endpoint)}
		if err := g.cache.Set(ctx, key, value, ttl, tags...); err != nil {
			// A failed store degrades the next call to a miss; it does not
			// fail this one.
			g.logger.WithCall(meta).Warn(ctx, "memoize failed",
				observe.Field{Key: "error", Value: err.Error()},
			)
		}
	}

	return Result{Value: value, Remaining: remaining}, nil
}

// callProvider invokes the provider under the configured resilience
// patterns and observability middleware. Failures come back classified,
// with the raw error detail logged internally only.
func (g *Governor) callProvider(ctx context.Context, meta observe.CallMeta, request any, call ProviderFunc) ([]byte, error) {
	fn := func(ctx context.Context, meta observe.CallMeta, request any) (any, error) {
		var value []byte
		op := func(ctx context.Context) error {
			v, err := call(ctx, request)
			if err != nil {
				return err
			}
			value = v
			return nil
		}
		var err error
		if g.executor != nil {
			err = g.executor.Execute(ctx, op)
		} else {
			err = op(ctx)
		}
		if err != nil {
			return nil, err
		}
		return value, nil
	}

	if g.middleware != nil {
		fn = g.middleware.Wrap(fn)
	}

	v, err := fn(ctx, meta, request)
	if err != nil {
		if g.middleware == nil {
			// The middleware normally records the raw error; without it,
			// keep the full detail in the internal log.
			g.logger.WithCall(meta).Error(ctx, "provider call failed",
				observe.Field{Key: "error", Value: err.Error()},
			)
		}
		return nil, resilience.Classify(err)
	}
	value, _ := v.([]byte)
	return value, nil
}

// cacheKey returns the canonical key for this call, or "" when memoization
// is off or the payload cannot be canonicalized. Un-keyable payloads run
// uncached rather than failing the call.
func (g *Governor) cacheKey(ctx context.Context, meta observe.CallMeta, request any) string {
	if g.cache == nil || !g.policy.ShouldCache() {
		return ""
	}
	key, err := g.keyer.Key(map[string]any{
		"subject":  meta.Subject,
		"endpoint": meta.Endpoint,
		"request":  request,
	})
	if err != nil {
		g.logger.WithCall(meta).Debug(ctx, "request not memoizable",
			observe.Field{Key: "error", Value: err.Error()},
		)
		return ""
	}
	return key
}

func (g *Governor) quotaFor(endpoint string) admission.Config {
	if q, ok := g.quotaByEndpoint[endpoint]; ok {
		return q
	}
	return g.quota
}

func subjectTag(subject string) string   { return "subject:" + subject }
func endpointTag(endpoint string) string { return "endpoint:" + endpoint }
