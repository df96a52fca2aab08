package health

import (
	"context"
	"time"
)

// Status grades a gateway component: the memoization store, the
// admission limiter, or the upstream provider itself.
type Status int

const (
	// StatusHealthy means the component is serving calls normally.
	StatusHealthy Status = iota
	// StatusDegraded means the component works but is under pressure,
	// for example a cache near capacity or a rising admission block rate.
	StatusDegraded
	// StatusUnhealthy means the component cannot serve calls.
	StatusUnhealthy
)

var statusNames = [...]string{"healthy", "degraded", "unhealthy"}

// String returns the lowercase name used in probe responses.
func (s Status) String() string {
	if s < StatusHealthy || s > StatusUnhealthy {
		return "unknown"
	}
	return statusNames[s]
}

// Result is the outcome of probing one component.
type Result struct {
	Status  Status
	Message string

	// Details carries component metrics: cache occupancy, hit rate,
	// admission counters.
	Details map[string]any

	Duration  time.Duration
	Timestamp time.Time
	Error     error
}

// Healthy builds a passing result.
func Healthy(message string) Result {
	return Result{Status: StatusHealthy, Message: message, Timestamp: time.Now()}
}

// Degraded builds a result for a component under pressure.
func Degraded(message string) Result {
	return Result{Status: StatusDegraded, Message: message, Timestamp: time.Now()}
}

// Unhealthy builds a failing result carrying the cause.
func Unhealthy(message string, err error) Result {
	return Result{Status: StatusUnhealthy, Message: message, Error: err, Timestamp: time.Now()}
}

// WithDetails attaches component metrics to the result.
func (r Result) WithDetails(details map[string]any) Result {
	r.Details = details
	return r
}

// WithDuration records how long the probe took.
func (r Result) WithDuration(d time.Duration) Result {
	r.Duration = d
	return r
}

// Checker probes one component of the gateway.
type Checker interface {
	// Name identifies the component, e.g. "cache" or "admission".
	Name() string

	// Check probes the component. It must honor ctx cancellation.
	Check(ctx context.Context) Result
}

// CheckerFunc adapts a plain function into a Checker, handy for ad hoc
// probes like pinging a provider endpoint.
type CheckerFunc struct {
	name string
	fn   func(context.Context) Result
}

// NewCheckerFunc wraps fn as a named Checker.
func NewCheckerFunc(name string, fn func(context.Context) Result) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

func (f *CheckerFunc) Name() string { return f.name }

func (f *CheckerFunc) Check(ctx context.Context) Result { return f.fn(ctx) }
