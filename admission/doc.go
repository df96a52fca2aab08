// Package admission provides sliding-window admission control for provider calls.
//
// It implements a sliding window log limiter keyed by (subject, endpoint)
// with a cooldown period after quota violations. Check-and-record is a single
// atomic operation, state is sharded so unrelated pairs do not contend, and
// stale records are reclaimed by a periodic sweep.
package admission
