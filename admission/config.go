package admission

import (
	"fmt"
	"time"
)

// Config is the per-endpoint-category quota supplied by the caller at check
// time. It is not stored by the limiter beyond what statistics require.
type Config struct {
	// Window is the sliding window duration. Must be > 0.
	Window time.Duration

	// MaxRequests is the maximum number of calls allowed within Window.
	// Must be >= 0. Zero always denies.
	MaxRequests int

	// BlockDuration is the cooldown imposed after a quota violation.
	// It should be strictly longer than Window to dampen retry storms.
	// Default: 2 * Window.
	BlockDuration time.Duration
}

// Validate checks the config for invalid values. Invalid configuration is a
// synchronous caller error; it never mutates limiter state.
func (c Config) Validate() error {
	if c.Window <= 0 {
		return fmt.Errorf("%w: window must be > 0, got %v", ErrInvalidConfig, c.Window)
	}
	if c.MaxRequests < 0 {
		return fmt.Errorf("%w: max requests must be >= 0, got %d", ErrInvalidConfig, c.MaxRequests)
	}
	if c.BlockDuration < 0 {
		return fmt.Errorf("%w: block duration must be >= 0, got %v", ErrInvalidConfig, c.BlockDuration)
	}
	return nil
}

// withDefaults returns a copy of the config with defaults applied.
func (c Config) withDefaults() Config {
	if c.BlockDuration == 0 {
		c.BlockDuration = 2 * c.Window
	}
	return c
}

// Decision is the outcome of a single admission check.
type Decision struct {
	// Allowed reports whether the call may proceed.
	Allowed bool

	// Remaining is the number of calls left in the current window.
	// Only meaningful when Allowed is true.
	Remaining int

	// ResetAt is when the oldest recorded call ages out of the window.
	ResetAt time.Time

	// RetryAfter is how long the caller should wait before retrying.
	// Zero when Allowed is true.
	RetryAfter time.Duration
}
