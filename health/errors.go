package health

import "errors"

var (
	// ErrCheckFailed marks a probe that found its component broken.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout marks a probe that ran past the aggregator budget.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound is returned when probing an unregistered name.
	ErrCheckerNotFound = errors.New("health: checker not found")
)
