package govern

import "errors"

// Sentinel errors for the governance pipeline.
var (
	// ErrNilProvider is returned when Execute is called without a provider
	// function.
	ErrNilProvider = errors.New("govern: provider function is nil")

	// ErrMissingSubject is returned when the call metadata has no subject.
	ErrMissingSubject = errors.New("govern: call subject is required")

	// ErrDenied is returned when the admission controller rejects the call.
	// The Result returned alongside it carries the retry-after hint.
	ErrDenied = errors.New("govern: admission denied")
)
