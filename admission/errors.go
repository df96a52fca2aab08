package admission

import "errors"

// Sentinel errors for admission control.
var (
	// ErrInvalidConfig is returned when a per-call config fails validation.
	ErrInvalidConfig = errors.New("admission: invalid config")

	// ErrInvalidSubject is returned when the subject is empty or contains
	// reserved characters.
	ErrInvalidSubject = errors.New("admission: invalid subject")

	// ErrInvalidEndpoint is returned when the endpoint is empty or contains
	// reserved characters.
	ErrInvalidEndpoint = errors.New("admission: invalid endpoint")
)
