package observe

import "errors"

var (
	// ErrMissingServiceName is returned by Config.Validate when
	// ServiceName is empty.
	ErrMissingServiceName = errors.New("observe: service name is required")

	// ErrMissingEndpoint is returned by CallMeta.Validate when
	// Endpoint is empty. A call with no endpoint cannot be named,
	// keyed, or metered.
	ErrMissingEndpoint = errors.New("observe: call endpoint is required")
)
