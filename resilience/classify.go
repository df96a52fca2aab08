package resilience

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Kind is the closed taxonomy of provider call failures.
type Kind string

const (
	KindRateLimited        Kind = "RATE_LIMITED"
	KindTimeout            Kind = "TIMEOUT"
	KindInvalidInput       Kind = "INVALID_INPUT"
	KindModelError         Kind = "MODEL_ERROR"
	KindQuotaExceeded      Kind = "QUOTA_EXCEEDED"
	KindServiceUnavailable Kind = "SERVICE_UNAVAILABLE"
	KindUnknown            Kind = "UNKNOWN"
)

// ClassifiedError is the normalized form of a provider call failure. It is
// produced once per failed call and never mutated.
//
// UserMessage is generic per kind and safe to surface to end users. The
// original failure stays reachable through Unwrap for internal diagnostics
// and must never be returned to callers outside the process.
type ClassifiedError struct {
	Kind        Kind
	UserMessage string
	Retryable   bool
	RetryAfter  time.Duration

	cause error
}

// Error returns the taxonomy-level description. The raw provider error is
// deliberately absent.
func (e *ClassifiedError) Error() string {
	return "resilience: " + string(e.Kind) + ": " + e.UserMessage
}

// Unwrap exposes the original failure for internal logging and errors.Is
// checks.
func (e *ClassifiedError) Unwrap() error {
	return e.cause
}

// User-facing messages per kind. Provider identifiers, raw error text, and
// stack traces must never appear here.
var userMessages = map[Kind]string{
	KindRateLimited:        "The service is receiving too many requests. Please try again shortly.",
	KindTimeout:            "The request took too long to complete. Please try again.",
	KindInvalidInput:       "The request could not be processed. Please check your input.",
	KindModelError:         "The service had a problem handling the request. Please try again later.",
	KindQuotaExceeded:      "The usage quota for this service has been exhausted.",
	KindServiceUnavailable: "The service is temporarily unavailable. Please try again later.",
	KindUnknown:            "An unexpected error occurred. Please try again.",
}

// Conservative retry-after defaults applied when the upstream signal does
// not supply one.
var defaultRetryAfter = map[Kind]time.Duration{
	KindRateLimited:        60 * time.Second,
	KindTimeout:            10 * time.Second,
	KindServiceUnavailable: 30 * time.Second,
}

// retryableKinds are the only kinds retried by default.
var retryableKinds = map[Kind]bool{
	KindRateLimited:        true,
	KindTimeout:            true,
	KindServiceUnavailable: true,
}

// signature maps a lowercase substring of the raw failure to a kind. Order
// matters: the first match wins.
type signature struct {
	substr string
	kind   Kind
}

var signatures = []signature{
	{"rate limit", KindRateLimited},
	{"rate_limit", KindRateLimited},
	{"too many requests", KindRateLimited},
	{"429", KindRateLimited},

	{"quota", KindQuotaExceeded},
	{"billing", KindQuotaExceeded},
	{"insufficient credit", KindQuotaExceeded},
	{"payment required", KindQuotaExceeded},

	{"timed out", KindTimeout},
	{"timeout", KindTimeout},
	{"deadline exceeded", KindTimeout},

	{"service unavailable", KindServiceUnavailable},
	{"bad gateway", KindServiceUnavailable},
	{"connection refused", KindServiceUnavailable},
	{"connection reset", KindServiceUnavailable},
	{"overloaded", KindServiceUnavailable},
	{"503", KindServiceUnavailable},
	{"502", KindServiceUnavailable},
	{"529", KindServiceUnavailable},

	{"invalid request", KindInvalidInput},
	{"invalid_request", KindInvalidInput},
	{"context length", KindInvalidInput},
	{"content policy", KindInvalidInput},
	{"unsupported", KindInvalidInput},
	{"400", KindInvalidInput},
	{"422", KindInvalidInput},

	{"internal server error", KindModelError},
	{"model_error", KindModelError},
	{"api_error", KindModelError},
	{"500", KindModelError},
}

// Classify normalizes a raw provider failure into the closed taxonomy.
// Classifying an already classified error returns it unchanged; nil returns
// nil.
func Classify(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	kind := KindUnknown
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrTimeout):
		kind = KindTimeout
	default:
		msg := strings.ToLower(err.Error())
		for _, sig := range signatures {
			if strings.Contains(msg, sig.substr) {
				kind = sig.kind
				break
			}
		}
	}

	return newClassified(kind, err)
}

// NewClassified builds a classified error of a known kind wrapping the given
// cause. Intended for provider clients that can map status codes directly
// instead of relying on message signatures.
func NewClassified(kind Kind, cause error) *ClassifiedError {
	if _, ok := userMessages[kind]; !ok {
		kind = KindUnknown
	}
	return newClassified(kind, cause)
}

func newClassified(kind Kind, cause error) *ClassifiedError {
	return &ClassifiedError{
		Kind:        kind,
		UserMessage: userMessages[kind],
		Retryable:   retryableKinds[kind],
		RetryAfter:  defaultRetryAfter[kind],
		cause:       cause,
	}
}

// IsRetryable reports whether the failure should be retried, classifying it
// first if necessary.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return Classify(err).Retryable
}
