package identity

import "errors"

// Sentinel errors for subject resolution.
var (
	// ErrMissingCredential is returned when the credential is empty.
	ErrMissingCredential = errors.New("identity: credential is missing")

	// ErrInvalidCredential is returned when the credential fails
	// validation (bad signature, unknown key, wrong issuer or audience).
	ErrInvalidCredential = errors.New("identity: credential is invalid")

	// ErrExpiredCredential is returned when the credential has expired.
	ErrExpiredCredential = errors.New("identity: credential has expired")

	// ErrNoSubject is returned when a valid credential carries no subject.
	ErrNoSubject = errors.New("identity: credential has no subject")

	// ErrNoResolver is returned by a ChainResolver when no resolver
	// accepts the credential.
	ErrNoResolver = errors.New("identity: no resolver accepts the credential")
)
