package domain

import "errors"

var (
	// ErrValidation marks client-side input errors caught before any network call.
	ErrValidation = errors.New("validation failed")
	// ErrAuthRejected means the upstream refused the credentials or the token.
	ErrAuthRejected = errors.New("authentication rejected")
	// ErrNetworkFailure covers transport failures and unusable responses.
	ErrNetworkFailure = errors.New("network failure")
	// ErrStorageDegraded is logged when the durable token medium is unavailable.
	ErrStorageDegraded = errors.New("token storage degraded")
	// ErrMalformedResponse is a NetworkFailure whose body matched no known shape.
	ErrMalformedResponse = errors.New("malformed response")
	ErrUnknownRole       = errors.New("unknown role")

	// ErrSuperseded is a login result dropped in favour of a newer one.
	ErrSuperseded = errors.New("superseded")
)
