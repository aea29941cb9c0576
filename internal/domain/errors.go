package domain

import "errors"

var (
	// ErrMissingAPIKey signals an absent provider credential. Checked before
	// any network attempt.
	ErrMissingAPIKey = errors.New("provider API key is missing")
	// ErrProviderError signals a transport or API failure from the provider.
	ErrProviderError = errors.New("provider error")
	// ErrMalformedResponse signals a provider response that does not match
	// the declared schema. Never a partial success.
	ErrMalformedResponse = errors.New("malformed provider response")
	// ErrInvalidQuery signals a query field outside the allowed values.
	ErrInvalidQuery = errors.New("invalid query")
)
