package federation

import "errors"

var (
	// ErrRemoteUnreachable reports a failed network call to another site.
	ErrRemoteUnreachable = errors.New("remote site unreachable")
	// ErrRemoteInvalidResponse reports a sync response that could not be
	// validated.
	ErrRemoteInvalidResponse = errors.New("remote site returned an invalid response")
	// ErrScopeNotConfigured reports a scope with no usable search
	// configuration.
	ErrScopeNotConfigured = errors.New("scope not configured for federated search")
)
