// Package common provides shared constants, types, and utilities
// used across VPN Detector.
package common

import "errors"

// Sentinel errors.
// These can be checked with errors.Is() for proper error handling.
var (
	// Identity lookup errors.
	ErrLookupFailed      = errors.New("identity lookup failed")
	ErrMalformedResponse = errors.New("malformed identity response")

	// Probe tooling errors. These never leave the vpn package; probes
	// downgrade them to their fallback verdict.
	ErrTimeout         = errors.New("operation timed out")
	ErrToolUnavailable = errors.New("tool not available")

	// Credential errors.
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrCredentialStorage   = errors.New("failed to store credentials")

	// Configuration errors.
	ErrConfigLoad    = errors.New("failed to load configuration")
	ErrConfigSave    = errors.New("failed to save configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg: message,
		err: err,
	}
}

type wrappedError struct {
	msg string
	err error
}

func (e *wrappedError) Error() string {
	return e.msg + ": " + e.err.Error()
}

func (e *wrappedError) Unwrap() error {
	return e.err
}
