// Package common provides shared constants, types, and utilities
// used across VPN Detector.
package common

// SecretStore defines the interface for small secret storage such as
// the identity lookup token.
type SecretStore interface {
	// Store saves a secret under key.
	Store(key, value string) error
	// Get retrieves the secret stored under key.
	Get(key string) (string, error)
	// Delete removes the secret stored under key.
	Delete(key string) error
}

// Logger defines the interface for leveled logging.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}
