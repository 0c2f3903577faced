// Package common provides shared constants, types, and utilities
// used across VPN Detector.
package common

import "time"

// Application metadata.
const (
	// AppName is the display name of the application.
	AppName = "VPN Detector"
	// AppBinary is the executable name used in help and notifications.
	AppBinary = "vpn-detector"
	// ConfigDirName is the name of the configuration directory.
	ConfigDirName = "vpn-detector"
)

// File names used by the application.
const (
	ConfigFileName      = "config.yaml"
	CredentialsFileName = ".credentials"
	LogFileName         = "vpn-detector.log"
)

// Default timeouts and intervals.
const (
	// CommandTimeout bounds every external tool invocation made by a probe.
	CommandTimeout = 5 * time.Second
	// LookupTimeout bounds the identity lookup request (connect + read).
	LookupTimeout = 10 * time.Second
	// WatchInterval is how often watch mode re-runs detection.
	WatchInterval = 30 * time.Second
	// MinWatchInterval is the lower bound accepted for WatchInterval.
	MinWatchInterval = 2 * time.Second
)

// Identity lookup defaults.
const (
	// DefaultLookupURL is the public IP-info endpoint.
	DefaultLookupURL = "https://ipinfo.io/json"
	// DefaultTokenEnv is the environment variable holding the optional lookup token.
	DefaultTokenEnv = "IPINFO_TOKEN"
	// TokenKey is the keyring entry used for the lookup token.
	TokenKey = "ipinfo-token"
)
