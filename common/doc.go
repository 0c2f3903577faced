// Package common provides shared constants, types, utilities, and interfaces
// used throughout VPN Detector.
//
// This package holds the cross-cutting concerns:
//
//   - Constants: application name, file names and default timeouts
//   - Errors: sentinel errors checked with errors.Is across packages
//   - Interfaces: small abstractions for logging and secret storage
//   - Logger: leveled logging to stderr with an optional rotating file sink
//   - Utils: config directory resolution and slice helpers
//
// # Usage
//
//	import "github.com/yllada/vpn-detector/common"
//
//	timeout := common.CommandTimeout
//
//	common.LogDebug("interface probe used %s", source)
//
//	if errors.Is(err, common.ErrLookupFailed) {
//	    // identity could not be resolved
//	}
package common
