package installer

import "errors"

// Sentinel errors for setup operations. Callers check these with
// errors.Is to decide between aborting the run and degrading.
var (
	// Privilege errors — always fatal.
	ErrRunningAsRoot         = errors.New("must not run as root")
	ErrEscalationUnavailable = errors.New("sudo escalation unavailable")

	// Config errors.
	ErrReloadFailed = errors.New("kernel parameter reload failed")

	// Device errors — degraded state, never fatal.
	ErrUnsupportedFeature    = errors.New("offload feature not supported")
	ErrDispatcherUnavailable = errors.New("networkd-dispatcher not enabled")

	// Connection errors.
	ErrBringUpFailed = errors.New("mesh bring-up failed")
)
