// Package installer — privilege.go
//
// The tool runs as a regular user and escalates per operation
// through sudo. Running the whole process as root is refused:
// everything that does not need privilege then would have it.
package installer

import (
	"fmt"
	"os"
)

// CheckRunningUser fails when the effective user is root.
func CheckRunningUser() error {
	if os.Geteuid() == 0 {
		return fmt.Errorf("%w: run as a regular user, sudo is used per operation", ErrRunningAsRoot)
	}
	return nil
}

// CheckEscalationAvailable verifies sudo works. It first tries a
// silent check; if that fails (no cached credentials), it prompts
// the operator once via an interactive sudo -v.
func CheckEscalationAvailable(run Runner) error {
	if _, err := run.Run("sudo", "-n", "true"); err == nil {
		return nil
	}

	fmt.Println("  sudo access is required — you may be prompted for your password.")
	if err := run.Interactive("sudo", "-v"); err != nil {
		return fmt.Errorf("%w: %v", ErrEscalationUnavailable, err)
	}
	return nil
}
