package installer

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Runner abstracts the external commands the installer drives so the
// orchestration logic can be exercised against a fake host in tests.
// Privileged operations go through Sudo — the process itself never
// runs as root.
type Runner interface {
	// Run executes an unprivileged command and returns combined output.
	Run(name string, args ...string) ([]byte, error)
	// Sudo executes a command through sudo.
	Sudo(name string, args ...string) ([]byte, error)
	// SudoInput executes a command through sudo with input on stdin.
	SudoInput(input string, name string, args ...string) ([]byte, error)
	// Interactive executes a command attached to the terminal.
	Interactive(name string, args ...string) error
	// Look reports whether an executable is on PATH.
	Look(name string) bool
}

// hostRunner runs commands on the local host.
type hostRunner struct{}

// NewRunner returns a Runner backed by os/exec.
func NewRunner() Runner {
	return hostRunner{}
}

func (hostRunner) Run(name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%s %s: %s: %s",
			name, strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return output, nil
}

func (r hostRunner) Sudo(name string, args ...string) ([]byte, error) {
	return r.Run("sudo", append([]string{name}, args...)...)
}

func (hostRunner) SudoInput(input string, name string, args ...string) ([]byte, error) {
	cmd := exec.Command("sudo", append([]string{name}, args...)...)
	cmd.Stdin = strings.NewReader(input)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("sudo %s: %s: %s",
			name, err, strings.TrimSpace(string(output)))
	}
	return output, nil
}

func (hostRunner) Interactive(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func (hostRunner) Look(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
