// Package installer — sysctl.go
//
// Idempotent kernel parameter configuration. A subnet router needs
// IP forwarding; the legacy accept-source-route toggles are opt-in
// and disabled unless the operator asks for them. The writer is safe
// to run repeatedly: existing keys are never duplicated or changed.
package installer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ripsline/mesh-subnet-node/internal/logging"
)

// SysctlConfPath is the drop-in file this tool owns.
const SysctlConfPath = "/etc/sysctl.d/99-rlmesh.conf"

// ConfigLine is one key=value kernel parameter.
type ConfigLine struct {
	Key   string
	Value string
}

func (l ConfigLine) String() string {
	return l.Key + "=" + l.Value
}

// ForwardingLines returns the sysctl lines for a subnet router /
// exit node. Source-route acceptance is legacy behavior and off by
// default; withSourceRoute enables it explicitly.
func ForwardingLines(withSourceRoute bool) []ConfigLine {
	lines := []ConfigLine{
		{"net.ipv4.ip_forward", "1"},
		{"net.ipv6.conf.all.forwarding", "1"},
	}
	if withSourceRoute {
		lines = append(lines,
			ConfigLine{"net.ipv4.conf.all.accept_source_route", "1"},
			ConfigLine{"net.ipv6.conf.all.accept_source_route", "1"},
		)
	}
	return lines
}

// SysctlWriter appends missing config lines to sysctl drop-in files.
// The target file is backed up at most once per process run, before
// the first mutation. All writes go through sudo.
type SysctlWriter struct {
	run      Runner
	backedUp map[string]bool
	now      func() time.Time
}

// NewSysctlWriter returns a writer using the given runner.
func NewSysctlWriter(run Runner) *SysctlWriter {
	return &SysctlWriter{
		run:      run,
		backedUp: make(map[string]bool),
		now:      time.Now,
	}
}

// Apply appends each line whose key is not yet present in path, in
// the given order, then reloads the file via sysctl. It returns the
// number of lines appended. A non-zero reload status is fatal for
// the caller: the file may be half-applied on disk but the kernel
// has not picked it up.
func (w *SysctlWriter) Apply(path string, lines []ConfigLine) (int, error) {
	if err := w.backup(path); err != nil {
		return 0, err
	}

	applied := 0
	for _, line := range lines {
		content, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return applied, fmt.Errorf("read %s: %w", path, err)
		}

		if hasKey(string(content), line.Key) {
			logging.Infof("sysctl %s already configured, skipping", line.Key)
			continue
		}

		if _, err := w.run.SudoInput(line.String()+"\n", "tee", "-a", path); err != nil {
			return applied, fmt.Errorf("append %s: %w", line.Key, err)
		}
		logging.Infof("sysctl %s=%s appended", line.Key, line.Value)
		applied++
	}

	if _, err := w.run.Sudo("sysctl", "-p", path); err != nil {
		return applied, fmt.Errorf("%w: %v", ErrReloadFailed, err)
	}
	return applied, nil
}

// backup copies path to a timestamped sibling before the first
// mutation of this run. Backups are never deleted by this tool.
func (w *SysctlWriter) backup(path string) error {
	if w.backedUp[path] {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		w.backedUp[path] = true
		return nil
	}

	stamp := w.now().Format("20060102-150405")
	backupPath := fmt.Sprintf("%s.bak-%s", path, stamp)
	if _, err := w.run.Sudo("cp", "-p", path, backupPath); err != nil {
		return fmt.Errorf("backup %s: %w", path, err)
	}
	logging.Infof("backed up %s to %s", filepath.Base(path), backupPath)
	w.backedUp[path] = true
	return nil
}

// hasKey reports whether any line of content starts with key. This
// deliberately matches on the key prefix only, so an existing entry
// with a different value is left alone.
func hasKey(content, key string) bool {
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, key) {
			return true
		}
	}
	return false
}
