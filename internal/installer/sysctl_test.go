package installer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testWriter(run Runner) *SysctlWriter {
	w := NewSysctlWriter(run)
	w.now = func() time.Time {
		return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	}
	return w
}

func TestApplyAppendsMissingLines(t *testing.T) {
	run := newFakeRunner()
	path := filepath.Join(t.TempDir(), "99-rlmesh.conf")

	n, err := testWriter(run).Apply(path, ForwardingLines(false))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if n != 2 {
		t.Errorf("applied = %d, want 2", n)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "net.ipv4.ip_forward=1\nnet.ipv6.conf.all.forwarding=1\n"
	if string(data) != want {
		t.Errorf("content = %q, want %q", data, want)
	}

	if !run.sudoCalled("sysctl -p " + path) {
		t.Error("expected a sysctl reload after applying lines")
	}
	if run.sudoCount("sysctl -p") != 1 {
		t.Errorf("reload should run once, ran %d times", run.sudoCount("sysctl -p"))
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	run := newFakeRunner()
	path := filepath.Join(t.TempDir(), "99-rlmesh.conf")
	w := testWriter(run)
	lines := ForwardingLines(true)

	if _, err := w.Apply(path, lines); err != nil {
		t.Fatalf("first Apply: %v", err)
	}
	first, _ := os.ReadFile(path)

	n, err := w.Apply(path, lines)
	if err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if n != 0 {
		t.Errorf("second Apply appended %d lines, want 0", n)
	}

	second, _ := os.ReadFile(path)
	if string(first) != string(second) {
		t.Errorf("file changed on second Apply:\nfirst:  %q\nsecond: %q", first, second)
	}
}

func TestApplySkipsExistingKeyWithDifferentValue(t *testing.T) {
	run := newFakeRunner()
	dir := t.TempDir()
	path := filepath.Join(dir, "99-rlmesh.conf")
	if err := os.WriteFile(path, []byte("net.ipv4.ip_forward=0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	n, err := testWriter(run).Apply(path, ForwardingLines(false))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if n != 1 {
		t.Errorf("applied = %d, want 1", n)
	}

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "net.ipv4.ip_forward=1") {
		t.Error("existing key must not be rewritten")
	}
	if !strings.Contains(string(data), "net.ipv6.conf.all.forwarding=1") {
		t.Error("missing key should be appended")
	}
}

func TestBackupOncePerRun(t *testing.T) {
	run := newFakeRunner()
	dir := t.TempDir()
	path := filepath.Join(dir, "99-rlmesh.conf")
	if err := os.WriteFile(path, []byte("existing=1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	w := testWriter(run)
	if _, err := w.Apply(path, ForwardingLines(false)); err != nil {
		t.Fatalf("first Apply: %v", err)
	}
	if _, err := w.Apply(path, ForwardingLines(false)); err != nil {
		t.Fatalf("second Apply: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	backups := 0
	for _, e := range entries {
		if strings.Contains(e.Name(), ".bak-") {
			backups++
			if !strings.HasSuffix(e.Name(), ".bak-20260831-120000") {
				t.Errorf("backup name %q missing timestamp suffix", e.Name())
			}
		}
	}
	if backups != 1 {
		t.Errorf("found %d backups, want exactly 1", backups)
	}

	// Backup content is the pre-mutation file.
	backup, err := os.ReadFile(path + ".bak-20260831-120000")
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(backup) != "existing=1\n" {
		t.Errorf("backup content = %q, want pre-mutation content", backup)
	}
}

func TestNoBackupForMissingFile(t *testing.T) {
	run := newFakeRunner()
	dir := t.TempDir()
	path := filepath.Join(dir, "99-rlmesh.conf")

	if _, err := testWriter(run).Apply(path, ForwardingLines(false)); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if run.sudoCalled("cp") {
		t.Error("no backup should be taken when the file does not exist yet")
	}
}

func TestReloadFailureIsFatal(t *testing.T) {
	run := newFakeRunner()
	run.failures["sysctl"] = os.ErrPermission
	path := filepath.Join(t.TempDir(), "99-rlmesh.conf")

	_, err := testWriter(run).Apply(path, ForwardingLines(false))
	if err == nil {
		t.Fatal("expected reload failure")
	}
	if !errors.Is(err, ErrReloadFailed) {
		t.Errorf("error %v should wrap ErrReloadFailed", err)
	}
}
