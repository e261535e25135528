package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestWriteToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "rlmesh.log")
	if err := Init(path); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer Close()

	SetMirror(false)
	defer SetMirror(true)

	Infof("hello %s", "world")
	Warnf("watch out")
	Errorf("broke: %d", 7)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)

	for _, want := range []string{
		"[INFO] hello world",
		"[WARN] watch out",
		"[ERROR] broke: 7",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("log missing %q:\n%s", want, content)
		}
	}

	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	// Each line starts with a timestamp.
	for _, line := range lines {
		if len(line) < 19 || line[4] != '-' || line[13] != ':' {
			t.Errorf("line missing timestamp prefix: %q", line)
		}
	}
}
