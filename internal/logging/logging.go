// Package logging writes timestamped, leveled lines to the rlmesh
// log file and mirrors them to the terminal. Mirroring is switched
// off while a full-screen TUI owns the terminal. Secrets must never
// be passed through here.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Level is the severity of a log line.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// String returns the level tag used in the log file.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

var (
	mu      sync.Mutex
	logFile *os.File
	mirror  = true
)

// DefaultPath returns the per-user log file location. The tool runs
// unprivileged, so /var/log is not an option.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "rlmesh.log"
	}
	return filepath.Join(home, ".config", "rlmesh", "rlmesh.log")
}

// Init opens (or creates) the log file at path. If the file cannot
// be opened the logger degrades to terminal-only output.
func Init(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	logFile = f
	return nil
}

// Close closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// SetMirror toggles terminal mirroring. Off during TUI phases.
func SetMirror(on bool) {
	mu.Lock()
	defer mu.Unlock()
	mirror = on
}

// Infof logs an informational message.
func Infof(format string, args ...interface{}) {
	write(LevelInfo, format, args...)
}

// Warnf logs a warning.
func Warnf(format string, args ...interface{}) {
	write(LevelWarn, format, args...)
}

// Errorf logs an error.
func Errorf(format string, args ...interface{}) {
	write(LevelError, format, args...)
}

func write(level Level, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	line := fmt.Sprintf("%s [%s] %s\n",
		time.Now().Format("2006-01-02 15:04:05"),
		level, fmt.Sprintf(format, args...))

	if logFile != nil {
		logFile.WriteString(line)
	}
	if mirror {
		if level == LevelError {
			os.Stderr.WriteString(line)
		} else {
			os.Stdout.WriteString(line)
		}
	}
}
