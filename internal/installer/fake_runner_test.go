package installer

import (
	"os"
	"path/filepath"
	"strings"
)

// fakeRunner stands in for a live host in tests. File-mutating
// commands (cp, tee) are applied to the real filesystem so tests
// can point them at t.TempDir paths; everything else is recorded
// and answered from canned outputs.
type fakeRunner struct {
	runCalls  []string
	sudoCalls []string
	outputs   map[string]string
	failures  map[string]error
	onPath    map[string]bool
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		outputs:  make(map[string]string),
		failures: make(map[string]error),
		onPath:   make(map[string]bool),
	}
}

func key(name string, args []string) string {
	return strings.Join(append([]string{name}, args...), " ")
}

func (f *fakeRunner) Run(name string, args ...string) ([]byte, error) {
	k := key(name, args)
	f.runCalls = append(f.runCalls, k)
	if err, ok := f.failures[k]; ok {
		return nil, err
	}
	if err, ok := f.failures[name]; ok {
		return nil, err
	}
	if out, ok := f.outputs[k]; ok {
		return []byte(out), nil
	}
	return []byte(f.outputs[name]), nil
}

func (f *fakeRunner) Sudo(name string, args ...string) ([]byte, error) {
	k := key(name, args)
	f.sudoCalls = append(f.sudoCalls, k)
	if err, ok := f.failures[k]; ok {
		return nil, err
	}
	if err, ok := f.failures[name]; ok {
		return nil, err
	}

	switch name {
	case "cp":
		// cp [-p] src dst
		rest := args
		if rest[0] == "-p" {
			rest = rest[1:]
		}
		data, err := os.ReadFile(rest[0])
		if err != nil {
			return nil, err
		}
		return nil, os.WriteFile(rest[1], data, 0644)
	}
	return []byte(f.outputs[k]), nil
}

func (f *fakeRunner) SudoInput(input string, name string, args ...string) ([]byte, error) {
	k := key(name, args)
	f.sudoCalls = append(f.sudoCalls, k)
	if err, ok := f.failures[k]; ok {
		return nil, err
	}
	if err, ok := f.failures[name]; ok {
		return nil, err
	}

	if name == "tee" {
		path := args[len(args)-1]
		if _, err := os.Stat(filepath.Dir(path)); err != nil {
			// Directory outside the test sandbox; record only.
			return nil, nil
		}
		if len(args) > 1 && args[0] == "-a" {
			fh, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
			if err != nil {
				return nil, err
			}
			defer fh.Close()
			_, err = fh.WriteString(input)
			return nil, err
		}
		return nil, os.WriteFile(path, []byte(input), 0644)
	}
	return nil, nil
}

func (f *fakeRunner) Interactive(name string, args ...string) error {
	k := key(name, args)
	f.runCalls = append(f.runCalls, k)
	if err, ok := f.failures[k]; ok {
		return err
	}
	return f.failures[name]
}

func (f *fakeRunner) Look(name string) bool {
	return f.onPath[name]
}

func (f *fakeRunner) sudoCalled(prefix string) bool {
	for _, c := range f.sudoCalls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

func (f *fakeRunner) sudoCount(prefix string) int {
	n := 0
	for _, c := range f.sudoCalls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

var _ Runner = (*fakeRunner)(nil)
