// Package installer — secret.go
//
// The auth key is held in a zeroing buffer, used exactly once for
// bring-up and wiped immediately after, success or failure. It is
// never written to the config file or any log line.
package installer

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// Secret holds a sensitive byte string that can be wiped.
type Secret struct {
	buf []byte
}

// NewSecret wraps b. The Secret takes ownership of the slice.
func NewSecret(b []byte) *Secret {
	return &Secret{buf: b}
}

// Value returns the current secret value. Empty after Zero.
func (s *Secret) Value() string {
	return string(s.buf)
}

// Empty reports whether the secret has been zeroed or never set.
func (s *Secret) Empty() bool {
	return len(s.buf) == 0
}

// Zero overwrites the underlying buffer and drops it.
func (s *Secret) Zero() {
	for i := range s.buf {
		s.buf[i] = 0
	}
	s.buf = nil
}

// readSecret prompts without echoing the input.
func readSecret(prompt string) (*Secret, error) {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return nil, fmt.Errorf("read secret: %w", err)
	}
	return NewSecret(b), nil
}
