package installer

import "testing"

func TestSecretZero(t *testing.T) {
	raw := []byte("tskey-abc12345678901")
	s := NewSecret(raw)

	if s.Empty() {
		t.Fatal("secret should not be empty before Zero")
	}
	if s.Value() != "tskey-abc12345678901" {
		t.Fatalf("unexpected value %q", s.Value())
	}

	s.Zero()

	if !s.Empty() {
		t.Error("secret should be empty after Zero")
	}
	if s.Value() != "" {
		t.Errorf("value should be empty after Zero, got %q", s.Value())
	}
	for i, b := range raw {
		if b != 0 {
			t.Errorf("byte %d not wiped", i)
		}
	}
}

func TestSecretZeroTwice(t *testing.T) {
	s := NewSecret([]byte("tskey-abc12345678901"))
	s.Zero()
	s.Zero() // must not panic
	if !s.Empty() {
		t.Error("secret should stay empty")
	}
}
