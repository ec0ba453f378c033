package secret

import (
	"errors"
	"strings"
	"testing"

	"github.com/99designs/keyring"
)

const testCost = 1 << 4

func newSealer(t *testing.T, pass string) *Sealer {
	t.Helper()
	s, err := NewSealer(pass, WithCost(testCost))
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}
	return s
}

func TestSealer(t *testing.T) {
	s := newSealer(t, "correct horse")

	tests := []string{"hunter2", "pässwörd", strings.Repeat("x", 1000)}
	for _, plain := range tests {
		sealed, err := s.Encrypt(plain)
		if err != nil {
			t.Fatalf("encrypt: %v", err)
		}
		if !IsSealed(sealed) {
			t.Errorf("%q lacks prefix", sealed)
		}
		if strings.Contains(sealed, plain) {
			t.Errorf("sealed value leaks plaintext")
		}
		got, err := s.Decrypt(sealed)
		if err != nil {
			t.Fatalf("decrypt: %v", err)
		}
		if got != plain {
			t.Errorf("got %q, want %q", got, plain)
		}
	}

	a, _ := s.Encrypt("same")
	b, _ := s.Encrypt("same")
	if a == b {
		t.Error("two encryptions share a nonce")
	}
}

func TestSealerErrors(t *testing.T) {
	s := newSealer(t, "one")
	other := newSealer(t, "two")
	sealed, _ := s.Encrypt("hunter2")

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"wrong passphrase", sealed, ErrDecrypt},
		{"not sealed", "hunter2", ErrNotSealed},
		{"bad base64", Prefix + "!!!", ErrDecrypt},
		{"too short", Prefix + "AAAA", ErrDecrypt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := other.Decrypt(tt.input); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := NewSealer(""); !errors.Is(err, ErrEmptyPassphrase) {
		t.Errorf("empty passphrase: %v", err)
	}
	if v, err := s.Encrypt(""); v != "" || err != nil {
		t.Errorf("empty encrypt: %q %v", v, err)
	}
	if v, err := s.Decrypt(""); v != "" || err != nil {
		t.Errorf("empty decrypt: %q %v", v, err)
	}
}

func TestPlain(t *testing.T) {
	var c Crypter = Plain{}
	v, _ := c.Encrypt("x")
	if v != "x" {
		t.Errorf("encrypt = %q", v)
	}
	v, _ = c.Decrypt("x")
	if v != "x" {
		t.Errorf("decrypt = %q", v)
	}
}

func TestPassphrase(t *testing.T) {
	ring := keyring.NewArrayKeyring(nil)

	first, err := Passphrase(ring)
	if err != nil {
		t.Fatalf("passphrase: %v", err)
	}
	if first == "" {
		t.Fatal("empty passphrase generated")
	}
	second, err := Passphrase(ring)
	if err != nil {
		t.Fatalf("passphrase: %v", err)
	}
	if first != second {
		t.Error("passphrase not reused")
	}

	ring = keyring.NewArrayKeyring([]keyring.Item{{Key: PassphraseKey, Data: []byte("stored")}})
	a, err := FromKeyring(ring, WithCost(testCost))
	if err != nil {
		t.Fatalf("from keyring: %v", err)
	}
	b := newSealer(t, "stored")
	sealed, _ := a.Encrypt("hunter2")
	if got, err := b.Decrypt(sealed); err != nil || got != "hunter2" {
		t.Errorf("keyring sealer incompatible: %q %v", got, err)
	}
}
