// Package secret encrypts mail account passwords at rest.
//
// A Sealer derives a key from a passphrase with scrypt and seals values
// with XChaCha20-Poly1305. Sealed values are text and carry a version
// prefix, so plain and sealed passwords can be told apart:
//
//	s, _ := secret.NewSealer(passphrase)
//	sealed, _ := s.Encrypt("hunter2") // "gw1:..."
//	plain, _ := s.Decrypt(sealed)
//
// The passphrase can be kept in the system keyring; see Passphrase.
package secret

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

// Prefix marks a sealed value.
const Prefix = "gw1:"

// DefaultSalt is used when NewSealer is not given WithSalt.
const DefaultSalt = "groupware/secret/v1"

// scrypt parameters recommended for interactive use.
const (
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

var (
	// ErrEmptyPassphrase is returned by NewSealer for an empty passphrase.
	ErrEmptyPassphrase = errors.New("secret: empty passphrase")

	// ErrNotSealed is returned when decrypting a value without Prefix.
	ErrNotSealed = errors.New("secret: value is not sealed")

	// ErrDecrypt is returned when a sealed value fails authentication,
	// usually because it was sealed with another passphrase.
	ErrDecrypt = errors.New("secret: cannot decrypt value")
)

// Crypter encrypts and decrypts account passwords.
type Crypter interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(sealed string) (string, error)
}

// IsSealed reports whether v was produced by a Sealer.
func IsSealed(v string) bool {
	return strings.HasPrefix(v, Prefix)
}

type sealerOptions struct {
	salt []byte
	n    int
}

// SealerOption configures NewSealer.
type SealerOption func(*sealerOptions)

// WithSalt sets the key derivation salt.
func WithSalt(salt []byte) SealerOption {
	return func(o *sealerOptions) {
		if len(salt) > 0 {
			o.salt = salt
		}
	}
}

// WithCost sets the scrypt CPU/memory cost, a power of two. Lower values
// are only meant for tests.
func WithCost(n int) SealerOption {
	return func(o *sealerOptions) {
		if n > 1 && n&(n-1) == 0 {
			o.n = n
		}
	}
}

// Sealer is a Crypter keyed by a passphrase. Safe for concurrent use.
type Sealer struct {
	key []byte
}

var _ Crypter = (*Sealer)(nil)

// NewSealer derives the key for passphrase.
func NewSealer(passphrase string, opts ...SealerOption) (*Sealer, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	o := &sealerOptions{salt: []byte(DefaultSalt), n: scryptN}
	for _, opt := range opts {
		opt(o)
	}
	key, err := scrypt.Key([]byte(passphrase), o.salt, o.n, scryptR, scryptP, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("secret: derive key: %w", err)
	}
	return &Sealer{key: key}, nil
}

// Encrypt seals plaintext. The empty string stays empty.
func (s *Sealer) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", fmt.Errorf("secret: %w", err)
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("secret: nonce: %w", err)
	}
	out := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return Prefix + base64.RawURLEncoding.EncodeToString(out), nil
}

// Decrypt opens a sealed value. The empty string stays empty.
func (s *Sealer) Decrypt(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	body, ok := strings.CutPrefix(sealed, Prefix)
	if !ok {
		return "", ErrNotSealed
	}
	raw, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", fmt.Errorf("secret: %w", err)
	}
	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return "", ErrDecrypt
	}
	nonce, ct := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plain), nil
}

// Plain is a Crypter that stores passwords unchanged.
type Plain struct{}

var _ Crypter = Plain{}

// Encrypt returns plaintext.
func (Plain) Encrypt(plaintext string) (string, error) { return plaintext, nil }

// Decrypt returns sealed.
func (Plain) Decrypt(sealed string) (string, error) { return sealed, nil }
