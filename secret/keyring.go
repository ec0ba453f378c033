package secret

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

// Keyring defaults.
const (
	DefaultService = "groupware"
	PassphraseKey  = "account-passphrase"
)

// KeyringConfig selects the system keyring holding the passphrase.
type KeyringConfig struct {
	Service string
	// FileDir and FilePassword configure the encrypted file backend used
	// where no OS keyring exists.
	FileDir      string
	FilePassword string
}

// OpenKeyring opens the system keyring, falling back to an encrypted file.
func OpenKeyring(cfg KeyringConfig) (keyring.Keyring, error) {
	if cfg.Service == "" {
		cfg.Service = DefaultService
	}
	if cfg.FileDir == "" {
		cfg.FileDir = "~/.config/groupware/keyring"
	}
	ring, err := keyring.Open(keyring.Config{
		ServiceName: cfg.Service,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  cfg.FileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt(cfg.FilePassword),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("secret: open keyring: %w", err)
	}
	return ring, nil
}

// Passphrase returns the passphrase stored under PassphraseKey. When none
// exists a random one is generated and stored.
func Passphrase(ring keyring.Keyring) (string, error) {
	item, err := ring.Get(PassphraseKey)
	if err == nil && len(item.Data) > 0 {
		return string(item.Data), nil
	}
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("secret: get passphrase: %w", err)
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("secret: generate passphrase: %w", err)
	}
	pass := base64.RawStdEncoding.EncodeToString(buf)
	if err := ring.Set(keyring.Item{
		Key:         PassphraseKey,
		Data:        []byte(pass),
		Label:       "groupware account passwords",
		Description: "passphrase sealing stored mail account passwords",
	}); err != nil {
		return "", fmt.Errorf("secret: store passphrase: %w", err)
	}
	return pass, nil
}

// FromKeyring returns a Sealer keyed by the keyring passphrase.
func FromKeyring(ring keyring.Keyring, opts ...SealerOption) (*Sealer, error) {
	pass, err := Passphrase(ring)
	if err != nil {
		return nil, err
	}
	return NewSealer(pass, opts...)
}
