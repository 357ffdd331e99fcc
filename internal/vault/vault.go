// Package vault seals and unseals opaque byte blobs for the history store,
// deriving its symmetric key either from a random key file or from a user
// password via Argon2id.
package vault

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// ErrAuthenticationFailed is returned when a sealed blob fails to verify.
var ErrAuthenticationFailed = errors.New("vault: authentication failed")

const (
	keySize  = chacha20poly1305.KeySize // 32
	nonceLen = chacha20poly1305.NonceSizeX // 24, XChaCha20-Poly1305

	saltLen = 16

	argon2Time    = 3
	argon2MemKiB  = 64 * 1024
	argon2Threads = 4
)

// Dir returns $HOME/.config/zish, creating it if necessary.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".config", "zish")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

func keyPath(dir string) string          { return filepath.Join(dir, "key") }
func saltPath(dir string) string         { return filepath.Join(dir, "salt") }
func passwordModePath(dir string) string { return filepath.Join(dir, "password_mode") }

// Vault holds the live 32-byte symmetric key.
type Vault struct {
	key [keySize]byte
}

// PasswordModeEnabled reports whether the marker file exists.
func PasswordModeEnabled(dir string) bool {
	_, err := os.Stat(passwordModePath(dir))
	return err == nil
}

// EnablePasswordMode writes the marker file.
func EnablePasswordMode(dir string) error {
	return os.WriteFile(passwordModePath(dir), []byte("1"), 0o600)
}

// DisablePasswordMode removes the marker file.
func DisablePasswordMode(dir string) error {
	err := os.Remove(passwordModePath(dir))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// LoadOrCreateKey loads the key file if present, otherwise generates and
// persists a fresh random key.
func LoadOrCreateKey(dir string) (*Vault, error) {
	p := keyPath(dir)
	data, err := os.ReadFile(p)
	if err == nil && len(data) == keySize {
		v := &Vault{}
		copy(v.key[:], data)
		return v, nil
	}

	v := &Vault{}
	if _, err := io.ReadFull(rand.Reader, v.key[:]); err != nil {
		return nil, fmt.Errorf("vault: generate key: %w", err)
	}
	if err := os.WriteFile(p, v.key[:], 0o600); err != nil {
		return nil, fmt.Errorf("vault: persist key: %w", err)
	}
	return v, nil
}

// loadOrCreateSalt returns the persistent 16-byte Argon2 salt, generating
// and storing it on first use.
func loadOrCreateSalt(dir string) ([]byte, error) {
	p := saltPath(dir)
	data, err := os.ReadFile(p)
	if err == nil && len(data) == saltLen {
		return data, nil
	}

	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("vault: generate salt: %w", err)
	}
	if err := os.WriteFile(p, salt, 0o600); err != nil {
		return nil, fmt.Errorf("vault: persist salt: %w", err)
	}
	return salt, nil
}

// DeriveFromPassword runs Argon2id over pw with the persistent salt stored
// in dir, returning a Vault holding the derived 32-byte key.
func DeriveFromPassword(dir string, pw []byte) (*Vault, error) {
	salt, err := loadOrCreateSalt(dir)
	if err != nil {
		return nil, err
	}
	v := &Vault{}
	derived := argon2.IDKey(pw, salt, argon2Time, argon2MemKiB, argon2Threads, keySize)
	copy(v.key[:], derived)
	return v, nil
}

// Seal encrypts plaintext under (key, fresh nonce, aad) and returns
// nonce‖ct‖tag.
func (v *Vault) Seal(plaintext, aad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(v.key[:])
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("vault: nonce: %w", err)
	}
	ct := aead.Seal(nil, nonce, plaintext, aad)
	return append(nonce, ct...), nil
}

// Open splits blob into nonce‖ct‖tag and verifies+decrypts it against aad.
func (v *Vault) Open(blob, aad []byte) ([]byte, error) {
	if len(blob) < nonceLen {
		return nil, ErrAuthenticationFailed
	}
	aead, err := chacha20poly1305.NewX(v.key[:])
	if err != nil {
		return nil, err
	}
	nonce, ct := blob[:nonceLen], blob[nonceLen:]
	pt, err := aead.Open(nil, nonce, ct, aad)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return pt, nil
}

// Close zeroes the key bytes before the Vault is released.
func (v *Vault) Close() {
	for i := range v.key {
		v.key[i] = 0
	}
}

// RenameAside moves path to path_corrupted_<ts> style naming used when a
// log is reset; the caller supplies the destination.
func RenameAside(path, dest string) error {
	return os.Rename(path, dest)
}
