// Package auth handles password hashing, PASETO access tokens and token revocation.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// KeySize is the PASETO v4.local symmetric key size in bytes.
const KeySize = 32

const keyFileName = "auth.key"

// LoadOrGenerateKey returns the token key stored hex-encoded in
// <dataPath>/auth.key, creating the file with a fresh random key on first run.
func LoadOrGenerateKey(dataPath string) ([]byte, error) {
	keyPath := filepath.Join(dataPath, keyFileName)

	raw, err := os.ReadFile(keyPath) //#nosec G304 -- path is derived from the configured data directory
	switch {
	case err == nil:
		key, decodeErr := hex.DecodeString(strings.TrimSpace(string(raw)))
		if decodeErr != nil {
			return nil, fmt.Errorf("invalid auth key format: %w", decodeErr)
		}
		if len(key) != KeySize {
			return nil, fmt.Errorf("invalid auth key length: expected %d bytes, got %d", KeySize, len(key))
		}
		return key, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("read auth key: %w", err)
	}

	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate auth key: %w", err)
	}

	if err := os.MkdirAll(dataPath, 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(hex.EncodeToString(key)), 0o600); err != nil {
		return nil, fmt.Errorf("save auth key: %w", err)
	}

	return key, nil
}
