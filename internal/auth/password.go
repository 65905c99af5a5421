package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// argon2id parameters. Changing them does not invalidate stored hashes:
// each hash records the parameters it was created with.
const (
	argonMemory      = 64 * 1024
	argonIterations  = 3
	argonParallelism = 4
	argonSaltLength  = 16
	argonKeyLength   = 32

	// Caps hashing cost for absurd inputs.
	maxPasswordLength = 1024
)

var (
	errEmptyPassword   = errors.New("password cannot be empty")
	errPasswordTooLong = errors.New("password exceeds maximum length")
	errMalformedHash   = errors.New("malformed password hash")
	errUnsupportedHash = errors.New("unsupported password hash")
)

type argonParams struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
}

// HashPassword returns an encoded argon2id hash of password in the
// PHC string format: $argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errEmptyPassword
	}
	if len(password) > maxPasswordLength {
		return "", errPasswordTooLong
	}

	salt := make([]byte, argonSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, argonIterations, argonMemory, argonParallelism, argonKeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonIterations, argonParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword reports whether password matches encodedHash.
// A malformed hash is reported as a mismatch, not an error.
func VerifyPassword(encodedHash, password string) bool {
	if len(password) > maxPasswordLength {
		return false
	}

	params, salt, want, err := parseHash(encodedHash)
	if err != nil {
		return false
	}

	//nolint:gosec // key length comes from a decoded 32 byte hash
	got := argon2.IDKey([]byte(password), salt, params.iterations, params.memory, params.parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

func parseHash(encoded string) (argonParams, []byte, []byte, error) {
	var p argonParams

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return p, nil, nil, errMalformedHash
	}
	if parts[1] != "argon2id" {
		return p, nil, nil, errUnsupportedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, errUnsupportedHash
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &p.parallelism); err != nil {
		return p, nil, nil, errMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, errMalformedHash
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(hash) == 0 {
		return p, nil, nil, errMalformedHash
	}

	return p, salt, hash, nil
}
