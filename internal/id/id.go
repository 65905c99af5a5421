// Package id generates prefixed string identifiers.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// PrefixUser is prepended to user IDs.
const PrefixUser = "usr"

// Generate creates a prefixed NanoID, e.g. "usr-V1StGXR8_Z5jdHi6B-myT".
// It fails only when the system cannot supply secure randomness.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics on failure.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
