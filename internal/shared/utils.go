// Package shared provides utility functions for working with
// random strings and secure memory wiping.
package shared

import (
	"crypto/rand"
	"encoding/hex"
)

// MakeRandHexString reads size random bytes from crypto/rand and returns
// them hex encoded, so the result is 2*size characters long.
func MakeRandHexString(size int) (string, error) {
	if size <= 0 {
		return "", nil
	}

	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	defer WipeByteArray(b)

	return hex.EncodeToString(b), nil
}

// WipeByteArray zeroes b in place. Used for signing secrets read from a
// terminal once they are no longer needed. A nil slice is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
