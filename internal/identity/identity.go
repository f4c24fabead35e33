// Package identity derives the content validator used as an HTTP entity tag.
//
// A validator is the lowercase hex SHA-256 of the exact bytes, wrapped in
// double quotes: a strong ETag. Equal bytes always give equal validators.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// Compute returns the validator for data. The empty input is valid.
func Compute(data []byte) string {
	sum := sha256.Sum256(data)
	return quote(sum[:])
}

// FromReader hashes r to EOF and returns the validator together with the
// number of bytes read.
func FromReader(r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, fmt.Errorf("hash content: %w", err)
	}
	return quote(h.Sum(nil)), n, nil
}

// Matches reports whether a client supplied If-None-Match value names
// validator. Only the exact quoted form matches; weak tags, lists and "*"
// do not.
func Matches(ifNoneMatch, validator string) bool {
	return ifNoneMatch != "" && ifNoneMatch == validator
}

func quote(sum []byte) string {
	return `"` + hex.EncodeToString(sum) + `"`
}
