// Package common contains shared constants and sentinel errors used across
// the asset origin components.
package common

// RequestIDHeader carries the per-request correlation id on HTTP requests
// and responses.
const RequestIDHeader = "X-Request-Id"

// MaxTokenBytes is the amount of randomness in a bearer access token.
// The token travels hex encoded, so its textual form is twice as long.
const MaxTokenBytes = 32
