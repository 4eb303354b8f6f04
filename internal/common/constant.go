// Package common contains shared constants and helpers used across
// the hbd client components.
package common

// AuthorizationHeaderName carries the bearer token in the token auth scheme.
const AuthorizationHeaderName = "Authorization"

// RequestIDHeaderName carries a per-request identifier for log correlation
// between the client and the backend.
const RequestIDHeaderName = "X-Request-ID"

// EncryptionKeySize is the number of random bytes behind a client-generated
// encryption key. Hex encoded, the key is 2*EncryptionKeySize characters long.
const EncryptionKeySize = 32
