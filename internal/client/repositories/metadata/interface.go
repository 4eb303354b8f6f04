// Package metadata stores small named values in the local database: the
// session credential and the cached profile.
package metadata

import (
	"context"
)

// Repository is a byte-valued key/value store.
//
// Get returns (nil, nil) for a missing key. Delete ignores missing keys.
// SetMany writes all values or none.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetMany(ctx context.Context, values map[string][]byte) error
	Delete(ctx context.Context, keys ...string) error
}
