// Package persist writes the whitelisted part of the storefront state to a
// key-value backend and reads it back on startup.
package persist

import (
	"context"
	"errors"
)

var (
	ErrKeyNotFound    = errors.New("key not found")
	ErrCorrupt        = errors.New("persisted state is corrupt")
	ErrSchemaMismatch = errors.New("persisted state has an unsupported schema version")
)

// KV is the durable storage behind the adapter. Get returns ErrKeyNotFound
// when the key is absent; Delete of an absent key is not an error.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
