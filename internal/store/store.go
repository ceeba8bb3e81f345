// Package store defines the key/value store used for all per-installation
// and per-user persisted state (preferences, last-check timestamps,
// notification inbox, saved job lists, resume cache mirror).
//
// Components receive a KV by injection so tests can substitute the
// in-memory implementation.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("store: key not found")

// KV is a minimal string key/value store.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
