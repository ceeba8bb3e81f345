package resume

import (
	"context"
	"encoding/json"
	"errors"
)

// Record is the result of a resilient read. FromCache is true when the
// payload did not come from a fresh network round-trip.
type Record struct {
	Data      json.RawMessage `json:"data"`
	FromCache bool            `json:"fromCache"`
}

// Reader wraps a RemoteStore read with an offline-fallback path: on a
// transport-level failure it forces the store offline, retries once (which
// resolves from the store's cache mirror), then restores online mode in a
// background task whose failures surface on Errors.
type Reader struct {
	remote RemoteStore
	errs   chan error
}

// NewReader returns a Reader over remote.
func NewReader(remote RemoteStore) *Reader {
	return &Reader{remote: remote, errs: make(chan error, 8)}
}

// Errors reports failures from background reconnection attempts. The
// channel is buffered; when full, further errors are dropped.
func (r *Reader) Errors() <-chan error {
	return r.errs
}

// Read fetches the user's record, falling back to the cache mirror when
// the remote store is unreachable. It fails with ErrNotFound only when
// both the remote attempt and the cache attempt come back absent.
func (r *Reader) Read(ctx context.Context, userID string) (Record, error) {
	data, fromCache, err := r.remote.Get(ctx, userID)
	if err == nil {
		return Record{Data: data, FromCache: fromCache}, nil
	}
	if errors.Is(err, ErrNotFound) {
		return Record{}, ErrNotFound
	}

	// Transport failure: force offline so the retry resolves from the
	// store's local cache, then restore online mode for later calls.
	if offErr := r.remote.SetOnline(ctx, false); offErr != nil {
		return Record{}, err
	}
	data, _, cacheErr := r.remote.Get(ctx, userID)
	r.reconnect()

	if cacheErr != nil {
		if errors.Is(cacheErr, ErrNotFound) {
			return Record{}, ErrNotFound
		}
		return Record{}, cacheErr
	}
	return Record{Data: data, FromCache: true}, nil
}

// reconnect restores online mode in the background. The read that
// triggered the fallback does not wait on it.
func (r *Reader) reconnect() {
	go func() {
		if err := r.remote.SetOnline(context.Background(), true); err != nil {
			select {
			case r.errs <- err:
			default:
			}
		}
	}()
}
