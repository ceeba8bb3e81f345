// Package resume provides the résumé document store and the resilient
// read path that falls back to a local cache mirror when the remote store
// is unreachable.
package resume

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DanielDev87/app-empleos/internal/store"
)

const cacheKeyPrefix = "resumeCache:"

// ErrNotFound is returned when neither the remote store nor the local
// cache holds a record for the user.
var ErrNotFound = errors.New("resume: record not found")

// ErrOffline is returned by writes attempted while the store is offline.
// The cache mirror keeps the pending copy for later reads.
var ErrOffline = errors.New("resume: no connection, changes kept in local cache")

// RemoteStore is a structured-document store with an online/offline toggle
// and cache-aware reads. While offline, Get resolves from the local cache
// mirror the store maintains.
type RemoteStore interface {
	// Get returns the record payload and whether it was served from the
	// local cache rather than a fresh round-trip.
	Get(ctx context.Context, userID string) (json.RawMessage, bool, error)
	Put(ctx context.Context, userID string, data json.RawMessage) error
	SetOnline(ctx context.Context, online bool) error
}

// cachedRecord is the envelope mirrored into the key/value store.
type cachedRecord struct {
	Data      json.RawMessage `json:"data"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// DocStore implements RemoteStore over PostgreSQL with a key/value cache
// mirror. Successful online reads and all writes refresh the mirror, so an
// offline read can serve the last known copy.
type DocStore struct {
	pool  *pgxpool.Pool
	cache store.KV
	now   func() time.Time

	mu     sync.RWMutex
	online bool
}

// NewDocStore returns an online DocStore.
func NewDocStore(pool *pgxpool.Pool, cache store.KV) *DocStore {
	return &DocStore{pool: pool, cache: cache, now: time.Now, online: true}
}

func cacheKey(userID string) string {
	return cacheKeyPrefix + userID
}

// SetOnline toggles forced-offline mode. No network interaction happens
// here; the flag only redirects subsequent reads.
func (s *DocStore) SetOnline(ctx context.Context, online bool) error {
	s.mu.Lock()
	s.online = online
	s.mu.Unlock()
	return nil
}

// Online reports whether the store serves reads from PostgreSQL.
func (s *DocStore) Online() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.online
}

// Get reads the user's résumé record. Online, the row comes from
// PostgreSQL and refreshes the cache mirror; offline, it comes from the
// mirror with fromCache=true.
func (s *DocStore) Get(ctx context.Context, userID string) (json.RawMessage, bool, error) {
	if userID == "" {
		return nil, false, fmt.Errorf("resume: user id is required")
	}

	if !s.Online() {
		return s.getCached(ctx, userID)
	}

	var data json.RawMessage
	var updatedAt time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT data, updated_at FROM resumes WHERE user_id = $1`,
		userID,
	).Scan(&data, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, ErrNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("resume query: %w", err)
	}

	s.mirror(ctx, userID, data, updatedAt)
	return data, false, nil
}

// Put upserts the record. The cache mirror is written first so a
// subsequent offline read sees the newest copy even if the remote write
// fails; an offline store reports ErrOffline after mirroring.
func (s *DocStore) Put(ctx context.Context, userID string, data json.RawMessage) error {
	if userID == "" {
		return fmt.Errorf("resume: user id is required")
	}

	now := s.now().UTC()
	s.mirror(ctx, userID, data, now)

	if !s.Online() {
		return ErrOffline
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO resumes (user_id, data, created_at, updated_at)
		 VALUES ($1, $2::jsonb, $3, $3)
		 ON CONFLICT (user_id)
		 DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		userID, string(data), now,
	)
	if err != nil {
		return fmt.Errorf("resume upsert: %w", err)
	}
	return nil
}

func (s *DocStore) getCached(ctx context.Context, userID string) (json.RawMessage, bool, error) {
	raw, err := s.cache.Get(ctx, cacheKey(userID))
	if errors.Is(err, store.ErrNotFound) {
		return nil, true, ErrNotFound
	}
	if err != nil {
		return nil, true, fmt.Errorf("resume cache read: %w", err)
	}
	var rec cachedRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, true, fmt.Errorf("resume cache decode: %w", err)
	}
	return rec.Data, true, nil
}

// mirror refreshes the cache copy. Mirror failures are non-fatal; the
// remote store stays authoritative.
func (s *DocStore) mirror(ctx context.Context, userID string, data json.RawMessage, updatedAt time.Time) {
	raw, err := json.Marshal(cachedRecord{Data: data, UpdatedAt: updatedAt})
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, cacheKey(userID), string(raw))
}
