// Package notify implements background job rechecks: new-posting detection
// against a persisted last-check boundary, user notification preferences,
// the hourly recheck scheduler and outbound notification emission.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/DanielDev87/app-empleos/internal/jsearch"
	"github.com/DanielDev87/app-empleos/internal/model"
	"github.com/DanielDev87/app-empleos/internal/store"
)

const lastCheckKeyPrefix = "lastJobCheckTime:"

// Searcher is the slice of the jsearch client the detector needs.
type Searcher interface {
	Search(ctx context.Context, query string, page int, filters map[string]string) (*jsearch.SearchResult, error)
}

// Detector computes which postings in a fresh page-1 snapshot are newer
// than the stored last-check boundary. Detection is snapshot-based: a
// listing that never appears in the page-1 snapshot is never flagged.
type Detector struct {
	client Searcher
	kv     store.KV
	now    func() time.Time
}

// NewDetector returns a Detector persisting last-check boundaries in kv,
// keyed per user.
func NewDetector(client Searcher, kv store.KV) *Detector {
	return &Detector{client: client, kv: kv, now: time.Now}
}

func lastCheckKey(userID string) string {
	return lastCheckKeyPrefix + userID
}

// DetectNew fetches page 1 for query/filters and returns the listings
// posted strictly after the user's last-check boundary, in response order.
// On the first ever run the boundary defaults to the epoch, so every
// fetched listing counts as new. After a successful evaluation the
// boundary advances to this call's start time whether or not anything new
// was found.
//
// DetectNew never fails outward: it runs on an unattended schedule, so
// fetch and storage errors alike are logged and surfaced as an empty
// result. Only a genuinely absent boundary (first run) triggers the
// epoch-zero bootstrap; a failing read must not, or a transient storage
// outage would re-report the whole snapshot as new.
func (d *Detector) DetectNew(ctx context.Context, userID, query string, filters map[string]string) []model.JobListing {
	start := d.now()

	res, err := d.client.Search(ctx, query, 1, filters)
	if err != nil {
		slog.Warn("job recheck fetch failed", "user", userID, "query", query, "err", err)
		return nil
	}

	lastCheck := time.Unix(0, 0)
	raw, err := d.kv.Get(ctx, lastCheckKey(userID))
	switch {
	case errors.Is(err, store.ErrNotFound):
		// First run: every listing in the snapshot counts as new.
	case err != nil:
		slog.Warn("read last-check time failed", "user", userID, "err", err)
		return nil
	default:
		if t, perr := time.Parse(time.RFC3339Nano, raw); perr == nil {
			lastCheck = t
		}
	}

	var fresh []model.JobListing
	for _, job := range res.Listings {
		if job.PostedAt().After(lastCheck) {
			fresh = append(fresh, job)
		}
	}

	// If the boundary cannot advance, report nothing: emitting now would
	// repeat the same listings on the next cycle.
	if err := d.kv.Set(ctx, lastCheckKey(userID), start.UTC().Format(time.RFC3339Nano)); err != nil {
		slog.Warn("persist last-check time failed", "user", userID, "err", err)
		return nil
	}

	return fresh
}
