package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DanielDev87/app-empleos/internal/jsearch"
	"github.com/DanielDev87/app-empleos/internal/model"
	"github.com/DanielDev87/app-empleos/internal/store"
)

// fakeSearcher returns a fixed page-1 result (or error) and records calls.
type fakeSearcher struct {
	result  *jsearch.SearchResult
	err     error
	calls   int
	queries []string
	filters []map[string]string
}

func (f *fakeSearcher) Search(ctx context.Context, query string, page int, filters map[string]string) (*jsearch.SearchResult, error) {
	f.calls++
	f.queries = append(f.queries, query)
	f.filters = append(f.filters, filters)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func jobAt(id string, postedAt time.Time) model.JobListing {
	return model.JobListing{ID: id, Title: "Developer", Employer: "ACME", PostedAtTimestamp: postedAt.Unix()}
}

func storedLastCheck(t *testing.T, kv store.KV, userID string) time.Time {
	t.Helper()
	raw, err := kv.Get(context.Background(), lastCheckKey(userID))
	if err != nil {
		t.Fatalf("last-check key not stored: %v", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		t.Fatalf("stored last-check time is not RFC3339: %q", raw)
	}
	return ts
}

// ── Scenario: boundary filtering ─────────────────────────────────────────────

func TestDetectNew_ReturnsOnlyNewerThanBoundary(t *testing.T) {
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	f := &fakeSearcher{result: &jsearch.SearchResult{Listings: []model.JobListing{
		jobAt("old", t0.Add(-10*time.Second)),
		jobAt("new-1", t0.Add(5*time.Second)),
		jobAt("new-2", t0.Add(20*time.Second)),
	}}}
	kv := store.NewMemoryKV()
	now := t0.Add(time.Minute)

	d := NewDetector(f, kv)
	d.now = func() time.Time { return now }

	if err := kv.Set(context.Background(), lastCheckKey("u1"), t0.Format(time.RFC3339Nano)); err != nil {
		t.Fatal(err)
	}

	fresh := d.DetectNew(context.Background(), "u1", "developer", nil)

	if len(fresh) != 2 {
		t.Fatalf("got %d new jobs, want 2", len(fresh))
	}
	if fresh[0].ID != "new-1" || fresh[1].ID != "new-2" {
		t.Errorf("new jobs not in original response order: %v, %v", fresh[0].ID, fresh[1].ID)
	}
	if got := storedLastCheck(t, kv, "u1"); !got.Equal(now) {
		t.Errorf("boundary advanced to %v, want evaluation start %v", got, now)
	}
}

// ── First run: epoch-zero bootstrap ──────────────────────────────────────────

func TestDetectNew_FirstRunReturnsEverything(t *testing.T) {
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	f := &fakeSearcher{result: &jsearch.SearchResult{Listings: []model.JobListing{
		jobAt("a", t0), jobAt("b", t0.Add(time.Hour)),
	}}}
	kv := store.NewMemoryKV()

	d := NewDetector(f, kv)
	fresh := d.DetectNew(context.Background(), "u1", "developer", nil)

	if len(fresh) != 2 {
		t.Errorf("first run returned %d jobs, want all 2", len(fresh))
	}
}

// ── Boundary is monotonically non-decreasing ─────────────────────────────────

func TestDetectNew_BoundaryAdvancesEvenWithoutNewJobs(t *testing.T) {
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	f := &fakeSearcher{result: &jsearch.SearchResult{Listings: []model.JobListing{
		jobAt("stale", t0.Add(-time.Hour)),
	}}}
	kv := store.NewMemoryKV()

	d := NewDetector(f, kv)

	first := t0
	d.now = func() time.Time { return first }
	d.DetectNew(context.Background(), "u1", "developer", nil)

	second := t0.Add(time.Hour)
	d.now = func() time.Time { return second }
	fresh := d.DetectNew(context.Background(), "u1", "developer", nil)

	if len(fresh) != 0 {
		t.Errorf("got %d new jobs, want 0", len(fresh))
	}
	if got := storedLastCheck(t, kv, "u1"); !got.Equal(second) {
		t.Errorf("boundary = %v, want %v", got, second)
	}
}

// ── Unattended failure mode ───────────────────────────────────────────────────

func TestDetectNew_FetchErrorIsSwallowed(t *testing.T) {
	f := &fakeSearcher{err: errors.New("dial tcp: connection refused")}
	kv := store.NewMemoryKV()

	d := NewDetector(f, kv)
	fresh := d.DetectNew(context.Background(), "u1", "developer", nil)

	if fresh != nil {
		t.Errorf("got %v, want nil on fetch failure", fresh)
	}
	if _, err := kv.Get(context.Background(), lastCheckKey("u1")); !errors.Is(err, store.ErrNotFound) {
		t.Error("boundary must not advance when the fetch fails")
	}
}

// failingKV wraps an in-memory store and fails selected operations, the way
// a Redis outage would.
type failingKV struct {
	store.KV
	getErr error
	setErr error
}

func (f *failingKV) Get(ctx context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	return f.KV.Get(ctx, key)
}

func (f *failingKV) Set(ctx context.Context, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.KV.Set(ctx, key, value)
}

func TestDetectNew_StorageReadErrorIsSwallowed(t *testing.T) {
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	f := &fakeSearcher{result: &jsearch.SearchResult{Listings: []model.JobListing{
		jobAt("seen-1", t0.Add(-48*time.Hour)),
		jobAt("seen-2", t0.Add(-24*time.Hour)),
	}}}
	inner := store.NewMemoryKV()
	if err := inner.Set(context.Background(), lastCheckKey("u1"), t0.Format(time.RFC3339Nano)); err != nil {
		t.Fatal(err)
	}
	kv := &failingKV{KV: inner, getErr: errors.New("redis GET: i/o timeout")}

	d := NewDetector(f, kv)
	d.now = func() time.Time { return t0.Add(time.Hour) }

	// A failing boundary read must not degrade to the epoch bootstrap:
	// that would re-report every listing in the snapshot as new.
	if fresh := d.DetectNew(context.Background(), "u1", "developer", nil); fresh != nil {
		t.Errorf("got %d jobs on a storage read failure, want none", len(fresh))
	}

	// The stored boundary is untouched.
	if got := storedLastCheck(t, inner, "u1"); !got.Equal(t0) {
		t.Errorf("boundary = %v, want unchanged %v", got, t0)
	}
}

func TestDetectNew_StorageWriteErrorIsSwallowed(t *testing.T) {
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	f := &fakeSearcher{result: &jsearch.SearchResult{Listings: []model.JobListing{
		jobAt("j1", t0),
	}}}
	kv := &failingKV{KV: store.NewMemoryKV(), setErr: errors.New("redis SET: i/o timeout")}

	d := NewDetector(f, kv)
	d.now = func() time.Time { return t0.Add(time.Hour) }

	// When the boundary cannot advance, nothing is reported — the same
	// listings would otherwise be emitted again on the next cycle.
	if fresh := d.DetectNew(context.Background(), "u1", "developer", nil); fresh != nil {
		t.Errorf("got %d jobs on a storage write failure, want none", len(fresh))
	}
}

// ── Per-user boundary scoping ─────────────────────────────────────────────────

func TestDetectNew_BoundaryIsScopedPerUser(t *testing.T) {
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	f := &fakeSearcher{result: &jsearch.SearchResult{Listings: []model.JobListing{
		jobAt("j1", t0),
	}}}
	kv := store.NewMemoryKV()

	d := NewDetector(f, kv)
	d.now = func() time.Time { return t0.Add(time.Hour) }

	if got := d.DetectNew(context.Background(), "alice", "developer", nil); len(got) != 1 {
		t.Fatalf("alice first run returned %d jobs, want 1", len(got))
	}
	// A different user's first run still sees everything.
	if got := d.DetectNew(context.Background(), "bob", "developer", nil); len(got) != 1 {
		t.Errorf("bob first run returned %d jobs, want 1", len(got))
	}
	// Alice's second run is filtered by her own boundary.
	if got := d.DetectNew(context.Background(), "alice", "developer", nil); len(got) != 0 {
		t.Errorf("alice second run returned %d jobs, want 0", len(got))
	}
}
