// Package search holds merged, paged search results for one active query.
//
// State machine:
//
//	IDLE ──► LOADING ──► LOADED
//	              │          │
//	              └──► ERROR ┘  (retry / new search re-enters LOADING)
//
// At most one request is in flight per Accumulator: LoadMore is a no-op
// while a request is loading or when the last page was empty.
package search

import (
	"context"
	"errors"
	"sync"

	"github.com/DanielDev87/app-empleos/internal/jsearch"
	"github.com/DanielDev87/app-empleos/internal/model"
)

// DefaultPageSize is the page length the JSearch API returns. The
// load-more page arithmetic assumes every full page is exactly this long.
const DefaultPageSize = 10

// genericErrMsg is shown when a failure carries no message of its own.
const genericErrMsg = "Error fetching jobs"

// State is the accumulator lifecycle state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateError
)

// Searcher is the slice of the jsearch client the accumulator needs.
type Searcher interface {
	Search(ctx context.Context, query string, page int, filters map[string]string) (*jsearch.SearchResult, error)
}

// Accumulator maintains query/page/filter state for one active search and
// merges incoming pages.
type Accumulator struct {
	client   Searcher
	pageSize int

	mu       sync.Mutex
	query    string
	filters  map[string]string
	jobs     []model.JobListing
	total    int
	hasMore  bool
	state    State
	errMsg   string
}

// NewAccumulator returns an idle accumulator. pageSize <= 0 selects
// DefaultPageSize.
func NewAccumulator(client Searcher, pageSize int) *Accumulator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Accumulator{client: client, pageSize: pageSize}
}

// Search starts a fresh search: prior results are discarded and page 1 is
// fetched. No-op while another request is in flight.
func (a *Accumulator) Search(ctx context.Context, query string, filters map[string]string) error {
	a.mu.Lock()
	if a.state == StateLoading {
		a.mu.Unlock()
		return nil
	}
	a.query = query
	a.filters = filters
	a.mu.Unlock()

	return a.fetch(ctx, 1)
}

// LoadMore fetches the next page for the current query and appends it.
// No-op while loading or when the previous page came back empty.
// Next page number = ceil(accumulated/pageSize) + 1, which assumes every
// remote page before the last is exactly pageSize long.
func (a *Accumulator) LoadMore(ctx context.Context) error {
	a.mu.Lock()
	if a.state == StateLoading || !a.hasMore {
		a.mu.Unlock()
		return nil
	}
	page := (len(a.jobs)+a.pageSize-1)/a.pageSize + 1
	a.mu.Unlock()

	return a.fetch(ctx, page)
}

// Retry re-runs page 1 of the current query after an error.
func (a *Accumulator) Retry(ctx context.Context) error {
	a.mu.Lock()
	if a.state == StateLoading {
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()

	return a.fetch(ctx, 1)
}

func (a *Accumulator) fetch(ctx context.Context, page int) error {
	a.mu.Lock()
	a.state = StateLoading
	a.errMsg = ""
	query, filters := a.query, a.filters
	a.mu.Unlock()

	res, err := a.client.Search(ctx, query, page, filters)

	a.mu.Lock()
	defer a.mu.Unlock()

	if err != nil {
		a.state = StateError
		a.jobs = nil
		a.hasMore = false
		a.errMsg = errorMessage(err)
		return err
	}

	if page == 1 {
		a.jobs = res.Listings
	} else {
		a.jobs = append(a.jobs, res.Listings...)
	}
	a.total = res.TotalCount
	a.hasMore = len(res.Listings) > 0
	a.state = StateLoaded
	return nil
}

func errorMessage(err error) string {
	var remote *jsearch.RemoteError
	if errors.As(err, &remote) && remote.Message != "" {
		return remote.Message
	}
	if err == nil || err.Error() == "" {
		return genericErrMsg
	}
	return err.Error()
}

// Jobs returns a copy of the accumulated listings in page arrival order.
func (a *Accumulator) Jobs() []model.JobListing {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]model.JobListing, len(a.jobs))
	copy(out, a.jobs)
	return out
}

// State returns the current lifecycle state.
func (a *Accumulator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Loading reports whether a request is in flight.
func (a *Accumulator) Loading() bool {
	return a.State() == StateLoading
}

// HasMore reports whether the last fetched page was non-empty.
func (a *Accumulator) HasMore() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hasMore
}

// TotalJobs returns the remote-reported total for the current query.
func (a *Accumulator) TotalJobs() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.total
}

// ErrMessage returns the stored error message, empty outside StateError.
func (a *Accumulator) ErrMessage() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.errMsg
}

// Query returns the active query text.
func (a *Accumulator) Query() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.query
}
