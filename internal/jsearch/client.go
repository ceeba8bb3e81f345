// Package jsearch implements the client for the JSearch job-listings API
// (RapidAPI). One outbound request per call, no built-in retry.
package jsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/DanielDev87/app-empleos/internal/model"
)

const (
	defaultBaseURL = "https://jsearch.p.rapidapi.com"
	httpTimeout    = 15 * time.Second
)

// ErrEmptyQuery is returned when the search query is empty or whitespace.
// Validated before any network call.
var ErrEmptyQuery = errors.New("jsearch: search query must not be empty")

// RemoteError is a semantic failure reported by the API: a non-2xx status
// or a 2xx body with a missing/malformed data field. Message carries the
// remote-provided message when present.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("jsearch: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("jsearch: error fetching jobs (status %d)", e.StatusCode)
}

// SearchResult is one normalised page of listings.
type SearchResult struct {
	Listings   []model.JobListing
	TotalCount int
}

// Client issues paged, filtered queries against the JSearch API.
type Client struct {
	apiKey  string
	apiHost string
	baseURL string
	client  *http.Client
}

// NewClient constructs a Client with a shared HTTP client.
func NewClient(apiKey, apiHost string) *Client {
	return &Client{
		apiKey:  apiKey,
		apiHost: apiHost,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

// WithBaseURL overrides the API endpoint. Used in tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = strings.TrimRight(base, "/")
	return c
}

// searchResponse mirrors the top-level JSearch JSON response.
type searchResponse struct {
	Data    []model.JobListing `json:"data"`
	Total   int                `json:"total"`
	Message string             `json:"message"`
}

// Search fetches one page of listings for the given query and filters.
// Filter values are passed through verbatim as query parameters. The
// returned listing order matches the remote page. TotalCount is the
// remote-reported total and may be stale.
func (c *Client) Search(ctx context.Context, query string, page int, filters map[string]string) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	for k, v := range filters {
		params.Set(k, v)
	}
	// Reserved parameters win over caller-supplied filter keys.
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("num_pages", "1")

	reqURL := c.baseURL + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.apiHost)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var apiResp searchResponse
	// A decode failure leaves apiResp.Data nil, which is reported below as
	// a RemoteError rather than masking the status code.
	_ = json.Unmarshal(body, &apiResp)

	if resp.StatusCode != http.StatusOK || apiResp.Data == nil {
		return nil, &RemoteError{StatusCode: resp.StatusCode, Message: apiResp.Message}
	}

	return &SearchResult{Listings: apiResp.Data, TotalCount: apiResp.Total}, nil
}
