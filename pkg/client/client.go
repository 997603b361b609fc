// Package client is a typed HTTP client for the Sowilo content API with
// request deduplication and a time-based response cache.
//
// Concurrent calls for the same resource share one in-flight request
// (single-flight); settled flights are always evicted from the pending
// set, success or failure. Successful responses are cached for a
// configurable TTL. Errors are returned as values, never cached.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/starford/sowilo/internal/models"
)

// DefaultTTL is how long a successful response stays cached unless
// overridden with WithTTL.
const DefaultTTL = 5 * time.Minute

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
}

// Client fetches content data from a Sowilo server.
type Client struct {
	base  string
	http  *http.Client
	ttl   time.Duration
	token string

	group singleflight.Group
	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	data    []byte
	fetched time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithTTL overrides the response cache TTL. Zero disables caching.
func WithTTL(ttl time.Duration) Option {
	return func(c *Client) { c.ttl = ttl }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithToken sets a Bearer token for servers running with auth enabled.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a Client for the given base URL (e.g. "http://localhost:8080").
func New(base string, opts ...Option) *Client {
	c := &Client{
		base:  base,
		http:  &http.Client{Timeout: 30 * time.Second},
		ttl:   DefaultTTL,
		cache: make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchOption modifies a single fetch.
type FetchOption func(*fetchOpts)

type fetchOpts struct {
	refresh bool
	limit   int
}

// WithRefresh bypasses the cache unconditionally and repopulates it with
// the fresh response.
func WithRefresh() FetchOption {
	return func(o *fetchOpts) { o.refresh = true }
}

// WithLimit caps the number of results for endpoints that accept one.
func WithLimit(n int) FetchOption {
	return func(o *fetchOpts) { o.limit = n }
}

// get fetches path, deduplicating concurrent identical calls and serving
// from the TTL cache when allowed. The cache key is the full request
// path including query, so different filters never share an entry.
func (c *Client) get(ctx context.Context, path string, refresh bool) ([]byte, error) {
	if !refresh && c.ttl > 0 {
		c.mu.Lock()
		entry, ok := c.cache[path]
		c.mu.Unlock()
		if ok && time.Since(entry.fetched) < c.ttl {
			return entry.data, nil
		}
	}

	// singleflight drops the key once Do returns, so settled flights
	// never linger in the pending map.
	v, err, _ := c.group.Do(path, func() (any, error) {
		data, err := c.fetch(ctx, path)
		if err != nil {
			return nil, err
		}
		if c.ttl > 0 {
			c.mu.Lock()
			c.cache[path] = cacheEntry{data: data, fetched: time.Now()}
			c.mu.Unlock()
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *Client) fetch(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(body, &envelope)
		if envelope.Error == "" {
			envelope.Error = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{Status: resp.StatusCode, Message: envelope.Error}
	}
	return body, nil
}

func decodeData[T any](body []byte) (T, error) {
	var envelope struct {
		Data T `json:"data"`
	}
	err := json.Unmarshal(body, &envelope)
	return envelope.Data, err
}

func (c *Client) getData(ctx context.Context, path string, opts []FetchOption) ([]byte, error) {
	var o fetchOpts
	for _, opt := range opts {
		opt(&o)
	}
	if o.limit > 0 {
		sep := "?"
		if u, err := url.Parse(path); err == nil && u.RawQuery != "" {
			sep = "&"
		}
		path += sep + "limit=" + strconv.Itoa(o.limit)
	}
	return c.get(ctx, path, o.refresh)
}

// Posts returns the published records of a source, newest first.
func (c *Client) Posts(ctx context.Context, source string, opts ...FetchOption) ([]models.ContentRecord, error) {
	body, err := c.getData(ctx, "/api/"+url.PathEscape(source)+"/posts", opts)
	if err != nil {
		return nil, err
	}
	return decodeData[[]models.ContentRecord](body)
}

// Post returns one record by slug, including unpublished ones.
func (c *Client) Post(ctx context.Context, source, slug string, opts ...FetchOption) (models.ContentRecord, error) {
	body, err := c.getData(ctx, "/api/"+url.PathEscape(source)+"/posts/"+slug, opts)
	if err != nil {
		return models.ContentRecord{}, err
	}
	return decodeData[models.ContentRecord](body)
}

// Categories returns the category aggregation of a source.
func (c *Client) Categories(ctx context.Context, source string, opts ...FetchOption) ([]models.Category, error) {
	body, err := c.getData(ctx, "/api/"+url.PathEscape(source)+"/categories", opts)
	if err != nil {
		return nil, err
	}
	return decodeData[[]models.Category](body)
}

// CategoryItems returns the records of one category, newest first.
func (c *Client) CategoryItems(ctx context.Context, source, id string, opts ...FetchOption) ([]models.ContentRecord, error) {
	body, err := c.getData(ctx, "/api/"+url.PathEscape(source)+"/categories/"+url.PathEscape(id), opts)
	if err != nil {
		return nil, err
	}
	return decodeData[[]models.ContentRecord](body)
}

// TagCounts returns tag frequencies for a source.
func (c *Client) TagCounts(ctx context.Context, source string, opts ...FetchOption) (map[string]int, error) {
	body, err := c.getData(ctx, "/api/"+url.PathEscape(source)+"/tags/count", opts)
	if err != nil {
		return nil, err
	}
	return decodeData[map[string]int](body)
}

// Timeline returns year-bucketed records for a source.
func (c *Client) Timeline(ctx context.Context, source string, opts ...FetchOption) (map[string][]models.ContentRecord, error) {
	body, err := c.getData(ctx, "/api/"+url.PathEscape(source)+"/timeline", opts)
	if err != nil {
		return nil, err
	}
	return decodeData[map[string][]models.ContentRecord](body)
}

// Related returns records related to the one at slug.
func (c *Client) Related(ctx context.Context, source, slug string, opts ...FetchOption) ([]models.RelatedPost, error) {
	body, err := c.getData(ctx, "/api/"+url.PathEscape(source)+"/related/"+slug, opts)
	if err != nil {
		return nil, err
	}
	return decodeData[[]models.RelatedPost](body)
}

// Search runs a substring search over a source.
func (c *Client) Search(ctx context.Context, source, query string, opts ...FetchOption) ([]models.SearchHit, error) {
	path := "/api/search/" + url.PathEscape(source) + "?query=" + url.QueryEscape(query)
	body, err := c.getData(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	return decodeData[[]models.SearchHit](body)
}

// InvalidateAll drops every cached response.
func (c *Client) InvalidateAll() {
	c.mu.Lock()
	c.cache = make(map[string]cacheEntry)
	c.mu.Unlock()
}
