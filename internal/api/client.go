package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/thesavant42/wpfleet/internal/cache"
	"github.com/thesavant42/wpfleet/internal/models"
)

const (
	// apiNamespace is the WP Bulk Manager plugin's REST namespace,
	// rooted at the site URL
	apiNamespace = "/wp-json/wpbm/v1"

	// defaultTimeout covers single reads and writes; bulk scans issue
	// many of these sequentially rather than one long request
	defaultTimeout = 30 * time.Second

	// defaultPageSize is the per-request item limit for paginated fetches
	defaultPageSize = 100

	userAgent = "wpfleet/1.0"
)

// Client is the sole authenticated gateway to one site's WPBM REST
// namespace. Reads are routed through the cache; any successful mutating
// call invalidates the whole site's cache namespace, since which cached
// reads a write makes stale is not derivable in general.
//
// The client never retries on its own: retrying a non-idempotent write can
// double-apply a change, so retry policy belongs to the caller (see Retry).
type Client struct {
	httpClient *http.Client
	siteURL    string
	apiKey     string
	cache      *cache.Manager
	logger     *log.Logger

	// cacheConfigured distinguishes "no cache option given" (use the
	// default) from "cache explicitly disabled"
	cacheConfigured bool
}

// Option configures a Client
type Option func(*Client)

// WithTimeout overrides the default 30s request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithCacheTTL enables response caching with the given freshness window
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache.NewManager(ttl, c.logger)
		c.cacheConfigured = true
	}
}

// WithCache attaches a shared cache manager, e.g. one partitioned across
// several sites' clients
func WithCache(m *cache.Manager) Option {
	return func(c *Client) {
		c.cache = m
		c.cacheConfigured = true
	}
}

// WithoutCache disables response caching entirely
func WithoutCache() Option {
	return func(c *Client) {
		c.cache = nil
		c.cacheConfigured = true
	}
}

// WithLogger enables structured request logging
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for one site. The site URL is normalized (trailing
// slash stripped) and the API key is sent via the X-API-Key header, never
// as a query parameter, so it cannot leak into server logs or proxies.
func New(siteURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		siteURL: strings.TrimRight(strings.TrimSpace(siteURL), "/"),
		apiKey:  apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	if !c.cacheConfigured {
		c.cache = cache.NewManager(cache.DefaultTTL, c.logger)
	}
	return c
}

// SiteURL returns the normalized site URL
func (c *Client) SiteURL() string {
	return c.siteURL
}

// CacheStats returns cache diagnostics, or zero stats when caching is off
func (c *Client) CacheStats() cache.Stats {
	if c.cache == nil {
		return cache.Stats{}
	}
	return c.cache.Stats()
}

// ClearCache drops this site's cached responses
func (c *Client) ClearCache() {
	if c.cache != nil {
		c.cache.InvalidateSite(c.siteURL)
	}
}

func (c *Client) buildURL(endpoint string, params url.Values) string {
	u := c.siteURL + apiNamespace + "/" + strings.TrimLeft(endpoint, "/")
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// Request performs one HTTP call against the site's REST namespace and
// returns the raw response body. GET requests with useCache are served
// from the cache when a fresh entry exists; no network I/O happens on a
// hit. Successful mutating calls invalidate the site's cache namespace.
func (c *Client) Request(ctx context.Context, method, endpoint string, params url.Values, body any, useCache bool) ([]byte, error) {
	method = strings.ToUpper(method)
	cacheable := method == http.MethodGet && useCache && c.cache != nil

	var cacheKey string
	if cacheable {
		cacheKey = cache.Key(c.siteURL, method, endpoint, params)
		if payload, ok := c.cache.Get(cacheKey); ok {
			if c.logger != nil {
				c.logger.Debug("cache hit", "site", c.siteURL, "endpoint", endpoint)
			}
			return payload, nil
		}
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{
				Kind:     KindValidation,
				Site:     c.siteURL,
				Endpoint: endpoint,
				Err:      fmt.Errorf("failed to encode request body: %w", err),
			}
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(endpoint, params), reqBody)
	if err != nil {
		return nil, &Error{
			Kind:     KindValidation,
			Site:     c.siteURL,
			Endpoint: endpoint,
			Err:      fmt.Errorf("failed to create request: %w", err),
		}
	}

	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.logger != nil {
		c.logger.Debug(method, "site", c.siteURL, "endpoint", endpoint)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts, DNS failures, refused connections: all retryable at
		// the caller's discretion
		return nil, &Error{
			Kind:     KindTransient,
			Site:     c.siteURL,
			Endpoint: endpoint,
			Err:      err,
		}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{
			Kind:       KindTransient,
			Site:       c.siteURL,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to read response: %w", err),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if c.logger != nil {
			c.logger.Error("API error", "site", c.siteURL, "endpoint", endpoint, "status", resp.StatusCode)
		}
		return nil, &Error{
			Kind:       classifyStatus(resp.StatusCode),
			Site:       c.siteURL,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       bodyExcerpt(payload),
		}
	}

	if cacheable {
		c.cache.Set(cacheKey, payload)
	} else if method != http.MethodGet && c.cache != nil {
		c.cache.InvalidateSite(c.siteURL)
	}

	return payload, nil
}

// bodyExcerpt trims an error response body for inclusion in error messages
func bodyExcerpt(body []byte) string {
	const maxExcerpt = 200
	s := strings.TrimSpace(string(body))
	if len(s) > maxExcerpt {
		return s[:maxExcerpt] + "..."
	}
	return s
}

// Get performs a cached GET and decodes the JSON response into out
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values, out any) error {
	return c.get(ctx, endpoint, params, out, true)
}

// GetFresh performs a GET that bypasses the cache, for callers needing
// read-after-write consistency
func (c *Client) GetFresh(ctx context.Context, endpoint string, params url.Values, out any) error {
	return c.get(ctx, endpoint, params, out, false)
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any, useCache bool) error {
	payload, err := c.Request(ctx, http.MethodGet, endpoint, params, nil, useCache)
	if err != nil {
		return err
	}
	return c.decode(endpoint, payload, out)
}

// Post performs a POST and decodes the JSON response into out (may be nil)
func (c *Client) Post(ctx context.Context, endpoint string, body, out any) error {
	payload, err := c.Request(ctx, http.MethodPost, endpoint, nil, body, false)
	if err != nil {
		return err
	}
	return c.decode(endpoint, payload, out)
}

// Put performs a PUT and decodes the JSON response into out (may be nil)
func (c *Client) Put(ctx context.Context, endpoint string, body, out any) error {
	payload, err := c.Request(ctx, http.MethodPut, endpoint, nil, body, false)
	if err != nil {
		return err
	}
	return c.decode(endpoint, payload, out)
}

// Delete performs a DELETE and decodes the JSON response into out (may be nil)
func (c *Client) Delete(ctx context.Context, endpoint string, out any) error {
	payload, err := c.Request(ctx, http.MethodDelete, endpoint, nil, nil, false)
	if err != nil {
		return err
	}
	return c.decode(endpoint, payload, out)
}

func (c *Client) decode(endpoint string, payload []byte, out any) error {
	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &Error{
			Kind:     KindUnknown,
			Site:     c.siteURL,
			Endpoint: endpoint,
			Err:      fmt.Errorf("failed to decode response: %w", err),
		}
	}
	return nil
}

// contentListResponse is the wire shape of GET /content
type contentListResponse struct {
	Posts []models.ContentItem `json:"posts"`
	Total int                  `json:"total"`
}

// mediaListResponse is the wire shape of GET /media
type mediaListResponse struct {
	Media []models.MediaItem `json:"media"`
	Total int                `json:"total"`
}

// revisionsResponse is the wire shape of GET /content/{id}/revisions
type revisionsResponse struct {
	Revisions []models.Revision `json:"revisions"`
}

// UpdateResult is the server's confirmation of a content mutation
type UpdateResult struct {
	Success bool `json:"success"`
	ID      int  `json:"id"`
}

// BackupResult is the server's confirmation of a server-side backup
type BackupResult struct {
	Success  bool   `json:"success"`
	BackupID string `json:"backup_id"`
	Count    int    `json:"count"`
}

// GetContent fetches all content items of the given type, paginating until
// the server runs out of results. status may be empty for "any".
func (c *Client) GetContent(ctx context.Context, contentType, status string, limit int) ([]models.ContentItem, error) {
	if contentType == "" {
		return nil, &Error{
			Kind:     KindValidation,
			Site:     c.siteURL,
			Endpoint: "/content",
			Err:      fmt.Errorf("content type is required"),
		}
	}
	if limit <= 0 {
		limit = defaultPageSize
	}

	var all []models.ContentItem
	page := 1

	for {
		params := url.Values{}
		params.Set("type", contentType)
		params.Set("limit", strconv.Itoa(limit))
		params.Set("page", strconv.Itoa(page))
		if status != "" {
			params.Set("status", status)
		}

		var resp contentListResponse
		if err := c.Get(ctx, "/content", params, &resp); err != nil {
			return nil, err
		}

		if len(resp.Posts) == 0 {
			break
		}
		all = append(all, resp.Posts...)

		if len(resp.Posts) < limit {
			break
		}
		page++
	}

	return all, nil
}

// GetContentByID fetches a single content item; a missing id surfaces as a
// NotFound error
func (c *Client) GetContentByID(ctx context.Context, id int) (*models.ContentItem, error) {
	var item models.ContentItem
	if err := c.Get(ctx, fmt.Sprintf("/content/%d", id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateContent creates a new content item and returns its assigned ID
func (c *Client) CreateContent(ctx context.Context, item models.ContentItem) (*UpdateResult, error) {
	var result UpdateResult
	if err := c.Post(ctx, "/content", item, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateContent applies a partial update: only the fields set on update are
// sent, so everything else keeps its current server-side value
func (c *Client) UpdateContent(ctx context.Context, id int, update models.ContentUpdate) (*UpdateResult, error) {
	var result UpdateResult
	if err := c.Put(ctx, fmt.Sprintf("/content/%d", id), update, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteContent deletes a content item
func (c *Client) DeleteContent(ctx context.Context, id int) (*UpdateResult, error) {
	var result UpdateResult
	if err := c.Delete(ctx, fmt.Sprintf("/content/%d", id), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SearchReplace runs the plugin's server-side search/replace endpoint.
// Prefer ops.ContentOps.SearchReplaceContent when you need word-boundary
// matching and per-item error reporting.
func (c *Client) SearchReplace(ctx context.Context, search, replace string, postTypes []string, dryRun bool) (*models.SearchReplaceResult, error) {
	if search == "" {
		return nil, &Error{
			Kind:     KindValidation,
			Site:     c.siteURL,
			Endpoint: "/search-replace",
			Err:      fmt.Errorf("search term is required"),
		}
	}
	if len(postTypes) == 0 {
		postTypes = []string{"post", "page"}
	}

	body := map[string]any{
		"search":     search,
		"replace":    replace,
		"post_types": postTypes,
		"dry_run":    dryRun,
	}

	var result models.SearchReplaceResult
	if err := c.Post(ctx, "/search-replace", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListMedia fetches media library items, paginating until exhausted
func (c *Client) ListMedia(ctx context.Context, limit int) ([]models.MediaItem, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}

	var all []models.MediaItem
	page := 1

	for {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(limit))
		params.Set("page", strconv.Itoa(page))

		var resp mediaListResponse
		if err := c.Get(ctx, "/media", params, &resp); err != nil {
			return nil, err
		}

		if len(resp.Media) == 0 {
			break
		}
		all = append(all, resp.Media...)

		if len(resp.Media) < limit {
			break
		}
		page++
	}

	return all, nil
}

// GetMediaByID fetches a single media item
func (c *Client) GetMediaByID(ctx context.Context, id int) (*models.MediaItem, error) {
	var item models.MediaItem
	if err := c.Get(ctx, fmt.Sprintf("/media/%d", id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// GetRevisions fetches the revision history for a content item
func (c *Client) GetRevisions(ctx context.Context, id int) ([]models.Revision, error) {
	var resp revisionsResponse
	if err := c.Get(ctx, fmt.Sprintf("/content/%d/revisions", id), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Revisions, nil
}

// RestoreRevision restores a content item to a specific revision
func (c *Client) RestoreRevision(ctx context.Context, id, revisionID int) (*UpdateResult, error) {
	var result UpdateResult
	endpoint := fmt.Sprintf("/content/%d/revisions/%d/restore", id, revisionID)
	if err := c.Post(ctx, endpoint, struct{}{}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// BackupContent asks the plugin to snapshot content server-side before a
// bulk operation. Pass nil to back up everything.
func (c *Client) BackupContent(ctx context.Context, postIDs []int) (*BackupResult, error) {
	body := map[string]any{}
	if len(postIDs) > 0 {
		body["post_ids"] = postIDs
	}

	var result BackupResult
	if err := c.Post(ctx, "/backup", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
