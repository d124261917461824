// Package deezer is the client for the catalog provider: artist search,
// top tracks with preview clips, and album release history.
package deezer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jtkoskela/melograph/internal/errors"
	"github.com/jtkoskela/melograph/internal/logging"
)

// Package-level logger specific to the deezer service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "deezer.log")
	serviceLevelVar.Set(slog.LevelInfo)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "deezer", serviceLevelVar)
	if err != nil {
		log.Printf("Failed to initialize deezer file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "deezer")
		closeLogger = func() error { return nil }
	}
}

// albumsPageSize is the provider's maximum page size for album listings.
const albumsPageSize = 50

// Client provides methods for interacting with the Deezer API.
type Client struct {
	config      Config
	httpClient  *http.Client
	cache       *cache.Cache
	rateLimiter *time.Ticker
	mu          sync.Mutex

	metrics struct {
		apiCalls    int64
		cacheHits   int64
		cacheMisses int64
		apiErrors   int64
		mu          sync.Mutex
	}
}

// NewClient creates a new Deezer API client. The API requires no key
// for public catalog reads.
func NewClient(config Config) *Client {
	defaults := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = defaults.CacheTTL
	}
	if config.RateLimitMS == 0 {
		config.RateLimitMS = defaults.RateLimitMS
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = defaults.MaxRetries
	}

	client := &Client{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		cache:       cache.New(config.CacheTTL, config.CacheTTL*2),
		rateLimiter: time.NewTicker(time.Duration(config.RateLimitMS) * time.Millisecond),
	}

	logger.Info("Deezer client initialized",
		"base_url", config.BaseURL,
		"cache_ttl", config.CacheTTL,
		"rate_limit_ms", config.RateLimitMS)

	return client
}

// Close cleans up client resources.
func (c *Client) Close() {
	c.rateLimiter.Stop()
	if closeLogger != nil {
		if err := closeLogger(); err != nil {
			log.Printf("Error closing deezer logger: %v", err)
		}
	}
}

// SearchArtist returns the provider's best match for a free-text artist
// name. No match at all yields a not-found error.
func (c *Client) SearchArtist(ctx context.Context, name string) (*Artist, error) {
	cacheKey := "search:" + name
	if cached, found := c.cache.Get(cacheKey); found {
		if artist, ok := cached.(*Artist); ok {
			c.recordCacheHit()
			return artist, nil
		}
	}
	c.recordCacheMiss()

	endpoint := "/search/artist?" + url.Values{"q": {name}}.Encode()

	var resp searchResponse
	if err := c.doRequestWithRetry(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errors.Newf("no catalog match for artist: %s", name).
			Category(errors.CategoryNotFound).
			Component("deezer").
			Context("artist", name).
			Build()
	}

	artist := resp.Data[0]
	c.cache.Set(cacheKey, &artist, cache.DefaultExpiration)
	return &artist, nil
}

// TopTracks returns up to limit of the artist's most popular tracks.
// Tracks without a preview clip are included; callers filter as needed.
func (c *Client) TopTracks(ctx context.Context, artistID int64, limit int) ([]Track, error) {
	cacheKey := fmt.Sprintf("toptracks:%d:%d", artistID, limit)
	if cached, found := c.cache.Get(cacheKey); found {
		if tracks, ok := cached.([]Track); ok {
			c.recordCacheHit()
			return tracks, nil
		}
	}
	c.recordCacheMiss()

	endpoint := fmt.Sprintf("/artist/%d/top?limit=%d", artistID, limit)

	var resp topTracksResponse
	if err := c.doRequestWithRetry(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	c.cache.Set(cacheKey, resp.Data, cache.DefaultExpiration)
	return resp.Data, nil
}

// EarliestReleaseYear walks the artist's album listing and returns the
// oldest release year, or 0 when no album carries a usable date. A
// failure past the first page degrades to the minimum seen so far.
func (c *Client) EarliestReleaseYear(ctx context.Context, artistID int64) (int, error) {
	cacheKey := fmt.Sprintf("firstyear:%d", artistID)
	if cached, found := c.cache.Get(cacheKey); found {
		if year, ok := cached.(int); ok {
			c.recordCacheHit()
			return year, nil
		}
	}
	c.recordCacheMiss()

	earliest := 0
	for index := 0; ; index += albumsPageSize {
		endpoint := fmt.Sprintf("/artist/%d/albums?limit=%d&index=%d", artistID, albumsPageSize, index)

		var resp albumsResponse
		if err := c.doRequestWithRetry(ctx, endpoint, &resp); err != nil {
			if index == 0 {
				return 0, err
			}
			logger.Warn("Album listing truncated mid-walk",
				"artist_id", artistID, "index", index, "error", err.Error())
			break
		}
		if len(resp.Data) == 0 {
			break
		}

		for i := range resp.Data {
			year := releaseYear(resp.Data[i].ReleaseDate)
			if year > 0 && (earliest == 0 || year < earliest) {
				earliest = year
			}
		}

		if resp.Next == "" || len(resp.Data) < albumsPageSize {
			break
		}
	}

	c.cache.Set(cacheKey, earliest, cache.DefaultExpiration)
	return earliest, nil
}

// releaseYear parses the leading YYYY from a provider release date.
// Deezer uses "0000-00-00" for unknown dates.
func releaseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil || year <= 0 {
		return 0
	}
	return year
}

// doRequest performs a single rate-limited GET against the API.
func (c *Client) doRequest(ctx context.Context, endpoint string, result any) error {
	c.mu.Lock()
	<-c.rateLimiter.C
	c.mu.Unlock()

	c.metrics.mu.Lock()
	c.metrics.apiCalls++
	c.metrics.mu.Unlock()

	requestURL := c.config.BaseURL + endpoint

	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, requestURL, nil)
	if err != nil {
		return errors.Newf("failed to create HTTP request: %w", err).
			Category(errors.CategoryNetwork).
			Component("deezer").
			Build()
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordAPIError()
		logger.Error("Deezer API request failed", "error", err, "endpoint", endpoint)
		return errors.Newf("HTTP request failed: %w", err).
			Category(errors.CategoryNetwork).
			Component("deezer").
			Context("endpoint", endpoint).
			Build()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recordAPIError()
		return errors.Newf("failed to read response body: %w", err).
			Category(errors.CategoryNetwork).
			Component("deezer").
			Build()
	}

	if resp.StatusCode >= 400 {
		c.recordAPIError()
		logger.Warn("Deezer API error response",
			"status_code", resp.StatusCode,
			"endpoint", endpoint)
		return errors.Newf("deezer API error (status %d)", resp.StatusCode).
			Category(statusCategory(resp.StatusCode)).
			Component("deezer").
			Context("status_code", resp.StatusCode).
			Build()
	}

	// Deezer reports quota and permission failures as an error object
	// inside a 200 response.
	var apiErr apiErrorResponse
	if err := json.Unmarshal(bodyBytes, &apiErr); err == nil && apiErr.Error != nil {
		c.recordAPIError()
		category := errors.CategoryNetwork
		if apiErr.Error.Code == 4 || apiErr.Error.Type == "QuotaException" {
			category = errors.CategoryLimit
		}
		return errors.Newf("deezer API error %d: %s", apiErr.Error.Code, apiErr.Error.Message).
			Category(category).
			Component("deezer").
			Context("endpoint", endpoint).
			Build()
	}

	if err := json.Unmarshal(bodyBytes, result); err != nil {
		return errors.Newf("failed to parse response: %w", err).
			Category(errors.CategoryFileParsing).
			Component("deezer").
			Context("response_size", len(bodyBytes)).
			Build()
	}

	return nil
}

// doRequestWithRetry wraps doRequest with bounded retry and linear
// backoff for transient failures.
func (c *Client) doRequestWithRetry(ctx context.Context, endpoint string, result any) error {
	var lastErr error

	for attempt := 0; attempt < c.config.MaxRetries; attempt++ {
		err := c.doRequest(ctx, endpoint, result)
		if err == nil {
			return nil
		}
		if !errors.IsTransient(err) {
			return err
		}
		lastErr = err

		if ctx.Err() != nil {
			return lastErr
		}

		if attempt < c.config.MaxRetries-1 {
			delay := time.Duration(attempt+1) * 500 * time.Millisecond
			logger.Warn("Deezer request failed, retrying",
				"attempt", attempt+1,
				"max_retries", c.config.MaxRetries,
				"delay_ms", delay.Milliseconds(),
				"error", err.Error())
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return lastErr
}

// statusCategory maps an HTTP status to the retry taxonomy: 404 is a
// definite miss, 403/429 are rate limiting, other 4xx are caller bugs,
// 5xx is transient network trouble.
func statusCategory(statusCode int) errors.ErrorCategory {
	switch {
	case statusCode == http.StatusNotFound:
		return errors.CategoryNotFound
	case statusCode == http.StatusForbidden || statusCode == http.StatusTooManyRequests:
		return errors.CategoryLimit
	case statusCode >= 400 && statusCode < 500:
		return errors.CategoryValidation
	default:
		return errors.CategoryNetwork
	}
}

func (c *Client) recordCacheHit() {
	c.metrics.mu.Lock()
	c.metrics.cacheHits++
	c.metrics.mu.Unlock()
}

func (c *Client) recordCacheMiss() {
	c.metrics.mu.Lock()
	c.metrics.cacheMisses++
	c.metrics.mu.Unlock()
}

func (c *Client) recordAPIError() {
	c.metrics.mu.Lock()
	c.metrics.apiErrors++
	c.metrics.mu.Unlock()
}

// Metrics is a snapshot of client counters.
type Metrics struct {
	APICalls    int64 `json:"api_calls"`
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
	APIErrors   int64 `json:"api_errors"`
}

// GetMetrics returns current client metrics.
func (c *Client) GetMetrics() Metrics {
	c.metrics.mu.Lock()
	defer c.metrics.mu.Unlock()
	return Metrics{
		APICalls:    c.metrics.apiCalls,
		CacheHits:   c.metrics.cacheHits,
		CacheMisses: c.metrics.cacheMisses,
		APIErrors:   c.metrics.apiErrors,
	}
}
