// Package lastfm is the client for the social-similarity and tag
// provider: similar-artist pages, top artists by tag, and artist tags.
package lastfm

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

// Package-level logger specific to the lastfm service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "lastfm.log")
	serviceLevelVar.Set(slog.LevelInfo)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "lastfm", serviceLevelVar)
	if err != nil {
		log.Printf("Failed to initialize lastfm file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "lastfm")
		closeLogger = func() error { return nil }
	}
}

// Client provides methods for interacting with the Last.fm API.
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

// NewClient creates a new Last.fm API client.
func NewClient(config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.Newf("Last.fm API key is required").
			Category(errors.CategoryConfiguration).
			Component("lastfm").
			Build()
	}

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

	logger.Info("Last.fm client initialized",
		"base_url", config.BaseURL,
		"cache_ttl", config.CacheTTL,
		"rate_limit_ms", config.RateLimitMS)

	return client, nil
}

// Close cleans up client resources.
func (c *Client) Close() {
	c.rateLimiter.Stop()
	if closeLogger != nil {
		if err := closeLogger(); err != nil {
			log.Printf("Error closing lastfm logger: %v", err)
		}
	}
}

// SimilarArtists returns one page of artists similar to the given one,
// ordered by the provider's match strength.
func (c *Client) SimilarArtists(ctx context.Context, artist string, page, limit int) ([]string, error) {
	cacheKey := fmt.Sprintf("similar:%s:%d:%d", artist, page, limit)
	if cached, found := c.cache.Get(cacheKey); found {
		if names, ok := cached.([]string); ok {
			c.recordCacheHit()
			return names, nil
		}
	}
	c.recordCacheMiss()

	params := url.Values{
		"method": {"artist.getsimilar"},
		"artist": {artist},
		"page":   {strconv.Itoa(page)},
		"limit":  {strconv.Itoa(limit)},
	}

	var resp similarArtistsResponse
	if err := c.doRequestWithRetry(ctx, params, &resp); err != nil {
		return nil, err
	}
	if err := resp.apiError.check("lastfm", artist); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(resp.SimilarArtists.Artist))
	for _, a := range resp.SimilarArtists.Artist {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}

	c.cache.Set(cacheKey, names, cache.DefaultExpiration)
	return names, nil
}

// TopArtistsByTag returns the most popular artists under a genre tag.
func (c *Client) TopArtistsByTag(ctx context.Context, tag string, limit int) ([]string, error) {
	cacheKey := fmt.Sprintf("topbytag:%s:%d", tag, limit)
	if cached, found := c.cache.Get(cacheKey); found {
		if names, ok := cached.([]string); ok {
			c.recordCacheHit()
			return names, nil
		}
	}
	c.recordCacheMiss()

	params := url.Values{
		"method": {"tag.gettopartists"},
		"tag":    {tag},
		"limit":  {strconv.Itoa(limit)},
	}

	var resp topArtistsResponse
	if err := c.doRequestWithRetry(ctx, params, &resp); err != nil {
		return nil, err
	}
	if err := resp.apiError.check("lastfm", tag); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(resp.TopArtists.Artist))
	for _, a := range resp.TopArtists.Artist {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}

	c.cache.Set(cacheKey, names, cache.DefaultExpiration)
	return names, nil
}

// ArtistTags returns the artist's descriptive tags, lowercased, in the
// provider's order. Unknown artists yield a not-found error.
func (c *Client) ArtistTags(ctx context.Context, artist string) ([]string, error) {
	cacheKey := "tags:" + artist
	if cached, found := c.cache.Get(cacheKey); found {
		if tags, ok := cached.([]string); ok {
			c.recordCacheHit()
			return tags, nil
		}
	}
	c.recordCacheMiss()

	params := url.Values{
		"method": {"artist.getinfo"},
		"artist": {artist},
	}

	var resp artistInfoResponse
	if err := c.doRequestWithRetry(ctx, params, &resp); err != nil {
		return nil, err
	}
	if err := resp.apiError.check("lastfm", artist); err != nil {
		return nil, err
	}
	if resp.Artist == nil {
		return nil, errors.Newf("artist info missing from response: %s", artist).
			Category(errors.CategoryNotFound).
			Component("lastfm").
			Build()
	}

	tags := make([]string, 0, len(resp.Artist.Tags.Tag))
	for _, tag := range resp.Artist.Tags.Tag {
		if tag.Name != "" {
			tags = append(tags, tag.Name)
		}
	}

	c.cache.Set(cacheKey, tags, cache.DefaultExpiration)
	return tags, nil
}

// check converts an API-level error payload to an enhanced error.
func (e apiError) check(component, subject string) error {
	if e.Code == 0 {
		return nil
	}
	category := errors.CategoryNetwork
	if e.Code == errorCodeNotFound {
		category = errors.CategoryNotFound
	}
	return errors.Newf("lastfm API error %d: %s", e.Code, e.Message).
		Category(category).
		Component(component).
		Context("subject", subject).
		Build()
}

// doRequest performs a single rate-limited GET against the API.
func (c *Client) doRequest(ctx context.Context, params url.Values, result any) error {
	c.mu.Lock()
	<-c.rateLimiter.C
	c.mu.Unlock()

	c.metrics.mu.Lock()
	c.metrics.apiCalls++
	c.metrics.mu.Unlock()

	params.Set("api_key", c.config.APIKey)
	params.Set("format", "json")
	requestURL := c.config.BaseURL + "?" + params.Encode()

	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, requestURL, nil)
	if err != nil {
		return errors.Newf("failed to create HTTP request: %w", err).
			Category(errors.CategoryNetwork).
			Component("lastfm").
			Build()
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordAPIError()
		logger.Error("Last.fm API request failed", "error", err, "method", params.Get("method"))
		return errors.Newf("HTTP request failed: %w", err).
			Category(errors.CategoryNetwork).
			Component("lastfm").
			Context("api_method", params.Get("method")).
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
			Component("lastfm").
			Build()
	}

	if resp.StatusCode >= 400 {
		c.recordAPIError()
		logger.Warn("Last.fm API error response",
			"status_code", resp.StatusCode,
			"api_method", params.Get("method"))
		return errors.Newf("lastfm API error (status %d)", resp.StatusCode).
			Category(statusCategory(resp.StatusCode)).
			Component("lastfm").
			Context("status_code", resp.StatusCode).
			Build()
	}

	if err := json.Unmarshal(bodyBytes, result); err != nil {
		return errors.Newf("failed to parse response: %w", err).
			Category(errors.CategoryFileParsing).
			Component("lastfm").
			Context("response_size", len(bodyBytes)).
			Build()
	}

	return nil
}

// doRequestWithRetry wraps doRequest with bounded retry and linear
// backoff for transient failures. Not-found and client errors
// short-circuit immediately.
func (c *Client) doRequestWithRetry(ctx context.Context, params url.Values, result any) error {
	var lastErr error

	for attempt := 0; attempt < c.config.MaxRetries; attempt++ {
		err := c.doRequest(ctx, params, result)
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
			logger.Warn("Last.fm request failed, retrying",
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
// definite miss, 403/429 are rate limiting (providers throttle with
// both), other 4xx are caller bugs, 5xx is transient network trouble.
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
