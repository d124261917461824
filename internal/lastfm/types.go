package lastfm

import (
	"time"

	"github.com/jtkoskela/melograph/internal/conf"
)

// Config holds the Last.fm client configuration.
type Config struct {
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	CacheTTL    time.Duration
	RateLimitMS int
	MaxRetries  int
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:     "https://ws.audioscrobbler.com/2.0/",
		Timeout:     10 * time.Second,
		CacheTTL:    15 * time.Minute,
		RateLimitMS: 250,
		MaxRetries:  3,
	}
}

// ConfigFromSettings maps provider settings onto a client config.
func ConfigFromSettings(s conf.ProviderSettings) Config {
	return Config{
		APIKey:      s.APIKey,
		BaseURL:     s.BaseURL,
		Timeout:     s.Timeout,
		CacheTTL:    s.CacheTTL,
		RateLimitMS: s.RateLimitMS,
		MaxRetries:  s.MaxRetries,
	}
}

// Last.fm wraps every payload under a method-specific key and reports
// API-level failures as an error code inside a 200 response.

type apiError struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}

// errorCodeNotFound is Last.fm's "The artist you supplied could not be found".
const errorCodeNotFound = 6

type artistRef struct {
	Name string `json:"name"`
}

type tagRef struct {
	Name string `json:"name"`
}

type similarArtistsResponse struct {
	apiError
	SimilarArtists struct {
		Artist []artistRef `json:"artist"`
	} `json:"similarartists"`
}

type topArtistsResponse struct {
	apiError
	TopArtists struct {
		Artist []artistRef `json:"artist"`
	} `json:"topartists"`
}

type artistInfoResponse struct {
	apiError
	Artist *struct {
		Name string `json:"name"`
		Tags struct {
			Tag []tagRef `json:"tag"`
		} `json:"tags"`
	} `json:"artist"`
}
