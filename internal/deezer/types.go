package deezer

import (
	"time"

	"github.com/jtkoskela/melograph/internal/conf"
)

// Config holds the Deezer client configuration.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	CacheTTL    time.Duration
	RateLimitMS int
	MaxRetries  int
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:     "https://api.deezer.com",
		Timeout:     10 * time.Second,
		CacheTTL:    15 * time.Minute,
		RateLimitMS: 250,
		MaxRetries:  3,
	}
}

// ConfigFromSettings maps provider settings onto a client config.
func ConfigFromSettings(s conf.ProviderSettings) Config {
	return Config{
		BaseURL:     s.BaseURL,
		Timeout:     s.Timeout,
		CacheTTL:    s.CacheTTL,
		RateLimitMS: s.RateLimitMS,
		MaxRetries:  s.MaxRetries,
	}
}

// Artist is the catalog provider's view of one artist.
type Artist struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	NbFan         int    `json:"nb_fan"`
	PictureMedium string `json:"picture_medium"`
	Link          string `json:"link"`
}

// Track is one top track with an optional preview clip reference.
type Track struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Preview string `json:"preview"`
}

type album struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"` // YYYY-MM-DD
}

type searchResponse struct {
	Data []Artist `json:"data"`
}

type topTracksResponse struct {
	Data []Track `json:"data"`
}

type albumsResponse struct {
	Data  []album `json:"data"`
	Total int     `json:"total"`
	Next  string  `json:"next"`
}

type apiErrorResponse struct {
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}
