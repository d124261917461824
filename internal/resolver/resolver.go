// Package resolver assembles an artist's full metadata profile from the
// catalog and tag providers: identity, popularity, genre, tag scores,
// first release year, and preview-bearing top tracks.
package resolver

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jtkoskela/melograph/internal/conf"
	"github.com/jtkoskela/melograph/internal/deezer"
	"github.com/jtkoskela/melograph/internal/errors"
	"github.com/jtkoskela/melograph/internal/logging"
	"github.com/jtkoskela/melograph/internal/scoring"
)

var log = logging.ForService("resolver")

// topTracksFetchLimit is fetched before preview filtering so that
// previewless tracks do not starve the retained set.
const topTracksFetchLimit = 25

// Catalog is the subset of the catalog client the resolver needs.
type Catalog interface {
	SearchArtist(ctx context.Context, name string) (*deezer.Artist, error)
	TopTracks(ctx context.Context, artistID int64, limit int) ([]deezer.Track, error)
	EarliestReleaseYear(ctx context.Context, artistID int64) (int, error)
}

// TagSource is the subset of the tag provider the resolver needs.
type TagSource interface {
	ArtistTags(ctx context.Context, artist string) ([]string, error)
}

// TrackRef is one resolved top track with a playable preview.
type TrackRef struct {
	Title      string
	PreviewURL string
}

// Resolution is the complete provider-side profile of one artist,
// before any audio analysis.
type Resolution struct {
	Name             string // catalog canonical name
	CatalogID        int64
	Genre            string
	Listeners        int
	ImageURL         string
	FirstReleaseYear int
	Tags             []string
	TagEnergy        float64
	TagValence       float64
	Tracks           []TrackRef
}

// Resolver resolves artist names into full profiles.
type Resolver struct {
	catalog   Catalog
	tags      TagSource
	scorer    *scoring.Scorer
	maxTracks int
	titler    cases.Caser
}

// New creates a resolver over the given providers.
func New(catalog Catalog, tags TagSource, scorer *scoring.Scorer, settings conf.ResolverSettings) *Resolver {
	maxTracks := settings.MaxTracks
	if maxTracks <= 0 {
		maxTracks = 5
	}
	return &Resolver{
		catalog:   catalog,
		tags:      tags,
		scorer:    scorer,
		maxTracks: maxTracks,
		titler:    cases.Title(language.English),
	}
}

// Resolve builds the full profile for a free-text artist name. A
// catalog miss fails resolution; every other provider failure degrades
// to a documented default so a partially reachable provider set still
// yields a usable profile.
func (r *Resolver) Resolve(ctx context.Context, name string) (*Resolution, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.Newf("artist name is empty").
			Category(errors.CategoryValidation).
			Component("resolver").
			Build()
	}

	artist, err := r.catalog.SearchArtist(ctx, name)
	if err != nil {
		return nil, err
	}

	res := &Resolution{
		Name:       artist.Name,
		CatalogID:  artist.ID,
		Genre:      "Unknown",
		Listeners:  artist.NbFan,
		ImageURL:   artist.PictureMedium,
		TagEnergy:  scoring.NeutralScore,
		TagValence: scoring.NeutralScore,
	}

	tags, err := r.tags.ArtistTags(ctx, artist.Name)
	if err != nil {
		log.Warn("Tag lookup failed, using neutral scores",
			"artist", artist.Name, "error", err.Error())
	} else if len(tags) > 0 {
		res.Tags = tags
		res.Genre = r.titler.String(tags[0])
		res.TagEnergy = r.scorer.Energy(tags)
		res.TagValence = r.scorer.Valence(tags)
	}

	year, err := r.catalog.EarliestReleaseYear(ctx, artist.ID)
	if err != nil {
		log.Warn("Release year lookup failed",
			"artist", artist.Name, "error", err.Error())
	} else {
		res.FirstReleaseYear = year
	}

	tracks, err := r.catalog.TopTracks(ctx, artist.ID, topTracksFetchLimit)
	if err != nil {
		log.Warn("Top track lookup failed, profile has no tracks",
			"artist", artist.Name, "error", err.Error())
		return res, nil
	}

	for _, track := range tracks {
		if track.Preview == "" || track.Title == "" {
			continue
		}
		res.Tracks = append(res.Tracks, TrackRef{
			Title:      track.Title,
			PreviewURL: track.Preview,
		})
		if len(res.Tracks) >= r.maxTracks {
			break
		}
	}

	log.Debug("Artist resolved",
		"artist", res.Name,
		"genre", res.Genre,
		"tracks", len(res.Tracks),
		"first_release_year", res.FirstReleaseYear)
	return res, nil
}
