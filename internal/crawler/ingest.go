package crawler

import (
	"context"

	"github.com/jtkoskela/melograph/internal/datastore"
	"github.com/jtkoskela/melograph/internal/dsp"
	"github.com/jtkoskela/melograph/internal/logging"
	"github.com/jtkoskela/melograph/internal/resolver"
)

var log = logging.ForService("crawler")

// Resolver resolves a free-text artist name into a full profile.
type Resolver interface {
	Resolve(ctx context.Context, name string) (*resolver.Resolution, error)
}

// TrackAnalyzer extracts the physics feature vector of one preview clip.
type TrackAnalyzer interface {
	Analyze(ctx context.Context, previewURL string) (dsp.Features, error)
}

// Pipeline is the full ingest path for one artist: resolve the profile,
// analyze the preview clips, persist, and synthesize composite scores.
// It is shared by the crawl loop and the one-shot ingest commands.
type Pipeline struct {
	store    datastore.Interface
	resolver Resolver
	analyzer TrackAnalyzer
}

// NewPipeline wires an ingest pipeline over the given dependencies.
func NewPipeline(store datastore.Interface, res Resolver, analyzer TrackAnalyzer) *Pipeline {
	return &Pipeline{store: store, resolver: res, analyzer: analyzer}
}

// Ingest resolves, analyzes, and persists one artist by name. It
// returns the stored artist and the number of tracks that survived
// audio analysis. Per-track analysis failures are skipped: an artist
// with zero analyzable tracks still lands with tag-derived scores.
func (p *Pipeline) Ingest(ctx context.Context, name string) (*datastore.Artist, int, error) {
	res, err := p.resolver.Resolve(ctx, name)
	if err != nil {
		return nil, 0, err
	}

	artist := &datastore.Artist{
		Name:             res.Name,
		Genre:            res.Genre,
		Listeners:        res.Listeners,
		ImageURL:         res.ImageURL,
		FirstReleaseYear: res.FirstReleaseYear,
		TagEnergy:        res.TagEnergy,
		Valence:          res.TagValence,
	}
	if err := p.store.UpsertArtist(artist); err != nil {
		return nil, 0, err
	}

	tracks := make([]datastore.Track, 0, len(res.Tracks))
	for _, ref := range res.Tracks {
		features, err := p.analyzer.Analyze(ctx, ref.PreviewURL)
		if err != nil {
			log.Warn("Track analysis failed, skipping track",
				"artist", res.Name,
				"track", ref.Title,
				"error", err.Error())
			continue
		}
		tracks = append(tracks, datastore.Track{
			Title:      ref.Title,
			PreviewURL: ref.PreviewURL,
			BPM:        float64(features.BPM),
			Brightness: features.Brightness,
			Noisiness:  features.Noisiness,
			Warmth:     features.Warmth,
			Complexity: features.Complexity,
		})
	}

	if err := p.store.ReplaceTracks(artist.ID, tracks); err != nil {
		return nil, 0, err
	}
	if err := p.store.SynthesizeScores(artist.ID); err != nil {
		return nil, 0, err
	}

	log.Info("Artist ingested",
		"artist", res.Name,
		"genre", res.Genre,
		"tracks_analyzed", len(tracks),
		"tracks_resolved", len(res.Tracks))
	return artist, len(tracks), nil
}
