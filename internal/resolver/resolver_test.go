package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtkoskela/melograph/internal/conf"
	"github.com/jtkoskela/melograph/internal/deezer"
	"github.com/jtkoskela/melograph/internal/errors"
	"github.com/jtkoskela/melograph/internal/scoring"
)

type fakeCatalog struct {
	artist    *deezer.Artist
	searchErr error
	tracks    []deezer.Track
	tracksErr error
	year      int
	yearErr   error
}

func (f *fakeCatalog) SearchArtist(context.Context, string) (*deezer.Artist, error) {
	return f.artist, f.searchErr
}

func (f *fakeCatalog) TopTracks(context.Context, int64, int) ([]deezer.Track, error) {
	return f.tracks, f.tracksErr
}

func (f *fakeCatalog) EarliestReleaseYear(context.Context, int64) (int, error) {
	return f.year, f.yearErr
}

type fakeTags struct {
	tags []string
	err  error
}

func (f *fakeTags) ArtistTags(context.Context, string) ([]string, error) {
	return f.tags, f.err
}

func notFoundErr(msg string) error {
	return errors.Newf("%s", msg).Category(errors.CategoryNotFound).Build()
}

func newResolver(catalog Catalog, tags TagSource) *Resolver {
	return New(catalog, tags, scoring.NewScorer(nil, nil), conf.ResolverSettings{MaxTracks: 5})
}

func TestResolveFullProfile(t *testing.T) {
	catalog := &fakeCatalog{
		artist: &deezer.Artist{
			ID: 119, Name: "Metallica", NbFan: 9000000,
			PictureMedium: "https://cdn.test/m.jpg",
		},
		tracks: []deezer.Track{
			{Title: "One", Preview: "https://cdn.test/one.mp3"},
			{Title: "Battery", Preview: "https://cdn.test/battery.mp3"},
		},
		year: 1983,
	}
	tags := &fakeTags{tags: []string{"thrash metal", "metal", "rock"}}

	res, err := newResolver(catalog, tags).Resolve(context.Background(), "metallica")
	require.NoError(t, err)

	assert.Equal(t, "Metallica", res.Name)
	assert.Equal(t, int64(119), res.CatalogID)
	assert.Equal(t, "Thrash Metal", res.Genre)
	assert.Equal(t, 9000000, res.Listeners)
	assert.Equal(t, 1983, res.FirstReleaseYear)
	require.Len(t, res.Tracks, 2)
	assert.Equal(t, "One", res.Tracks[0].Title)

	// thrash metal + metal match "metal" twice, rock matches once:
	// (0.9 + 0.9 + 0.7) / 3
	assert.InDelta(t, 2.5/3.0, res.TagEnergy, 1e-9)
	// "metal" valence 0.3, matched by two tags
	assert.InDelta(t, 0.3, res.TagValence, 1e-9)
}

func TestResolveCatalogMissFails(t *testing.T) {
	catalog := &fakeCatalog{searchErr: notFoundErr("no catalog match")}

	_, err := newResolver(catalog, &fakeTags{}).Resolve(context.Background(), "zzzz nobody")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestResolveEmptyName(t *testing.T) {
	_, err := newResolver(&fakeCatalog{}, &fakeTags{}).Resolve(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, errors.CategoryValidation, errors.CategoryOf(err))
}

func TestResolveTagFailureDegrades(t *testing.T) {
	catalog := &fakeCatalog{
		artist: &deezer.Artist{ID: 7, Name: "Obscurity"},
	}
	tags := &fakeTags{err: notFoundErr("artist not on lastfm")}

	res, err := newResolver(catalog, tags).Resolve(context.Background(), "Obscurity")
	require.NoError(t, err)
	assert.Equal(t, "Unknown", res.Genre)
	assert.InDelta(t, scoring.NeutralScore, res.TagEnergy, 1e-9)
	assert.InDelta(t, scoring.NeutralScore, res.TagValence, 1e-9)
	assert.Empty(t, res.Tags)
}

func TestResolveNoTagsMeansUnknownGenre(t *testing.T) {
	catalog := &fakeCatalog{artist: &deezer.Artist{ID: 7, Name: "Obscurity"}}
	tags := &fakeTags{tags: []string{}}

	res, err := newResolver(catalog, tags).Resolve(context.Background(), "Obscurity")
	require.NoError(t, err)
	assert.Equal(t, "Unknown", res.Genre)
	assert.InDelta(t, scoring.NeutralScore, res.TagEnergy, 1e-9)
}

func TestResolveYearFailureDegradesToZero(t *testing.T) {
	catalog := &fakeCatalog{
		artist:  &deezer.Artist{ID: 7, Name: "Obscurity"},
		yearErr: notFoundErr("no albums"),
	}

	res, err := newResolver(catalog, &fakeTags{}).Resolve(context.Background(), "Obscurity")
	require.NoError(t, err)
	assert.Equal(t, 0, res.FirstReleaseYear)
}

func TestResolveFiltersPreviewlessAndCaps(t *testing.T) {
	tracks := []deezer.Track{
		{Title: "No Preview", Preview: ""},
		{Title: "A", Preview: "pa"},
		{Title: "", Preview: "untitled"},
		{Title: "B", Preview: "pb"},
		{Title: "C", Preview: "pc"},
		{Title: "D", Preview: "pd"},
		{Title: "E", Preview: "pe"},
		{Title: "F", Preview: "pf"},
	}
	catalog := &fakeCatalog{
		artist: &deezer.Artist{ID: 7, Name: "Prolific"},
		tracks: tracks,
	}

	res, err := newResolver(catalog, &fakeTags{}).Resolve(context.Background(), "Prolific")
	require.NoError(t, err)
	require.Len(t, res.Tracks, 5)
	assert.Equal(t, "A", res.Tracks[0].Title)
	assert.Equal(t, "E", res.Tracks[4].Title)
}

func TestResolveTrackFailureYieldsTracklessProfile(t *testing.T) {
	catalog := &fakeCatalog{
		artist:    &deezer.Artist{ID: 7, Name: "Obscurity"},
		tracksErr: notFoundErr("no top tracks"),
	}

	res, err := newResolver(catalog, &fakeTags{}).Resolve(context.Background(), "Obscurity")
	require.NoError(t, err)
	assert.Empty(t, res.Tracks)
}
