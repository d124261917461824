package similarity

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtkoskela/melograph/internal/conf"
	"github.com/jtkoskela/melograph/internal/datastore"
	"github.com/jtkoskela/melograph/internal/errors"
)

func newTestStore(t *testing.T) datastore.Interface {
	t.Helper()

	settings := &conf.Settings{}
	settings.Database.SQLite.Enabled = true
	settings.Database.SQLite.Path = filepath.Join(t.TempDir(), "sim.db")

	store, err := datastore.New(settings)
	require.NoError(t, err)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestEngine(t *testing.T) (*Engine, datastore.Interface) {
	t.Helper()
	store := newTestStore(t)
	return New(store, conf.SimilaritySettings{MinCorpus: 5, DefaultK: 5}), store
}

func addArtist(t *testing.T, store datastore.Interface, name string, bpm, brightness, noisiness, warmth, complexity, valence float64) *datastore.Artist {
	t.Helper()
	artist := &datastore.Artist{
		Name:          name,
		Genre:         "Test",
		TagEnergy:     0.5,
		Valence:       valence,
		AvgBPM:        bpm,
		AvgBrightness: brightness,
		AvgNoisiness:  noisiness,
		AvgWarmth:     warmth,
		AvgComplexity: complexity,
	}
	require.NoError(t, store.UpsertArtist(artist))
	return artist
}

// Five artists: A and B nearly identical, C close, D and E far away.
func seedCorpus(t *testing.T, store datastore.Interface) {
	t.Helper()
	addArtist(t, store, "A", 140, 0.80, 0.70, 0.75, 0.60, 0.30)
	addArtist(t, store, "B", 138, 0.78, 0.69, 0.74, 0.58, 0.32)
	addArtist(t, store, "C", 120, 0.70, 0.60, 0.65, 0.50, 0.40)
	addArtist(t, store, "D", 70, 0.20, 0.10, 0.25, 0.15, 0.90)
	addArtist(t, store, "E", 60, 0.10, 0.05, 0.15, 0.10, 0.85)
}

func TestSimilarArtistsOrdering(t *testing.T) {
	engine, store := newTestEngine(t)
	seedCorpus(t, store)

	neighbors, err := engine.SimilarArtists("A", 3)
	require.NoError(t, err)
	require.Len(t, neighbors, 3)

	assert.Equal(t, "B", neighbors[0].Name)
	assert.Equal(t, "C", neighbors[1].Name)
	assert.LessOrEqual(t, neighbors[0].Distance, neighbors[1].Distance)
	assert.LessOrEqual(t, neighbors[1].Distance, neighbors[2].Distance)
}

func TestSimilarArtistsNeverReturnsSelf(t *testing.T) {
	engine, store := newTestEngine(t)
	seedCorpus(t, store)

	neighbors, err := engine.SimilarArtists("a", 10)
	require.NoError(t, err)
	require.Len(t, neighbors, 4)
	for _, n := range neighbors {
		assert.NotEqual(t, "A", n.Name)
	}
}

func TestSimilarArtistsCorpusTooSmall(t *testing.T) {
	engine, store := newTestEngine(t)
	addArtist(t, store, "A", 140, 0.8, 0.7, 0.75, 0.6, 0.3)
	addArtist(t, store, "B", 138, 0.78, 0.69, 0.74, 0.58, 0.32)

	neighbors, err := engine.SimilarArtists("A", 3)
	require.NoError(t, err)
	assert.Empty(t, neighbors)
}

func TestSimilarArtistsUnknownQuery(t *testing.T) {
	engine, store := newTestEngine(t)
	seedCorpus(t, store)

	_, err := engine.SimilarArtists("Nobody", 3)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestSimilarArtistsDefaultK(t *testing.T) {
	engine, store := newTestEngine(t)
	seedCorpus(t, store)
	addArtist(t, store, "F", 100, 0.5, 0.5, 0.5, 0.5, 0.5)
	addArtist(t, store, "G", 101, 0.5, 0.5, 0.5, 0.5, 0.5)

	neighbors, err := engine.SimilarArtists("A", 0)
	require.NoError(t, err)
	assert.Len(t, neighbors, 5)
}

func TestSimilarArtistsTagEnergyFallback(t *testing.T) {
	engine, store := newTestEngine(t)
	seedCorpus(t, store)

	// Unanalyzed artist: no composite scores, only a high tag energy.
	unanalyzed := &datastore.Artist{Name: "NoAudio", TagEnergy: 0.8, Valence: 0.3}
	require.NoError(t, store.UpsertArtist(unanalyzed))

	neighbors, err := engine.SimilarArtists("NoAudio", 5)
	require.NoError(t, err)
	require.Len(t, neighbors, 5)
}

func TestSimilarTracks(t *testing.T) {
	store := newTestStore(t)
	engine := New(store, conf.SimilaritySettings{MinCorpus: 3, DefaultK: 5})

	a := addArtist(t, store, "A", 140, 0.8, 0.7, 0.75, 0.6, 0.3)
	b := addArtist(t, store, "B", 138, 0.78, 0.69, 0.74, 0.58, 0.32)
	c := addArtist(t, store, "C", 70, 0.2, 0.1, 0.25, 0.15, 0.9)

	require.NoError(t, store.InsertTrack(&datastore.Track{
		ArtistID: a.ID, Title: "Fast One", BPM: 140, Brightness: 0.8, Noisiness: 0.7, Warmth: 0.75, Complexity: 0.6,
	}))
	require.NoError(t, store.InsertTrack(&datastore.Track{
		ArtistID: b.ID, Title: "Fast Too", BPM: 138, Brightness: 0.78, Noisiness: 0.69, Warmth: 0.74, Complexity: 0.58,
	}))
	require.NoError(t, store.InsertTrack(&datastore.Track{
		ArtistID: c.ID, Title: "Slow Ballad", BPM: 70, Brightness: 0.2, Noisiness: 0.1, Warmth: 0.25, Complexity: 0.15,
	}))

	neighbors, err := engine.SimilarTracks("a", "FAST ONE", 2)
	require.NoError(t, err)
	require.Len(t, neighbors, 2)
	assert.Equal(t, "Fast Too", neighbors[0].Title)
	assert.Equal(t, "B", neighbors[0].Artist)
	assert.Greater(t, neighbors[0].Similarity, neighbors[1].Similarity)
}

func TestSimilarTracksUnknownTrack(t *testing.T) {
	store := newTestStore(t)
	engine := New(store, conf.SimilaritySettings{MinCorpus: 2, DefaultK: 5})

	a := addArtist(t, store, "A", 140, 0.8, 0.7, 0.75, 0.6, 0.3)
	require.NoError(t, store.InsertTrack(&datastore.Track{ArtistID: a.ID, Title: "Only One"}))
	require.NoError(t, store.InsertTrack(&datastore.Track{ArtistID: a.ID, Title: "Another"}))

	_, err := engine.SimilarTracks("A", "Missing", 3)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestSimilarTracksCorpusTooSmall(t *testing.T) {
	engine, store := newTestEngine(t)
	a := addArtist(t, store, "A", 140, 0.8, 0.7, 0.75, 0.6, 0.3)
	require.NoError(t, store.InsertTrack(&datastore.Track{ArtistID: a.ID, Title: "Only One"}))

	neighbors, err := engine.SimilarTracks("A", "Only One", 3)
	require.NoError(t, err)
	assert.Empty(t, neighbors)
}

func TestSimilarTracksStandardizedOrdering(t *testing.T) {
	store := newTestStore(t)
	engine := New(store, conf.SimilaritySettings{MinCorpus: 3, DefaultK: 5})

	// All artists share a valence and every feature except tempo and
	// brightness is constant, so only those two columns carry signal.
	a := addArtist(t, store, "A", 0, 0, 0, 0, 0, 0.5)
	x := addArtist(t, store, "X", 0, 0, 0, 0, 0, 0.5)
	y := addArtist(t, store, "Y", 0, 0, 0, 0, 0, 0.5)

	require.NoError(t, store.InsertTrack(&datastore.Track{
		ArtistID: a.ID, Title: "Query", BPM: 140, Brightness: 0.1, Noisiness: 0.5, Warmth: 0.5, Complexity: 0.5,
	}))
	require.NoError(t, store.InsertTrack(&datastore.Track{
		ArtistID: x.ID, Title: "Brighter Faster", BPM: 180, Brightness: 0.3, Noisiness: 0.5, Warmth: 0.5, Complexity: 0.5,
	}))
	require.NoError(t, store.InsertTrack(&datastore.Track{
		ArtistID: y.ID, Title: "Dim Slow", BPM: 60, Brightness: 0.1, Noisiness: 0.5, Warmth: 0.5, Complexity: 0.5,
	}))

	// On raw all-positive vectors "Brighter Faster" would win on angle
	// alone; after standardization the query's below-average brightness
	// aligns it with "Dim Slow".
	neighbors, err := engine.SimilarTracks("A", "Query", 2)
	require.NoError(t, err)
	require.Len(t, neighbors, 2)
	assert.Equal(t, "Dim Slow", neighbors[0].Title)
	assert.Equal(t, "Brighter Faster", neighbors[1].Title)
	assert.Greater(t, neighbors[0].Similarity, neighbors[1].Similarity)
}

func TestStandardizeColumnsConstantColumn(t *testing.T) {
	matrix := [][]float64{
		{1, 5},
		{1, 7},
		{1, 9},
	}
	standardizeColumns(matrix)
	for r := range matrix {
		assert.InDelta(t, 0.0, matrix[r][0], 1e-12)
	}
	assert.Less(t, matrix[0][1], matrix[2][1])
}

func TestCosineDegenerate(t *testing.T) {
	assert.InDelta(t, 0.0, cosine([]float64{0, 0}, []float64{1, 1}), 1e-12)
	assert.InDelta(t, 1.0, cosine([]float64{1, 2}, []float64{2, 4}), 1e-12)
}
