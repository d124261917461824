// Package similarity answers nearest-neighbor queries over the stored
// corpus: artists by euclidean distance in standardized score space,
// tracks by cosine similarity over their physics vectors.
package similarity

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/jtkoskela/melograph/internal/conf"
	"github.com/jtkoskela/melograph/internal/datastore"
	"github.com/jtkoskela/melograph/internal/errors"
	"github.com/jtkoskela/melograph/internal/logging"
)

var log = logging.ForService("similarity")

// Neighbor is one artist result, ordered by ascending distance.
type Neighbor struct {
	Name     string
	Genre    string
	Distance float64
}

// TrackNeighbor is one track result, ordered by descending similarity.
type TrackNeighbor struct {
	Artist     string
	Title      string
	Similarity float64
}

// Engine runs similarity queries against the datastore.
type Engine struct {
	store    datastore.Interface
	settings conf.SimilaritySettings
}

// New creates an engine over the given store.
func New(store datastore.Interface, settings conf.SimilaritySettings) *Engine {
	if settings.MinCorpus <= 0 {
		settings.MinCorpus = 5
	}
	if settings.DefaultK <= 0 {
		settings.DefaultK = 5
	}
	return &Engine{store: store, settings: settings}
}

// artistVector is the six score columns a stored artist is compared on.
// Energy falls back to the tag-derived score for artists whose audio
// never got analyzed, so they stay comparable with the rest.
func artistVector(a *datastore.Artist) []float64 {
	energy := a.AvgBrightness
	if energy == 0 {
		energy = a.TagEnergy
	}
	return []float64{
		energy,
		a.Valence,
		a.AvgBPM,
		a.AvgNoisiness,
		a.AvgWarmth,
		a.AvgComplexity,
	}
}

// SimilarArtists returns the k nearest artists to the named one. The
// query artist itself is never part of the result.
func (e *Engine) SimilarArtists(name string, k int) ([]Neighbor, error) {
	if k <= 0 {
		k = e.settings.DefaultK
	}

	artists, err := e.store.GetAllArtists()
	if err != nil {
		return nil, err
	}
	// A tiny corpus would only yield degenerate neighbors, so the
	// query answers with nothing rather than noise.
	if len(artists) < e.settings.MinCorpus {
		log.Info("Corpus below query minimum, returning no neighbors",
			"corpus", len(artists),
			"min_corpus", e.settings.MinCorpus)
		return []Neighbor{}, nil
	}

	key := datastore.NameKey(name)
	target := -1
	matrix := make([][]float64, len(artists))
	for i := range artists {
		matrix[i] = artistVector(&artists[i])
		if artists[i].NameKey == key {
			target = i
		}
	}
	if target < 0 {
		return nil, errors.Newf("artist not in corpus: %s", name).
			Category(errors.CategoryNotFound).
			Component("similarity").
			Context("artist", name).
			Build()
	}

	standardizeColumns(matrix)

	neighbors := make([]Neighbor, 0, len(artists)-1)
	for i := range artists {
		if i == target {
			continue
		}
		neighbors = append(neighbors, Neighbor{
			Name:     artists[i].Name,
			Genre:    artists[i].Genre,
			Distance: euclidean(matrix[target], matrix[i]),
		})
	}
	sort.Slice(neighbors, func(i, j int) bool {
		return neighbors[i].Distance < neighbors[j].Distance
	})
	if len(neighbors) > k {
		neighbors = neighbors[:k]
	}

	log.Debug("Artist query answered",
		"artist", artists[target].Name,
		"corpus", len(artists),
		"k", k)
	return neighbors, nil
}

// SimilarTracks returns the k tracks most similar to the named one,
// compared by cosine similarity over standardized tempo, the four
// physics features, and the owning artist's valence.
func (e *Engine) SimilarTracks(artistName, title string, k int) ([]TrackNeighbor, error) {
	if k <= 0 {
		k = e.settings.DefaultK
	}

	artists, err := e.store.GetAllArtists()
	if err != nil {
		return nil, err
	}
	valenceByID := make(map[uint]float64, len(artists))
	nameByID := make(map[uint]string, len(artists))
	for i := range artists {
		valenceByID[artists[i].ID] = artists[i].Valence
		nameByID[artists[i].ID] = artists[i].Name
	}

	tracks, err := e.store.GetAllTracks()
	if err != nil {
		return nil, err
	}
	if len(tracks) < e.settings.MinCorpus {
		log.Info("Track corpus below query minimum, returning no neighbors",
			"corpus", len(tracks),
			"min_corpus", e.settings.MinCorpus)
		return []TrackNeighbor{}, nil
	}

	artistKey := datastore.NameKey(artistName)
	titleKey := strings.ToLower(strings.TrimSpace(title))

	target := -1
	vectors := make([][]float64, len(tracks))
	for i := range tracks {
		vectors[i] = trackVector(&tracks[i], valenceByID[tracks[i].ArtistID])
		if target < 0 &&
			datastore.NameKey(nameByID[tracks[i].ArtistID]) == artistKey &&
			strings.ToLower(strings.TrimSpace(tracks[i].Title)) == titleKey {
			target = i
		}
	}
	if target < 0 {
		return nil, errors.Newf("track not in corpus: %s by %s", title, artistName).
			Category(errors.CategoryNotFound).
			Component("similarity").
			Build()
	}

	// Raw feature vectors are all positive, which squeezes every pair
	// toward cosine 1. Standardizing first lets direction carry signal.
	standardizeColumns(vectors)

	neighbors := make([]TrackNeighbor, 0, len(tracks)-1)
	for i := range tracks {
		if i == target {
			continue
		}
		neighbors = append(neighbors, TrackNeighbor{
			Artist:     nameByID[tracks[i].ArtistID],
			Title:      tracks[i].Title,
			Similarity: cosine(vectors[target], vectors[i]),
		})
	}
	sort.Slice(neighbors, func(i, j int) bool {
		return neighbors[i].Similarity > neighbors[j].Similarity
	})
	if len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	return neighbors, nil
}

func trackVector(t *datastore.Track, artistValence float64) []float64 {
	return []float64{
		t.BPM,
		t.Brightness,
		t.Noisiness,
		t.Warmth,
		t.Complexity,
		artistValence,
	}
}

// standardizeColumns rescales each column to zero mean and unit
// variance in place. A constant column carries no signal and is zeroed
// rather than divided by its zero deviation.
func standardizeColumns(matrix [][]float64) {
	if len(matrix) == 0 {
		return
	}
	column := make([]float64, len(matrix))
	for c := range matrix[0] {
		for r := range matrix {
			column[r] = matrix[r][c]
		}
		mean, std := stat.MeanStdDev(column, nil)
		for r := range matrix {
			if std == 0 || math.IsNaN(std) {
				matrix[r][c] = 0
				continue
			}
			matrix[r][c] = (matrix[r][c] - mean) / std
		}
	}
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func cosine(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
