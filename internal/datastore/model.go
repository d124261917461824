// model.go defines the persisted data model: artists and their analyzed tracks.
package datastore

import (
	"strings"
	"time"
)

// Artist is one discovered musical artist. Identity is the display name
// under case-insensitive comparison, enforced through the NameKey column.
type Artist struct {
	ID      uint   `gorm:"primaryKey"`
	Name    string `gorm:"not null"`             // canonical display name
	NameKey string `gorm:"uniqueIndex;not null"` // lowercased name, identity key

	Genre            string  // best single genre label, "Unknown" if untagged
	Listeners        int     // popularity count, non-negative
	ImageURL         string  // artwork reference, empty if none
	FirstReleaseYear int     // earliest known release year, 0 = unknown
	TagEnergy        float64 `gorm:"default:0.5"` // tag-derived fallback energy
	Valence          float64 `gorm:"default:0.5"` // tag-derived mood score

	// Composite feature vector, the mean of the track features below.
	// AvgWarmth carries the normalized spectral roll-off: higher means a
	// brighter spectrum, not a warmer one.
	AvgBPM        float64
	AvgBrightness float64
	AvgNoisiness  float64
	AvgWarmth     float64
	AvgComplexity float64

	CreatedAt time.Time
	UpdatedAt time.Time

	Tracks []Track `gorm:"foreignKey:ArtistID;constraint:OnDelete:CASCADE"`
}

// Track is one analyzed audio preview, owned by exactly one artist.
// Tracks are immutable: re-analysis replaces an artist's whole track set.
type Track struct {
	ID       uint `gorm:"primaryKey"`
	ArtistID uint `gorm:"index;not null;constraint:OnDelete:CASCADE"`

	Title      string
	PreviewURL string

	// Raw-normalized physics values from the extractor. BPM is a real
	// tempo estimate; the rest lie in [0,1].
	BPM        float64
	Brightness float64
	Noisiness  float64
	Warmth     float64
	Complexity float64

	CreatedAt time.Time
}

// NameKey normalizes a display name into the case-insensitive identity key.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
