// interfaces.go defines the interface for the database operations
package datastore

import (
	"gorm.io/gorm"

	"github.com/jtkoskela/melograph/internal/conf"
	"github.com/jtkoskela/melograph/internal/errors"
)

// Interface abstracts the underlying database implementation.
type Interface interface {
	Open() error
	Close() error

	// Artist operations. UpsertArtist is keyed by the case-insensitive
	// name: resolving the same artist twice updates, never duplicates.
	UpsertArtist(artist *Artist) error
	GetArtistByName(name string) (*Artist, error)
	GetAllArtists() ([]Artist, error)
	CountArtists() (int64, error)
	DeleteArtistByName(name string) error

	// Track operations. ReplaceTracks swaps an artist's whole track set.
	InsertTrack(track *Track) error
	ReplaceTracks(artistID uint, tracks []Track) error
	GetTracks(artistID uint) ([]Track, error)
	GetAllTracks() ([]Track, error)

	// SynthesizeScores recomputes the artist's composite vector from its
	// current track set. Idempotent; safe after every track write.
	SynthesizeScores(artistID uint) error
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB
}

// New creates a store instance based on the configured backend.
func New(settings *conf.Settings) (Interface, error) {
	switch {
	case settings.Database.SQLite.Enabled:
		return &SQLiteStore{Settings: settings}, nil
	case settings.Database.MySQL.Enabled:
		return &MySQLStore{Settings: settings}, nil
	default:
		return nil, errors.Newf("no database backend enabled").
			Category(errors.CategoryConfiguration).
			Component("datastore").
			Build()
	}
}

// UpsertArtist creates the artist or, when a record with the same
// case-insensitive name exists, updates its metadata in place. The
// composite vector and track set of an existing record are left alone;
// SynthesizeScores owns those. On return artist.ID is always set.
func (ds *DataStore) UpsertArtist(artist *Artist) error {
	if artist.Name == "" {
		return errors.Newf("artist name must not be empty").
			Category(errors.CategoryValidation).
			Component("datastore").
			Build()
	}
	artist.NameKey = NameKey(artist.Name)

	return ds.DB.Transaction(func(tx *gorm.DB) error {
		var existing Artist
		err := tx.Where("name_key = ?", artist.NameKey).First(&existing).Error
		switch {
		case err == nil:
			artist.ID = existing.ID
			artist.CreatedAt = existing.CreatedAt
			updates := map[string]any{
				"name":               artist.Name,
				"genre":              artist.Genre,
				"listeners":          artist.Listeners,
				"image_url":          artist.ImageURL,
				"first_release_year": artist.FirstReleaseYear,
				"tag_energy":         artist.TagEnergy,
				"valence":            artist.Valence,
			}
			if err := tx.Model(&Artist{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
				return dbError(err, "updating artist", artist.Name)
			}
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(artist).Error; err != nil {
				return dbError(err, "creating artist", artist.Name)
			}
			return nil
		default:
			return dbError(err, "looking up artist", artist.Name)
		}
	})
}

// GetArtistByName retrieves an artist by case-insensitive name, with tracks.
func (ds *DataStore) GetArtistByName(name string) (*Artist, error) {
	var artist Artist
	err := ds.DB.Preload("Tracks").Where("name_key = ?", NameKey(name)).First(&artist).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Newf("artist not found: %s", name).
				Category(errors.CategoryNotFound).
				Component("datastore").
				Build()
		}
		return nil, dbError(err, "getting artist", name)
	}
	return &artist, nil
}

// GetAllArtists returns every stored artist, without tracks.
func (ds *DataStore) GetAllArtists() ([]Artist, error) {
	var artists []Artist
	if err := ds.DB.Order("name_key").Find(&artists).Error; err != nil {
		return nil, dbError(err, "listing artists", "")
	}
	return artists, nil
}

// CountArtists returns the number of stored artists.
func (ds *DataStore) CountArtists() (int64, error) {
	var count int64
	if err := ds.DB.Model(&Artist{}).Count(&count).Error; err != nil {
		return 0, dbError(err, "counting artists", "")
	}
	return count, nil
}

// DeleteArtistByName removes an artist and all of its tracks. Deleting
// an unknown name is a not-found error.
func (ds *DataStore) DeleteArtistByName(name string) error {
	return ds.DB.Transaction(func(tx *gorm.DB) error {
		var artist Artist
		err := tx.Where("name_key = ?", NameKey(name)).First(&artist).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.Newf("artist not found: %s", name).
					Category(errors.CategoryNotFound).
					Component("datastore").
					Build()
			}
			return dbError(err, "looking up artist", name)
		}

		// Delete children explicitly: SQLite only honors the FK cascade
		// when foreign_keys is on, so don't depend on it.
		if err := tx.Where("artist_id = ?", artist.ID).Delete(&Track{}).Error; err != nil {
			return dbError(err, "deleting tracks", name)
		}
		if err := tx.Delete(&Artist{}, artist.ID).Error; err != nil {
			return dbError(err, "deleting artist", name)
		}
		return nil
	})
}

// InsertTrack stores one analyzed track.
func (ds *DataStore) InsertTrack(track *Track) error {
	if track.ArtistID == 0 {
		return errors.Newf("track requires an owning artist").
			Category(errors.CategoryValidation).
			Component("datastore").
			Build()
	}
	if err := ds.DB.Create(track).Error; err != nil {
		return dbError(err, "inserting track", track.Title)
	}
	return nil
}

// ReplaceTracks atomically swaps an artist's track set for a new one,
// used on re-analysis.
func (ds *DataStore) ReplaceTracks(artistID uint, tracks []Track) error {
	return ds.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("artist_id = ?", artistID).Delete(&Track{}).Error; err != nil {
			return dbError(err, "clearing tracks", "")
		}
		for i := range tracks {
			tracks[i].ID = 0
			tracks[i].ArtistID = artistID
			if err := tx.Create(&tracks[i]).Error; err != nil {
				return dbError(err, "inserting replacement track", tracks[i].Title)
			}
		}
		return nil
	})
}

// GetTracks returns the tracks owned by one artist.
func (ds *DataStore) GetTracks(artistID uint) ([]Track, error) {
	var tracks []Track
	if err := ds.DB.Where("artist_id = ?", artistID).Find(&tracks).Error; err != nil {
		return nil, dbError(err, "listing tracks", "")
	}
	return tracks, nil
}

// GetAllTracks returns every stored track across all artists.
func (ds *DataStore) GetAllTracks() ([]Track, error) {
	var tracks []Track
	if err := ds.DB.Order("artist_id, id").Find(&tracks).Error; err != nil {
		return nil, dbError(err, "listing all tracks", "")
	}
	return tracks, nil
}

func dbError(err error, operation, subject string) error {
	eb := errors.Newf("%s: %w", operation, err).
		Category(errors.CategoryDatabase).
		Component("datastore")
	if subject != "" {
		eb = eb.Context("subject", subject)
	}
	return eb.Build()
}
