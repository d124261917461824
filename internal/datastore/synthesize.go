package datastore

import (
	"gorm.io/gorm"

	"github.com/jtkoskela/melograph/internal/errors"
)

// SynthesizeScores recomputes an artist's composite vector as the
// arithmetic mean of its current track set. With zero tracks the
// composite energy falls back to the tag-derived score and BPM to 0
// (unknown). Always recomputes from scratch, so it is idempotent and
// safe to call after every track write.
func (ds *DataStore) SynthesizeScores(artistID uint) error {
	return ds.DB.Transaction(func(tx *gorm.DB) error {
		var artist Artist
		if err := tx.First(&artist, artistID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.Newf("artist %d not found", artistID).
					Category(errors.CategoryNotFound).
					Component("datastore").
					Build()
			}
			return dbError(err, "loading artist for synthesis", "")
		}

		var tracks []Track
		if err := tx.Where("artist_id = ?", artistID).Find(&tracks).Error; err != nil {
			return dbError(err, "loading tracks for synthesis", artist.Name)
		}

		updates := map[string]any{
			"avg_bpm":        0.0,
			"avg_brightness": artist.TagEnergy,
			"avg_noisiness":  0.0,
			"avg_warmth":     0.0,
			"avg_complexity": 0.0,
		}

		if len(tracks) > 0 {
			var bpm, brightness, noisiness, warmth, complexity float64
			for i := range tracks {
				bpm += tracks[i].BPM
				brightness += tracks[i].Brightness
				noisiness += tracks[i].Noisiness
				warmth += tracks[i].Warmth
				complexity += tracks[i].Complexity
			}
			n := float64(len(tracks))
			updates["avg_bpm"] = bpm / n
			updates["avg_brightness"] = brightness / n
			updates["avg_noisiness"] = noisiness / n
			updates["avg_warmth"] = warmth / n
			updates["avg_complexity"] = complexity / n
		}

		if err := tx.Model(&Artist{}).Where("id = ?", artistID).Updates(updates).Error; err != nil {
			return dbError(err, "updating composite scores", artist.Name)
		}
		return nil
	})
}
