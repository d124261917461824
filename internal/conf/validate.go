package conf

import (
	"github.com/jtkoskela/melograph/internal/errors"
)

// ValidateSettings checks the loaded settings for values that would
// break the pipeline at runtime.
func ValidateSettings(s *Settings) error {
	if !s.Database.SQLite.Enabled && !s.Database.MySQL.Enabled {
		return errors.Newf("no database backend enabled").
			Category(errors.CategoryConfiguration).
			Component("conf").
			Build()
	}
	if s.Database.SQLite.Enabled && s.Database.MySQL.Enabled {
		return errors.Newf("both sqlite and mysql enabled, pick one").
			Category(errors.CategoryConfiguration).
			Component("conf").
			Build()
	}

	cal := s.Extractor.Calibration
	if cal.BrightnessDivisor <= 0 || cal.NoisinessScale <= 0 ||
		cal.WarmthDivisor <= 0 || cal.ComplexityScale <= 0 {
		return errors.Newf("calibration constants must be positive").
			Category(errors.CategoryConfiguration).
			Component("conf").
			Context("brightness_divisor", cal.BrightnessDivisor).
			Context("noisiness_scale", cal.NoisinessScale).
			Context("warmth_divisor", cal.WarmthDivisor).
			Context("complexity_scale", cal.ComplexityScale).
			Build()
	}

	if s.Extractor.SampleRate <= 0 {
		return errors.Newf("extractor sample rate must be positive, got %d", s.Extractor.SampleRate).
			Category(errors.CategoryConfiguration).
			Component("conf").
			Build()
	}

	if s.Resolver.MaxTracks < 0 {
		return errors.Newf("resolver maxtracks must be non-negative, got %d", s.Resolver.MaxTracks).
			Category(errors.CategoryConfiguration).
			Component("conf").
			Build()
	}

	c := s.Crawler
	if c.PageSize <= 0 || c.MaxPages <= 0 || c.SeedQuota <= 0 {
		return errors.Newf("crawler page size, max pages and seed quota must be positive").
			Category(errors.CategoryConfiguration).
			Component("conf").
			Context("page_size", c.PageSize).
			Context("max_pages", c.MaxPages).
			Context("seed_quota", c.SeedQuota).
			Build()
	}

	if s.Similarity.MinCorpus < 2 {
		return errors.Newf("similarity mincorpus must be at least 2, got %d", s.Similarity.MinCorpus).
			Category(errors.CategoryConfiguration).
			Component("conf").
			Build()
	}

	return nil
}
