package conf

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultSettings(t *testing.T) *Settings {
	t.Helper()
	viper.Reset()
	setDefaultConfig()
	s := &Settings{}
	require.NoError(t, viper.Unmarshal(s))
	return s
}

func TestDefaultsUnmarshal(t *testing.T) {
	s := defaultSettings(t)

	assert.True(t, s.Database.SQLite.Enabled)
	assert.False(t, s.Database.MySQL.Enabled)
	assert.Equal(t, 22050, s.Extractor.SampleRate)
	assert.Equal(t, 30, s.Extractor.MaxSeconds)
	assert.InDelta(t, 3000.0, s.Extractor.Calibration.BrightnessDivisor, 1e-9)
	assert.InDelta(t, 10.0, s.Extractor.Calibration.NoisinessScale, 1e-9)
	assert.InDelta(t, 5000.0, s.Extractor.Calibration.WarmthDivisor, 1e-9)
	assert.InDelta(t, 5.0, s.Extractor.Calibration.ComplexityScale, 1e-9)
	assert.Equal(t, 5, s.Resolver.MaxTracks)
	assert.Equal(t, 50, s.Crawler.PageSize)
	assert.Equal(t, 3, s.Crawler.MaxPages)
	assert.Equal(t, 2, s.Crawler.SeedQuota)
	assert.Equal(t, 500*time.Millisecond, s.Crawler.Politeness)
	assert.Equal(t, 5, s.Similarity.MinCorpus)
	assert.NotEmpty(t, s.Crawler.BootstrapSeeds)
}

func TestValidateDefaults(t *testing.T) {
	s := defaultSettings(t)
	assert.NoError(t, ValidateSettings(s))
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"no database", func(s *Settings) { s.Database.SQLite.Enabled = false }},
		{"both databases", func(s *Settings) { s.Database.MySQL.Enabled = true }},
		{"zero calibration", func(s *Settings) { s.Extractor.Calibration.WarmthDivisor = 0 }},
		{"negative calibration", func(s *Settings) { s.Extractor.Calibration.NoisinessScale = -1 }},
		{"zero sample rate", func(s *Settings) { s.Extractor.SampleRate = 0 }},
		{"negative max tracks", func(s *Settings) { s.Resolver.MaxTracks = -1 }},
		{"zero seed quota", func(s *Settings) { s.Crawler.SeedQuota = 0 }},
		{"tiny min corpus", func(s *Settings) { s.Similarity.MinCorpus = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := defaultSettings(t)
			tt.mutate(s)
			assert.Error(t, ValidateSettings(s))
		})
	}
}
