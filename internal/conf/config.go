// Package conf defines the application settings and loads them from the
// configuration file, environment variables and defaults.
package conf

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LogSettings controls the main application log.
type LogSettings struct {
	Enabled bool   // true to enable main log file
	Path    string // path to main log file
}

// MainSettings contains top-level application settings.
type MainSettings struct {
	Name string      // instance name, used in log records
	Log  LogSettings // main log settings
}

// SQLiteSettings contains SQLite database settings.
type SQLiteSettings struct {
	Enabled bool   // true to enable SQLite
	Path    string // path to SQLite database file
}

// MySQLSettings contains MySQL database settings.
type MySQLSettings struct {
	Enabled  bool   // true to enable MySQL
	Username string // MySQL username
	Password string // MySQL password
	Database string // MySQL database name
	Host     string // MySQL host
	Port     string // MySQL port
}

// DatabaseSettings selects and configures the persisted store backend.
type DatabaseSettings struct {
	SQLite SQLiteSettings
	MySQL  MySQLSettings
}

// ProviderSettings contains the knobs shared by the external metadata
// provider clients.
type ProviderSettings struct {
	BaseURL     string        // API base URL
	APIKey      string        // API key, where the provider requires one
	Timeout     time.Duration // per-request timeout
	CacheTTL    time.Duration // response cache time-to-live
	RateLimitMS int           // minimum milliseconds between requests
	MaxRetries  int           // bounded retry attempts for transient failures
}

// CalibrationSettings holds the empirically fit divisors and scales that
// map raw DSP measurements onto [0,1]. These are calibration data, not
// logic: re-derive them if the decode/resample pipeline changes.
type CalibrationSettings struct {
	BrightnessDivisor float64 // spectral centroid divisor, Hz
	NoisinessScale    float64 // zero-crossing rate multiplier
	WarmthDivisor     float64 // spectral roll-off divisor, Hz
	ComplexityScale   float64 // chroma deviation multiplier
}

// ExtractorSettings configures the audio feature extractor.
type ExtractorSettings struct {
	SampleRate  int                 // analysis sample rate, Hz
	MaxSeconds  int                 // maximum clip length to analyze
	Calibration CalibrationSettings // feature normalization constants
}

// ResolverSettings configures metadata resolution.
type ResolverSettings struct {
	MaxTracks int // top tracks with previews to retain per artist
}

// CrawlerSettings configures the discovery crawl.
type CrawlerSettings struct {
	BootstrapSeeds         []string      // seed artists used when the store is empty
	MaxSeeds               int           // seeds sampled from the store per run
	PageSize               int           // similar-artist page size
	MaxPages               int           // hard cap on pages per seed
	SeedQuota              int           // newly added artists accepted per seed
	Politeness             time.Duration // delay between external calls
	MaxConsecutiveFailures int           // abort threshold for failed candidates
	TimeLimit              time.Duration // default wall-clock budget per run
}

// ScoringSettings optionally overrides the built-in tag score tables.
// Empty maps select the built-in versioned tables.
type ScoringSettings struct {
	Energy  map[string]float64 // tag substring -> energy score
	Valence map[string]float64 // tag substring -> valence score
}

// SimilaritySettings configures the nearest-neighbor query engine.
type SimilaritySettings struct {
	MinCorpus int // minimum artists before queries return results
	DefaultK  int // default neighbor count
}

// Settings is the root configuration struct.
type Settings struct {
	Debug bool // enable debug logging

	Main       MainSettings
	Database   DatabaseSettings
	LastFM     ProviderSettings
	Deezer     ProviderSettings
	Extractor  ExtractorSettings
	Resolver   ResolverSettings
	Crawler    CrawlerSettings
	Scoring    ScoringSettings
	Similarity SimilaritySettings
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a
// Settings instance and stores it as the global instance.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the
// configuration file, if one exists.
func initViper() error {
	// A .env file may carry provider API keys; absence is fine.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	for _, path := range configPaths() {
		viper.AddConfigPath(path)
	}

	viper.SetEnvPrefix("melograph")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// No config file is a valid setup: defaults plus env cover it.
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// GetSettings returns the current settings instance, or nil before Load.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, loading it on first use.
func Setting() (*Settings, error) {
	if s := GetSettings(); s != nil {
		return s, nil
	}
	return Load()
}
