// conf/defaults.go default values for settings
package conf

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// configPaths returns the directories searched for config.yaml, most
// specific first.
func configPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "melograph"))
	}
	paths = append(paths, "/etc/melograph")
	return paths
}

// setDefaultConfig sets default values for each configuration parameter.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "melograph")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "melograph.log")

	viper.SetDefault("database.sqlite.enabled", true)
	viper.SetDefault("database.sqlite.path", "melograph.db")
	viper.SetDefault("database.mysql.enabled", false)
	viper.SetDefault("database.mysql.username", "melograph")
	viper.SetDefault("database.mysql.password", "")
	viper.SetDefault("database.mysql.database", "melograph")
	viper.SetDefault("database.mysql.host", "localhost")
	viper.SetDefault("database.mysql.port", "3306")

	viper.SetDefault("lastfm.baseurl", "https://ws.audioscrobbler.com/2.0/")
	viper.SetDefault("lastfm.apikey", "")
	viper.SetDefault("lastfm.timeout", 10*time.Second)
	viper.SetDefault("lastfm.cachettl", 15*time.Minute)
	viper.SetDefault("lastfm.ratelimitms", 250)
	viper.SetDefault("lastfm.maxretries", 3)

	viper.SetDefault("deezer.baseurl", "https://api.deezer.com")
	viper.SetDefault("deezer.timeout", 10*time.Second)
	viper.SetDefault("deezer.cachettl", 15*time.Minute)
	viper.SetDefault("deezer.ratelimitms", 250)
	viper.SetDefault("deezer.maxretries", 3)

	viper.SetDefault("extractor.samplerate", 22050)
	viper.SetDefault("extractor.maxseconds", 30)
	// Empirically fit against the reference decode pipeline on a corpus
	// spanning ambient through technical metal. Recalibrate if the
	// decode or resample stage changes.
	viper.SetDefault("extractor.calibration.brightnessdivisor", 3000.0)
	viper.SetDefault("extractor.calibration.noisinessscale", 10.0)
	viper.SetDefault("extractor.calibration.warmthdivisor", 5000.0)
	viper.SetDefault("extractor.calibration.complexityscale", 5.0)

	viper.SetDefault("resolver.maxtracks", 5)

	viper.SetDefault("crawler.bootstrapseeds", []string{
		"Metallica", "The Beatles", "Gorillaz", "Chris Stapleton", "Dolly Parton",
	})
	viper.SetDefault("crawler.maxseeds", 20)
	viper.SetDefault("crawler.pagesize", 50)
	viper.SetDefault("crawler.maxpages", 3)
	viper.SetDefault("crawler.seedquota", 2)
	viper.SetDefault("crawler.politeness", 500*time.Millisecond)
	viper.SetDefault("crawler.maxconsecutivefailures", 10)
	viper.SetDefault("crawler.timelimit", 10*time.Minute)

	// Empty maps select the built-in versioned score tables.
	viper.SetDefault("scoring.energy", map[string]float64{})
	viper.SetDefault("scoring.valence", map[string]float64{})

	viper.SetDefault("similarity.mincorpus", 5)
	viper.SetDefault("similarity.defaultk", 5)
}
