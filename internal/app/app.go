// Package app wires the application's components together for the CLI
// commands: datastore, provider clients, ingest pipeline, crawler, and
// the similarity engine.
package app

import (
	"github.com/jtkoskela/melograph/internal/analyzer"
	"github.com/jtkoskela/melograph/internal/conf"
	"github.com/jtkoskela/melograph/internal/crawler"
	"github.com/jtkoskela/melograph/internal/datastore"
	"github.com/jtkoskela/melograph/internal/deezer"
	"github.com/jtkoskela/melograph/internal/lastfm"
	"github.com/jtkoskela/melograph/internal/resolver"
	"github.com/jtkoskela/melograph/internal/scoring"
	"github.com/jtkoskela/melograph/internal/similarity"
)

// App holds the core components every command needs: the opened store
// and the similarity engine over it. Provider-backed components are
// built on demand so offline commands work without API credentials.
type App struct {
	Settings   *conf.Settings
	Store      datastore.Interface
	Similarity *similarity.Engine

	lastfm *lastfm.Client
	deezer *deezer.Client
}

// Open creates the app over an opened datastore.
func Open(settings *conf.Settings) (*App, error) {
	store, err := datastore.New(settings)
	if err != nil {
		return nil, err
	}
	if err := store.Open(); err != nil {
		return nil, err
	}

	return &App{
		Settings:   settings,
		Store:      store,
		Similarity: similarity.New(store, settings.Similarity),
	}, nil
}

// Close releases the store and any provider clients that were built.
func (a *App) Close() error {
	if a.lastfm != nil {
		a.lastfm.Close()
	}
	if a.deezer != nil {
		a.deezer.Close()
	}
	return a.Store.Close()
}

// LastFM returns the shared Last.fm client, building it on first use.
func (a *App) LastFM() (*lastfm.Client, error) {
	if a.lastfm != nil {
		return a.lastfm, nil
	}
	client, err := lastfm.NewClient(lastfm.ConfigFromSettings(a.Settings.LastFM))
	if err != nil {
		return nil, err
	}
	a.lastfm = client
	return client, nil
}

// Deezer returns the shared catalog client, building it on first use.
func (a *App) Deezer() *deezer.Client {
	if a.deezer == nil {
		a.deezer = deezer.NewClient(deezer.ConfigFromSettings(a.Settings.Deezer))
	}
	return a.deezer
}

// Pipeline builds the full ingest pipeline. It needs both providers.
func (a *App) Pipeline() (*crawler.Pipeline, error) {
	lfm, err := a.LastFM()
	if err != nil {
		return nil, err
	}

	scorer := scoring.NewScorer(a.Settings.Scoring.Energy, a.Settings.Scoring.Valence)
	res := resolver.New(a.Deezer(), lfm, scorer, a.Settings.Resolver)
	ana := analyzer.New(a.Settings.Extractor)

	return crawler.NewPipeline(a.Store, res, ana), nil
}

// Crawler builds the discovery crawler over the full pipeline.
func (a *App) Crawler() (*crawler.Crawler, error) {
	pipeline, err := a.Pipeline()
	if err != nil {
		return nil, err
	}
	lfm, err := a.LastFM()
	if err != nil {
		return nil, err
	}
	return crawler.New(pipeline, lfm, a.Settings.Crawler), nil
}
