// Package crawler expands the artist corpus by walking the provider's
// similar-artist graph outward from seed artists, ingesting unseen
// candidates until the run budget is spent.
package crawler

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/jtkoskela/melograph/internal/conf"
	"github.com/jtkoskela/melograph/internal/datastore"
	"github.com/jtkoskela/melograph/internal/errors"
)

// Social is the similar-artist graph source.
type Social interface {
	SimilarArtists(ctx context.Context, artist string, page, limit int) ([]string, error)
}

// Stats summarizes one crawl run.
type Stats struct {
	RunID          string
	SeedsScanned   int
	CandidatesSeen int
	ArtistsAdded   int
	TracksAnalyzed int
	Failures       int
	Aborted        bool
	Elapsed        time.Duration
}

// Crawler runs discovery crawls over the similar-artist graph.
type Crawler struct {
	*Pipeline
	store    datastore.Interface
	social   Social
	settings conf.CrawlerSettings
}

// New creates a crawler over the given pipeline and graph source.
func New(pipeline *Pipeline, social Social, settings conf.CrawlerSettings) *Crawler {
	return &Crawler{
		Pipeline: pipeline,
		store:    pipeline.store,
		social:   social,
		settings: settings,
	}
}

// Run executes one crawl within the budget. On an empty store the
// bootstrap seeds are ingested first and then expanded; otherwise seeds
// are sampled from the stored corpus. The returned stats are valid even
// when the run aborts early.
func (c *Crawler) Run(ctx context.Context, budget *Budget) (*Stats, error) {
	start := time.Now()
	stats := &Stats{RunID: uuid.NewString()}

	log.Info("Crawl starting", "run_id", stats.RunID)

	known, seeds, err := c.prepare(ctx, budget, stats)
	if err != nil {
		stats.Elapsed = time.Since(start)
		return stats, err
	}

	for _, seed := range seeds {
		if budget.Expired() || ctx.Err() != nil {
			break
		}
		if err := c.expandSeed(ctx, budget, stats, seed, known); err != nil {
			stats.Aborted = true
			stats.Elapsed = time.Since(start)
			log.Error("Crawl aborted",
				"run_id", stats.RunID,
				"seeds_scanned", stats.SeedsScanned,
				"error", err.Error())
			return stats, err
		}
		stats.SeedsScanned++
	}

	stats.Elapsed = time.Since(start)
	log.Info("Crawl finished",
		"run_id", stats.RunID,
		"seeds_scanned", stats.SeedsScanned,
		"artists_added", stats.ArtistsAdded,
		"tracks_analyzed", stats.TracksAnalyzed,
		"failures", stats.Failures,
		"elapsed", stats.Elapsed)
	return stats, nil
}

// prepare snapshots the known corpus and selects this run's seeds.
func (c *Crawler) prepare(ctx context.Context, budget *Budget, stats *Stats) (map[string]bool, []string, error) {
	artists, err := c.store.GetAllArtists()
	if err != nil {
		return nil, nil, err
	}

	known := make(map[string]bool, len(artists))
	names := make([]string, 0, len(artists))
	for i := range artists {
		known[artists[i].NameKey] = true
		names = append(names, artists[i].Name)
	}

	if len(names) == 0 {
		return known, c.bootstrap(ctx, budget, stats, known), nil
	}

	rand.Shuffle(len(names), func(i, j int) {
		names[i], names[j] = names[j], names[i]
	})
	if limit := c.settings.MaxSeeds; limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	return known, names, nil
}

// bootstrap ingests the configured seed artists into an empty store and
// returns those that landed as this run's seeds.
func (c *Crawler) bootstrap(ctx context.Context, budget *Budget, stats *Stats, known map[string]bool) []string {
	seeds := make([]string, 0, len(c.settings.BootstrapSeeds))
	for _, name := range c.settings.BootstrapSeeds {
		if budget.Expired() || ctx.Err() != nil {
			break
		}
		artist, tracks, err := c.Ingest(ctx, name)
		if err != nil {
			stats.Failures++
			log.Warn("Bootstrap seed failed", "artist", name, "error", err.Error())
			continue
		}
		known[artist.NameKey] = true
		stats.ArtistsAdded++
		stats.TracksAnalyzed += tracks
		seeds = append(seeds, artist.Name)
		c.pause(ctx)
	}
	return seeds
}

// expandSeed walks similar-artist pages for one seed, ingesting unseen
// candidates until the per-seed quota or page cap is hit. A non-nil
// return aborts the whole run.
func (c *Crawler) expandSeed(ctx context.Context, budget *Budget, stats *Stats, seed string, known map[string]bool) error {
	accepted := 0

	for page := 1; page <= c.settings.MaxPages && accepted < c.settings.SeedQuota; page++ {
		if budget.Expired() || ctx.Err() != nil {
			return nil
		}

		candidates, err := c.social.SimilarArtists(ctx, seed, page, c.settings.PageSize)
		if err != nil {
			stats.Failures++
			log.Warn("Similar-artist page failed",
				"seed", seed, "page", page, "error", err.Error())
			if budget.RecordFailure() {
				return c.abortError(budget)
			}
			return nil
		}
		if len(candidates) == 0 {
			return nil
		}

		for _, candidate := range candidates {
			if budget.Expired() || ctx.Err() != nil || accepted >= c.settings.SeedQuota {
				return nil
			}
			key := datastore.NameKey(candidate)
			if key == "" || known[key] {
				continue
			}
			stats.CandidatesSeen++

			artist, tracks, err := c.Ingest(ctx, candidate)
			if err != nil {
				// A candidate the catalog has never heard of is a
				// graph artifact, not a provider failure.
				if errors.IsNotFound(err) {
					known[key] = true
					continue
				}
				stats.Failures++
				log.Warn("Candidate ingest failed",
					"seed", seed, "candidate", candidate, "error", err.Error())
				if budget.RecordFailure() {
					return c.abortError(budget)
				}
				continue
			}

			budget.RecordSuccess()
			known[artist.NameKey] = true
			accepted++
			stats.ArtistsAdded++
			stats.TracksAnalyzed += tracks
			c.pause(ctx)
		}
	}
	return nil
}

func (c *Crawler) abortError(budget *Budget) error {
	return errors.Newf("aborting crawl after %d consecutive failures", budget.ConsecutiveFailures()).
		Category(errors.CategoryLimit).
		Component("crawler").
		Build()
}

// pause sleeps the politeness delay between external call bursts.
func (c *Crawler) pause(ctx context.Context) {
	if c.settings.Politeness <= 0 {
		return
	}
	select {
	case <-time.After(c.settings.Politeness):
	case <-ctx.Done():
	}
}
