// Package harvest implements the discovery crawl command.
package harvest

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jtkoskela/melograph/internal/app"
	"github.com/jtkoskela/melograph/internal/conf"
	"github.com/jtkoskela/melograph/internal/crawler"
)

// Command creates the harvest command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Crawl the similar-artist graph and grow the corpus",
		Long: "Expands the corpus by walking similar-artist pages outward from\n" +
			"seed artists, analyzing preview clips of every new artist found.\n" +
			"An empty database is bootstrapped from the configured seed list.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHarvest(cmd, settings)
		},
	}

	setupFlags(cmd, settings)

	return cmd
}

func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.Flags().DurationVar(&settings.Crawler.TimeLimit, "time-limit", settings.Crawler.TimeLimit, "Wall-clock budget for the run")
	cmd.Flags().IntVar(&settings.Crawler.MaxSeeds, "seeds", settings.Crawler.MaxSeeds, "Seeds sampled from the corpus per run")
	cmd.Flags().IntVar(&settings.Crawler.SeedQuota, "quota", settings.Crawler.SeedQuota, "New artists accepted per seed")
}

func runHarvest(cmd *cobra.Command, settings *conf.Settings) error {
	a, err := app.Open(settings)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	c, err := a.Crawler()
	if err != nil {
		return err
	}

	budget := crawler.NewBudget(settings.Crawler.TimeLimit, settings.Crawler.MaxConsecutiveFailures)

	stats, err := c.Run(cmd.Context(), budget)
	if stats != nil {
		printStats(stats)
	}
	return err
}

func printStats(stats *crawler.Stats) {
	fmt.Printf("Run %s finished in %s\n", stats.RunID, stats.Elapsed.Round(time.Millisecond))
	fmt.Printf("  seeds scanned:   %d\n", stats.SeedsScanned)
	fmt.Printf("  candidates seen: %d\n", stats.CandidatesSeen)
	fmt.Printf("  artists added:   %d\n", stats.ArtistsAdded)
	fmt.Printf("  tracks analyzed: %d\n", stats.TracksAnalyzed)
	fmt.Printf("  failures:        %d\n", stats.Failures)
	if stats.Aborted {
		fmt.Println("  run aborted early")
	}
}
