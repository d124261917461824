// Package inject implements direct artist ingestion, by name or by
// genre tag.
package inject

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jtkoskela/melograph/internal/app"
	"github.com/jtkoskela/melograph/internal/conf"
	"github.com/jtkoskela/melograph/internal/errors"
)

// Command creates the inject command.
func Command(settings *conf.Settings) *cobra.Command {
	var tag string
	var limit int

	cmd := &cobra.Command{
		Use:   "inject [artist]...",
		Short: "Ingest named artists, or the top artists of a genre tag",
		Long: "Resolves and ingests the given artist names directly, bypassing\n" +
			"the crawl. With --tag, the tag's most popular artists are ingested\n" +
			"instead of named ones.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if tag == "" && len(args) == 0 {
				return fmt.Errorf("provide artist names or --tag")
			}
			return runInject(cmd.Context(), settings, args, tag, limit)
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "Ingest the top artists under this genre tag")
	cmd.Flags().IntVar(&limit, "limit", 10, "Artist count to ingest with --tag")

	return cmd
}

func runInject(ctx context.Context, settings *conf.Settings, names []string, tag string, limit int) error {
	a, err := app.Open(settings)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	pipeline, err := a.Pipeline()
	if err != nil {
		return err
	}

	if tag != "" {
		lfm, err := a.LastFM()
		if err != nil {
			return err
		}
		tagged, err := lfm.TopArtistsByTag(ctx, tag, limit)
		if err != nil {
			return err
		}
		names = append(names, tagged...)
	}

	var failed int
	for _, name := range names {
		artist, tracks, err := pipeline.Ingest(ctx, name)
		if err != nil {
			failed++
			if errors.IsNotFound(err) {
				fmt.Printf("%-30s not found in catalog\n", name)
			} else {
				fmt.Printf("%-30s failed: %v\n", name, err)
			}
			continue
		}
		fmt.Printf("%-30s ingested, %d tracks analyzed\n", artist.Name, tracks)
	}

	if failed == len(names) && len(names) > 0 {
		return fmt.Errorf("all %d artists failed to ingest", failed)
	}
	return nil
}
