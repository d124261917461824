// Package heal implements re-resolution of incomplete artists.
package heal

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jtkoskela/melograph/internal/app"
	"github.com/jtkoskela/melograph/internal/conf"
	"github.com/jtkoskela/melograph/internal/datastore"
)

// Command creates the heal command.
func Command(settings *conf.Settings) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "heal [artist]...",
		Short: "Re-resolve and re-analyze stored artists",
		Long: "Runs the full ingest pipeline again for the named artists,\n" +
			"replacing their tracks and recomputing composite scores. With\n" +
			"--all, every artist with no analyzed tracks is healed.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("provide artist names or --all")
			}
			return runHeal(cmd.Context(), settings, args, all)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Heal every artist with no analyzed tracks")

	return cmd
}

func runHeal(ctx context.Context, settings *conf.Settings, names []string, all bool) error {
	a, err := app.Open(settings)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	pipeline, err := a.Pipeline()
	if err != nil {
		return err
	}

	if all {
		names, err = tracklessArtists(a.Store)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("Nothing to heal: every artist has analyzed tracks.")
			return nil
		}
	}

	for _, name := range names {
		artist, tracks, err := pipeline.Ingest(ctx, name)
		if err != nil {
			fmt.Printf("%-30s failed: %v\n", name, err)
			continue
		}
		fmt.Printf("%-30s healed, %d tracks analyzed\n", artist.Name, tracks)
	}
	return nil
}

// tracklessArtists lists stored artists that have no analyzed tracks.
func tracklessArtists(store datastore.Interface) ([]string, error) {
	artists, err := store.GetAllArtists()
	if err != nil {
		return nil, err
	}

	var names []string
	for i := range artists {
		tracks, err := store.GetTracks(artists[i].ID)
		if err != nil {
			return nil, err
		}
		if len(tracks) == 0 {
			names = append(names, artists[i].Name)
		}
	}
	return names, nil
}
