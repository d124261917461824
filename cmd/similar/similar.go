// Package similar implements the nearest-neighbor query command.
package similar

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jtkoskela/melograph/internal/app"
	"github.com/jtkoskela/melograph/internal/conf"
)

// Command creates the similar command.
func Command(settings *conf.Settings) *cobra.Command {
	var k int
	var track string

	cmd := &cobra.Command{
		Use:   "similar [artist]",
		Short: "Find the artists or tracks nearest to the given one",
		Long: "Answers a nearest-neighbor query over the stored corpus. Artists\n" +
			"are compared by euclidean distance in standardized score space.\n" +
			"With --track, the query runs over tracks by cosine similarity.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimilar(settings, args[0], track, k)
		},
	}

	cmd.Flags().IntVarP(&k, "count", "k", 0, "Neighbor count (0 uses the configured default)")
	cmd.Flags().StringVar(&track, "track", "", "Query this track of the artist instead of the artist")

	return cmd
}

func runSimilar(settings *conf.Settings, artist, track string, k int) error {
	a, err := app.Open(settings)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if track != "" {
		neighbors, err := a.Similarity.SimilarTracks(artist, track, k)
		if err != nil {
			return err
		}
		if len(neighbors) == 0 {
			fmt.Println("No neighbors: the corpus is still too small. Run harvest or inject first.")
			return nil
		}
		fmt.Printf("Tracks nearest to %q by %s:\n", track, artist)
		for i, n := range neighbors {
			fmt.Printf("%2d. %-35s %-25s similarity %.3f\n", i+1, n.Title, n.Artist, n.Similarity)
		}
		return nil
	}

	neighbors, err := a.Similarity.SimilarArtists(artist, k)
	if err != nil {
		return err
	}
	if len(neighbors) == 0 {
		fmt.Println("No neighbors: the corpus is still too small. Run harvest or inject first.")
		return nil
	}
	fmt.Printf("Artists nearest to %s:\n", artist)
	for i, n := range neighbors {
		fmt.Printf("%2d. %-30s %-20s distance %.3f\n", i+1, n.Name, n.Genre, n.Distance)
	}
	return nil
}
