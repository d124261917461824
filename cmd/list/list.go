// Package list implements corpus inspection.
package list

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jtkoskela/melograph/internal/app"
	"github.com/jtkoskela/melograph/internal/conf"
)

// Command creates the list command.
func Command(settings *conf.Settings) *cobra.Command {
	var byListeners bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the stored artists and their scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(settings, byListeners)
		},
	}

	cmd.Flags().BoolVar(&byListeners, "by-listeners", false, "Sort by listener count instead of name")

	return cmd
}

func runList(settings *conf.Settings, byListeners bool) error {
	a, err := app.Open(settings)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	artists, err := a.Store.GetAllArtists()
	if err != nil {
		return err
	}
	if len(artists) == 0 {
		fmt.Println("The corpus is empty. Run harvest or inject first.")
		return nil
	}

	if byListeners {
		sort.Slice(artists, func(i, j int) bool { return artists[i].Listeners > artists[j].Listeners })
	} else {
		sort.Slice(artists, func(i, j int) bool { return artists[i].NameKey < artists[j].NameKey })
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tGENRE\tLISTENERS\tYEAR\tBPM\tENERGY\tVALENCE\tTRACKS")
	for i := range artists {
		tracks, err := a.Store.GetTracks(artists[i].ID)
		if err != nil {
			return err
		}
		energy := artists[i].AvgBrightness
		if energy == 0 {
			energy = artists[i].TagEnergy
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.0f\t%.2f\t%.2f\t%d\n",
			artists[i].Name,
			artists[i].Genre,
			artists[i].Listeners,
			artists[i].FirstReleaseYear,
			artists[i].AvgBPM,
			energy,
			artists[i].Valence,
			len(tracks))
	}
	return w.Flush()
}
