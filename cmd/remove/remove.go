// Package remove implements artist deletion.
package remove

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jtkoskela/melograph/internal/app"
	"github.com/jtkoskela/melograph/internal/conf"
)

// Command creates the remove command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "remove [artist]...",
		Short: "Delete artists and their tracks from the corpus",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(settings, args)
		},
	}
}

func runRemove(settings *conf.Settings, names []string) error {
	a, err := app.Open(settings)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	for _, name := range names {
		if err := a.Store.DeleteArtistByName(name); err != nil {
			return err
		}
		fmt.Printf("Removed %s\n", name)
	}
	return nil
}
