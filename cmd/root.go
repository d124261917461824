// Package cmd assembles the command line interface.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jtkoskela/melograph/cmd/harvest"
	"github.com/jtkoskela/melograph/cmd/heal"
	"github.com/jtkoskela/melograph/cmd/inject"
	"github.com/jtkoskela/melograph/cmd/list"
	"github.com/jtkoskela/melograph/cmd/remove"
	"github.com/jtkoskela/melograph/cmd/similar"
	"github.com/jtkoskela/melograph/internal/conf"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "melograph",
		Short: "Music artist discovery through audio physics and the similarity graph",
		Long: "Melograph crawls the similar-artist graph, analyzes audio preview\n" +
			"clips into physics feature vectors, and answers nearest-neighbor\n" +
			"queries over the collected corpus.",
	}

	if err := setupFlags(rootCmd, settings); err != nil {
		cobra.CheckErr(err)
	}

	rootCmd.AddCommand(
		harvest.Command(settings),
		inject.Command(settings),
		similar.Command(settings),
		heal.Command(settings),
		remove.Command(settings),
		list.Command(settings),
	)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Database.SQLite.Path, "db", viper.GetString("database.sqlite.path"), "Path to the SQLite database file")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
