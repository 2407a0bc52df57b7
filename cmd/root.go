package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/citia/citewatch/cmd/aggregate"
	"github.com/citia/citewatch/cmd/alert"
	"github.com/citia/citewatch/cmd/extract"
	"github.com/citia/citewatch/cmd/serve"
	"github.com/citia/citewatch/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "citewatch",
		Short: "Citewatch citation monitoring pipeline CLI",
	}

	// Set up the global flags for the root command.
	setupFlags(rootCmd, settings)

	subcommands := []*cobra.Command{
		extract.Command(settings),
		aggregate.Command(settings),
		alert.Command(settings),
		serve.Command(settings),
	}
	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}
