package extract

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/citia/citewatch/internal/conf"
	"github.com/citia/citewatch/internal/pipeline"
)

// Command creates a command that runs mention extraction once and exits.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract entity mentions from recent raw answers",
		Long:  "Run the mention-extraction stage once over the configured trailing answer window and exit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

func runOnce(settings *conf.Settings) error {
	runner, err := pipeline.NewRunner(settings)
	if err != nil {
		return err
	}
	defer runner.Close()

	ctx, cancel := context.WithTimeout(context.Background(), settings.Pipeline.StageTimeout)
	defer cancel()
	return runner.Extract(ctx)
}

func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().IntVar(&settings.Pipeline.Extract.WindowHours, "window", viper.GetInt("pipeline.extract.windowhours"), "Trailing answer window to process, in hours")
	cmd.Flags().IntVar(&settings.Pipeline.Extract.MaxConcurrency, "concurrency", viper.GetInt("pipeline.extract.maxconcurrency"), "Max parallel answer matching goroutines (0 = GOMAXPROCS)")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}
