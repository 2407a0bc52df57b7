package aggregate

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/citia/citewatch/internal/conf"
	"github.com/citia/citewatch/internal/pipeline"
)

// Command creates a command that recomputes share scores once and exits.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Recompute citation share scores and trends",
		Long:  "Run the share-aggregation stage once over the configured mention window and exit.",
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
	return runner.Aggregate(ctx)
}

func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().IntVar(&settings.Pipeline.Aggregate.WindowDays, "window", viper.GetInt("pipeline.aggregate.windowdays"), "Trailing mention window to score, in days")
	cmd.Flags().IntVar(&settings.Pipeline.Trend.WindowDays, "trendwindow", viper.GetInt("pipeline.trend.windowdays"), "Length of each compared trend window, in days")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}
