package alert

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/citia/citewatch/internal/conf"
	"github.com/citia/citewatch/internal/pipeline"
)

// Command creates a command that evaluates alert rules once and exits.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "alert",
		Short: "Evaluate alert rules against current share scores",
		Long:  "Run the alert-evaluation stage once and exit. Triggered alerts are persisted and dispatched to their configured channels.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(settings)
		},
	}
}

func runOnce(settings *conf.Settings) error {
	runner, err := pipeline.NewRunner(settings)
	if err != nil {
		return err
	}
	defer runner.Close()

	ctx, cancel := context.WithTimeout(context.Background(), settings.Pipeline.StageTimeout)
	defer cancel()
	return runner.Alert(ctx)
}
