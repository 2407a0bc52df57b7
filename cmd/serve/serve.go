package serve

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/citia/citewatch/internal/conf"
	"github.com/citia/citewatch/internal/logging"
	"github.com/citia/citewatch/internal/pipeline"
	"github.com/citia/citewatch/internal/trigger"
)

// shutdownGrace bounds how long in-flight stage runs may finish after a
// termination signal.
const shutdownGrace = 30 * time.Second

// Command creates the command that serves the trigger HTTP endpoint.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pipeline trigger endpoint",
		Long:  "Start the HTTP server that accepts pipeline trigger messages and runs stages in the background.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

func run(settings *conf.Settings) error {
	logger := logging.ForService("serve")
	if logger == nil {
		logger = slog.Default().With("service", "serve")
	}

	runner, err := pipeline.NewRunner(settings)
	if err != nil {
		return err
	}
	defer runner.Close()

	controller := trigger.New(settings, runner.Stages(), runner.Metrics())

	errCh := make(chan error, 1)
	go func() {
		errCh <- controller.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return controller.Shutdown(ctx)
}

func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.HTTP.Listen, "listen", viper.GetString("http.listen"), "Listen address and port of the trigger endpoint")
	cmd.Flags().BoolVar(&settings.Metrics.Enabled, "metrics", viper.GetBool("metrics.enabled"), "Enable Prometheus metrics endpoint")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}
