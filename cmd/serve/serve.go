// Package serve implements the serve command, running the HTTP API.
package serve

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/microscan/microscan-go/internal/api"
	"github.com/microscan/microscan-go/internal/conf"
	"github.com/microscan/microscan-go/internal/datastore"
	"github.com/microscan/microscan-go/internal/logging"
	"github.com/microscan/microscan-go/internal/notification"
	"github.com/microscan/microscan-go/internal/observability"
	"github.com/microscan/microscan-go/internal/processing"
	"github.com/microscan/microscan-go/internal/sampler"
)

// Command creates the serve subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the water analysis HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings)
		},
	}
}

func run(settings *conf.Settings) error {
	log := logging.ForService("serve")

	ds := datastore.New(settings)
	if ds == nil {
		return fmt.Errorf("no database backend enabled in configuration")
	}
	if err := ds.Open(); err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer func() {
		if err := ds.Close(); err != nil {
			log.Error("failed to close datastore", "error", err)
		}
	}()

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}

	var notifier processing.Notifier
	if settings.Email.Enabled {
		notifier = notification.NewEmailNotifier(settings, ds)
	}

	proc := processing.New(settings, ds, sampler.New(), notifier, metrics)

	controller, err := api.New(settings, ds, proc, notifier, metrics)
	if err != nil {
		return fmt.Errorf("initializing API: %w", err)
	}
	defer controller.Shutdown()

	errChan := make(chan error, 1)
	go func() {
		errChan <- controller.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
		return controller.Echo.Close()
	}
}
