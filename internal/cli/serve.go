package cli

import (
	"context"
	"log/slog"

	"github.com/liftoffbuild/liftoff/internal/manifest"
	"github.com/liftoffbuild/liftoff/internal/server"
	"github.com/liftoffbuild/liftoff/internal/telemetry"
)

// Represents the 'liftoff serve' command.
type ServeCmd struct {
	Addr string `short:"a" default:":8730" help:"Listen address for the trigger API." placeholder:"ADDR"`
}

// Executes the serve command.
//
// Starts the HTTP trigger API and blocks until the context is cancelled
// (e.g. via SIGINT or SIGTERM).
func (c *ServeCmd) Run(ctx context.Context) error {
	m, err := manifest.Load(RootCmd.Manifest)
	if err != nil {
		return err
	}

	if m.Tracing {
		shutdown := telemetry.Init(ctx)
		defer shutdown(context.Background())
	}

	coordinator, cleanup, err := buildCoordinator(m)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := server.New(server.Config{Addr: c.Addr}, coordinator)

	errs := make(chan error, 1)
	go func() {
		errs <- srv.Start()
	}()

	slog.Info("liftoff is running")

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	return srv.Stop()
}
