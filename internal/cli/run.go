package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/liftoffbuild/liftoff/internal/manifest"
	"github.com/liftoffbuild/liftoff/internal/run"
	"github.com/liftoffbuild/liftoff/internal/telemetry"
)

// Represents the 'liftoff run' command.
type RunCmd struct {
	Revision string `arg:"" help:"Source revision to build and release."`
}

// Executes the run command.
//
// Builds every target in the matrix, and publishes the release only if
// the whole matrix succeeded. A partially failed run exits non-zero and
// publishes nothing.
func (c *RunCmd) Run(ctx context.Context) error {
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

	r := coordinator.NewRun(c.Revision)
	report, runErr := coordinator.Execute(ctx, r)

	renderReport(report)

	if runErr != nil {
		return runErr
	}

	slog.Info("release published", "release", report.ReleaseID)
	return nil
}

// Renders a run report as a table on stdout.
func renderReport(report *run.Report) {
	tbl := tablewriter.NewTable(
		os.Stdout,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Borders:  tw.BorderNone,
			Settings: tw.Settings{Separators: tw.Separators{BetweenColumns: tw.On}},
		})),
	)
	tbl.Header([]string{"Platform", "Triple", "Status", "Detail"})

	rows := make([][]any, 0, len(report.Jobs))
	for _, j := range report.Jobs {
		detail := j.Artifact
		if j.Error != "" {
			detail = j.Error
		}
		rows = append(rows, []any{j.Platform, j.Triple, string(j.Status), detail})
	}

	_ = tbl.Bulk(rows)
	_ = tbl.Render()

	fmt.Printf("\nrun %s (%s): %s\n", report.RunID, report.Revision, report.State)
}
