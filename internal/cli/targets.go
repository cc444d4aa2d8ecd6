package cli

import (
	"context"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/liftoffbuild/liftoff/internal/artifact"
	"github.com/liftoffbuild/liftoff/internal/manifest"
)

// Represents the 'liftoff targets' command.
type TargetsCmd struct{}

// Executes the targets command.
//
// Shows the effective target matrix along with the artifact name each
// target will produce.
func (c *TargetsCmd) Run(ctx context.Context) error {
	m, err := manifest.Load(RootCmd.Manifest)
	if err != nil {
		return err
	}

	tbl := tablewriter.NewTable(
		os.Stdout,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Borders:  tw.BorderNone,
			Settings: tw.Settings{Separators: tw.Separators{BetweenColumns: tw.On}},
		})),
	)
	tbl.Header([]string{"Platform", "Triple", "Artifact"})

	rows := make([][]any, 0, len(m.Targets))
	for _, t := range m.Targets {
		rows = append(rows, []any{t.Platform, t.Triple, artifact.Name(m.Binary, t.Platform, t.ExeSuffix)})
	}

	_ = tbl.Bulk(rows)
	return tbl.Render()
}
